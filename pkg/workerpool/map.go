package workerpool

import "context"

// Map runs fn over items on workerCount workers and returns the results in item order.
// The first error cancels the remaining work and is returned.
func Map[T, R any](
	ctx context.Context,
	workerCount int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	results := make([]R, len(items))
	indexes := make([]int, len(items))
	for i := range indexes {
		indexes[i] = i
	}

	err := Process(ctx, workerCount, indexes, func(ctx context.Context, i int) error {
		result, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		results[i] = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
