// Package clock holds waiting helpers shared by the long-running jobs.
package clock

import (
	"context"
	"time"
)

// WaitOrSignal returns after d, when signal fires, or with ctx.Err() once ctx is done.
// A nil signal never fires.
func WaitOrSignal(ctx context.Context, d time.Duration, signal <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signal:
		return nil
	case <-timer.C:
		return nil
	}
}
