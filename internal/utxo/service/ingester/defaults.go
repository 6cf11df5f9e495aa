package ingester

const (
	defaultFetchWorkers = 8
	// fetchWindowFactor bounds prefetched payloads to fetchWorkers*fetchWindowFactor blocks.
	fetchWindowFactor = 4
)
