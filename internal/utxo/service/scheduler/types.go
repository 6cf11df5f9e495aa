package scheduler

import (
	"context"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Job is one unit of periodic work, e.g. a sync or a chain tip check.
	Job interface {
		Name() string
		Run(ctx context.Context) error
	}

	Metrics interface {
		ObserveRun(job string, err error, started time.Time)
		ObserveSkipped(job string)
	}
)
