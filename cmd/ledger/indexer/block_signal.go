//go:build !zmq

package main

import (
	"context"

	"go.uber.org/zap"
)

// startBlockSignal is a stub for builds without libzmq; jobs then run on their intervals only.
func startBlockSignal(_ context.Context, addr string, logger *zap.Logger) (<-chan struct{}, error) {
	if addr != "" {
		logger.Warn("zmq support not compiled in, build with -tags zmq", zap.String("zmq_addr", addr))
	}
	return nil, nil
}
