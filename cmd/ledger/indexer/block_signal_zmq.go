//go:build zmq

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pebbe/zmq4"
	"go.uber.org/zap"
)

const hashBlockTopic = "hashblock"

// startBlockSignal subscribes to hashblock notifications of the node. Notifications
// are coalesced: a pending signal absorbs every block announced before it is consumed.
func startBlockSignal(ctx context.Context, addr string, logger *zap.Logger) (<-chan struct{}, error) {
	if addr == "" {
		return nil, nil
	}

	sub, err := newSubscriber(addr, hashBlockTopic)
	if err != nil {
		return nil, fmt.Errorf("connect zmq %s: %w", addr, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(sub, zmq4.POLLIN)

	notify := make(chan struct{}, 1)
	logger = logger.With(zap.String("zmq_addr", addr))

	go func() {
		defer sub.Close()
		for ctx.Err() == nil {
			polled, err := poller.Poll(time.Second)
			if err != nil {
				logger.Warn("zmq poll failed", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(polled) == 0 {
				continue
			}

			parts, err := sub.RecvMessageBytes(0)
			if err != nil {
				logger.Warn("zmq recv failed", zap.Error(err))
				continue
			}
			if len(parts) < 2 || string(parts[0]) != hashBlockTopic {
				logger.Warn("skip malformed zmq message", zap.Int("parts", len(parts)))
				continue
			}
			logger.Debug("block announced", zap.String("hash", hex.EncodeToString(parts[1])))

			select {
			case notify <- struct{}{}:
			default:
			}
		}
	}()

	return notify, nil
}

func newSubscriber(addr string, topics ...string) (*zmq4.Socket, error) {
	sub, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, err
	}

	for _, topic := range topics {
		if err := sub.SetSubscribe(topic); err != nil {
			_ = sub.Close()
			return nil, err
		}
	}

	if err := sub.Connect(addr); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}
