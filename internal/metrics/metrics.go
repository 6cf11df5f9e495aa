// Package metrics exposes application metrics collectors.
package metrics

import (
	"errors"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

const namespace = "blockinsight7000"

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func series(coin model.Coin, network model.Network) (model.Coin, model.Network) {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return coin, network
}
