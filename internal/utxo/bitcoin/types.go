package bitcoin

import (
	"encoding/json"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// RPCClient is the subset of the btcd rpc client used by NodeSource.
	RPCClient interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		RawRequest(method string, params []json.RawMessage) (json.RawMessage, error)
	}

	// ScriptDecoder extracts addresses from a script when the node omits them.
	ScriptDecoder interface {
		DecodeAddresses(script btcjson.ScriptPubKeyResult) ([]string, error)
	}
)
