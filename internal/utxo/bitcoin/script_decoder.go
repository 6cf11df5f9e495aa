package bitcoin

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

// ErrNoChainParams is returned for coins whose address encoding btcd does not know.
var ErrNoChainParams = errors.New("no chain params for coin")

// unowned script types never credit an address.
var unowned = map[string]bool{
	"nonstandard": true,
	"nulldata":    true,
}

type scriptDecoder struct {
	params *chaincfg.Params
}

// NewScriptDecoder returns a decoder that recovers output owners from the
// raw script when the node leaves the address fields empty.
func NewScriptDecoder(coin model.Coin, network model.Network) (ScriptDecoder, error) {
	if coin != model.BTC {
		return nil, fmt.Errorf("%w: %s", ErrNoChainParams, coin)
	}
	params, err := chainParams(network)
	if err != nil {
		return nil, err
	}
	return &scriptDecoder{params: params}, nil
}

// DecodeAddresses lists the owners of an output in script order, each once.
func (d *scriptDecoder) DecodeAddresses(script btcjson.ScriptPubKeyResult) ([]string, error) {
	switch {
	case unowned[script.Type]:
		return nil, nil
	case len(script.Addresses) > 0:
		return uniq(script.Addresses), nil
	case script.Address != "":
		return []string{script.Address}, nil
	case script.Hex == "":
		return nil, nil
	}

	raw, err := hex.DecodeString(script.Hex)
	if err != nil {
		return nil, fmt.Errorf("decode script hex: %w", err)
	}
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(raw, d.params)
	if err != nil {
		return nil, fmt.Errorf("extract script addresses: %w", err)
	}
	if class == txscript.NonStandardTy || class == txscript.NullDataTy {
		return nil, nil
	}

	owners := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		owners = append(owners, addr.EncodeAddress())
	}
	return uniq(owners), nil
}

func uniq(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func chainParams(network model.Network) (*chaincfg.Params, error) {
	switch model.Network(strings.ToLower(string(network))) {
	case model.Mainnet, "main":
		return &chaincfg.MainNetParams, nil
	case model.Testnet, "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}
