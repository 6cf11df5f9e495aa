package model

// ChainStatus mirrors the status string reported by getchaintips.
type ChainStatus string

const (
	ChainActive       ChainStatus = "active"
	ChainValidFork    ChainStatus = "valid-fork"
	ChainValidHeaders ChainStatus = "valid-headers"
	ChainHeadersOnly  ChainStatus = "headers-only"
	ChainInvalid      ChainStatus = "invalid"
	ChainUnknown      ChainStatus = "Unknown"
)

// MainChainID is the reserved id of the main chain row.
const MainChainID int64 = 1

// IsFork reports whether the status describes a fully or partially validated fork.
func (s ChainStatus) IsFork() bool {
	return s == ChainValidFork || s == ChainValidHeaders
}

// Chain is the terminal block of one branch of the block tree known to the ledger.
type Chain struct {
	ID        int64
	Height    int64
	Hash      string
	BranchLen int64
	Status    ChainStatus
}

// IsMain reports whether c is the main chain row.
func (c Chain) IsMain() bool {
	return c.ID == MainChainID
}

// SameTip reports whether both rows describe the same tip state.
func (c Chain) SameTip(other Chain) bool {
	return c.Height == other.Height &&
		c.Hash == other.Hash &&
		c.BranchLen == other.BranchLen &&
		c.Status == other.Status
}
