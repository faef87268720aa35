package domain

// ChainInfo describes one chain the backend knows about.
type ChainInfo struct {
	// ID is the numeric EVM chain id (1 for Ethereum mainnet).
	ID uint64 `json:"id"`

	// Name is the backend's snake_case identifier used in API payloads.
	Name string `json:"name"`

	// Label is the human-readable chain name for display.
	Label string `json:"label"`

	// EvmLike marks chains that follow EVM transaction semantics.
	EvmLike bool `json:"evm_like"`

	// HasTransactions marks chains whose transactions the backend can sync.
	HasTransactions bool `json:"has_transactions"`
}
