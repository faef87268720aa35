package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for accounts.
var (
	// ErrInvalidAddress indicates a malformed account address.
	ErrInvalidAddress = errors.New("invalid account address")

	// ErrInvalidChain indicates an empty or unknown chain name.
	ErrInvalidChain = errors.New("invalid chain name")
)

// Account identifies an address tracked on a specific chain. Chain holds the
// backend's snake_case chain name (e.g. "ethereum", "polygon_pos").
type Account struct {
	Address string `json:"address"`
	Chain   string `json:"evm_chain"`
}

// NewAccount creates a validated Account.
func NewAccount(address, chain string) (Account, error) {
	a := Account{Address: address, Chain: chain}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Key returns the identity used to serialize per-account work. Two accounts
// with the same address on different chains are distinct keys.
func (a Account) Key() string {
	return a.Chain + ":" + strings.ToLower(a.Address)
}

// Validate checks that the account has a plausible EVM address and a chain name.
func (a Account) Validate() error {
	if !isHexAddress(a.Address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, a.Address)
	}
	if a.Chain == "" {
		return ErrInvalidChain
	}
	return nil
}

// isHexAddress reports whether s looks like a 0x-prefixed 20-byte hex address.
func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// GroupByChain partitions accounts by chain name, preserving input order
// within each chain.
func GroupByChain(accounts []Account) map[string][]Account {
	grouped := make(map[string][]Account)
	for _, account := range accounts {
		grouped[account.Chain] = append(grouped[account.Chain], account)
	}
	return grouped
}
