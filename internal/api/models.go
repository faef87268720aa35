package api

import (
	"time"

	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/notify"
)

// RefreshRequest asks for a refresh of the given tracked accounts.
type RefreshRequest struct {
	Accounts []domain.Account `json:"accounts" validate:"required,min=1"`
}

// StatusResponse reports what the refresh pipeline is doing and when each
// account was last synced successfully.
type StatusResponse struct {
	Status      string               `json:"status"`
	LastRefresh map[string]time.Time `json:"last_refresh"`
}

// AddTransactionRequest asks the backend to fetch and decode a single
// transaction by hash.
type AddTransactionRequest struct {
	Chain             string `json:"evm_chain"          validate:"required"`
	TxHash            string `json:"tx_hash"            validate:"required,len=66,startswith=0x"`
	AssociatedAddress string `json:"associated_address" validate:"required,len=42,startswith=0x"`
}

// RedecodeRequest asks for a re-decode of specific transactions on one chain.
type RedecodeRequest struct {
	Chain    string   `json:"evm_chain" validate:"required"`
	TxHashes []string `json:"tx_hashes" validate:"required,min=1,dive,len=66,startswith=0x"`
}

// NotificationListResponse wraps the current notification list.
type NotificationListResponse struct {
	Entries []notify.Notification `json:"entries"`
}

// ChainListResponse lists the chains the backend supports.
type ChainListResponse struct {
	Entries []domain.ChainInfo `json:"entries"`
}
