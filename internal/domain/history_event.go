package domain

import (
	"github.com/shopspring/decimal"
)

// HistoryEvent is one decoded event the backend produced from raw
// transaction data. Field names mirror the backend's wire format.
type HistoryEvent struct {
	Identifier      int64           `json:"identifier"`
	EventIdentifier string          `json:"event_identifier"`
	SequenceIndex   int             `json:"sequence_index"`
	TxHash          string          `json:"tx_hash,omitempty"`
	Timestamp       int64           `json:"timestamp"`
	Location        string          `json:"location"`
	LocationLabel   string          `json:"location_label,omitempty"`
	EventType       string          `json:"event_type"`
	EventSubtype    string          `json:"event_subtype"`
	Asset           string          `json:"asset"`
	Amount          decimal.Decimal `json:"amount"`
	Counterparty    string          `json:"counterparty,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// HistoryEventPage is one page of a filtered history event query.
type HistoryEventPage struct {
	Entries      []HistoryEvent `json:"entries"`
	EntriesFound int            `json:"entries_found"`
	EntriesTotal int            `json:"entries_total"`
}
