package sync

// Status describes what the refresh pipeline is currently doing.
type Status string

// Pipeline states, in the order a full refresh passes through them.
const (
	StatusIdle                 Status = "idle"
	StatusQueryingTransactions Status = "querying_transactions"
	StatusQueryingOnlineEvents Status = "querying_online_events"
	StatusDecoding             Status = "decoding"
)

// StatusPayload is the wire shape of status change events.
type StatusPayload struct {
	Status Status `json:"status"`
}
