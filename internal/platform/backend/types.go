package backend

import "encoding/json"

// TaskID identifies one asynchronous backend task.
type TaskID int64

// TaskState is the lifecycle state the backend reports for a task.
type TaskState string

// Task states returned by the tasks resource. A task that was cancelled on
// the backend stops being reported and shows up as not-found.
const (
	TaskStatePending   TaskState = "pending"
	TaskStateCompleted TaskState = "completed"
	TaskStateNotFound  TaskState = "not-found"
)

// TaskOutcome is the payload of a completed task. Result holds the
// task-type-specific value; a non-empty Message indicates failure.
type TaskOutcome struct {
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

// TaskResult is the response of the task status resource.
type TaskResult struct {
	Status  TaskState    `json:"status"`
	Outcome *TaskOutcome `json:"outcome"`
}

// OnlineEventType selects which online event query the backend runs.
type OnlineEventType string

// Online event query types supported by the backend.
const (
	OnlineEventWithdrawals      OnlineEventType = "eth_withdrawals"
	OnlineEventBlockProductions OnlineEventType = "block_productions"
	OnlineEventExchanges        OnlineEventType = "exchanges"
)

// AllOnlineEventTypes lists the queries a full refresh runs.
func AllOnlineEventTypes() []OnlineEventType {
	return []OnlineEventType{
		OnlineEventWithdrawals,
		OnlineEventBlockProductions,
		OnlineEventExchanges,
	}
}

// EventFilter restricts a history event query. Zero values are omitted from
// the request body.
type EventFilter struct {
	Limit          int      `json:"limit,omitempty"`
	Offset         int      `json:"offset,omitempty"`
	Location       string   `json:"location,omitempty"`
	LocationLabels []string `json:"location_labels,omitempty"`
	Asset          string   `json:"asset,omitempty"`
	FromTimestamp  int64    `json:"from_timestamp,omitempty"`
	ToTimestamp    int64    `json:"to_timestamp,omitempty"`
	TxHashes       []string `json:"tx_hashes,omitempty"`
	EventTypes     []string `json:"event_types,omitempty"`
}
