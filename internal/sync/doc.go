// Package sync implements the task-backed refresh pipeline: a chunked
// scheduler that fans transaction-sync requests out across accounts with a
// concurrency cap, a queue that serializes per-account redecode work, and
// the orchestrator that composes both with the task awaiter and the
// notification side channel.
package sync
