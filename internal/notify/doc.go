// Package notify keeps the user-facing notification view-state. It collects
// error notifications emitted by the sync pipeline and messages pushed by
// the backend websocket into one bounded in-memory list the API serves to
// UI clients.
package notify
