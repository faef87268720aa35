// Package task observes asynchronous backend tasks. The backend runs the
// work; this package polls task status until completion, failure, or backend
// cancellation and decodes the typed outcome for the caller.
package task
