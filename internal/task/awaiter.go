package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chainfolio/txtracker/internal/platform/backend"
)

// Sentinel errors returned by Await.
var (
	// ErrTaskCancelled indicates the backend dropped a task the awaiter had
	// already observed as pending. The backend reports cancelled tasks the
	// same way as unknown ones, so prior observation is what distinguishes
	// the two.
	ErrTaskCancelled = errors.New("task cancelled by backend")

	// ErrTaskNotFound indicates the backend never knew the task id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFailed indicates the task completed with an error message.
	ErrTaskFailed = errors.New("task failed")
)

// maxPollFailures is how many consecutive status poll errors are tolerated
// before the await gives up.
const maxPollFailures = 5

// StatusAPI is the slice of the backend client the awaiter needs.
type StatusAPI interface {
	TaskStatus(ctx context.Context, id backend.TaskID) (*backend.TaskResult, error)
}

// Awaiter polls backend tasks until they finish.
type Awaiter struct {
	api      StatusAPI
	interval time.Duration
	logger   *slog.Logger
}

// NewAwaiter creates an awaiter polling at the given interval.
func NewAwaiter(api StatusAPI, interval time.Duration, logger *slog.Logger) *Awaiter {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Awaiter")
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Awaiter{
		api:      api,
		interval: interval,
		logger:   logger.With(slog.String("component", "task_awaiter")),
	}
}

// Await blocks until the task completes and returns its raw result.
// A task that completes with a backend error message fails with
// ErrTaskFailed; a task that disappears after being seen pending fails with
// ErrTaskCancelled. Context cancellation aborts the wait.
func (a *Awaiter) Await(ctx context.Context, id backend.TaskID) (json.RawMessage, error) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	seenPending := false
	pollFailures := 0

	for {
		result, err := a.api.TaskStatus(ctx, id)
		switch {
		case err != nil:
			pollFailures++
			if pollFailures >= maxPollFailures {
				return nil, fmt.Errorf("task %d status polling failed %d times: %w",
					id, pollFailures, err)
			}
			a.logger.Warn("task status poll failed, retrying",
				"task_id", id,
				"failures", pollFailures,
				"error", err)

		case result.Status == backend.TaskStatePending:
			pollFailures = 0
			seenPending = true

		case result.Status == backend.TaskStateNotFound:
			if seenPending {
				return nil, fmt.Errorf("task %d: %w", id, ErrTaskCancelled)
			}
			return nil, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)

		case result.Status == backend.TaskStateCompleted:
			if result.Outcome == nil {
				return nil, fmt.Errorf("task %d completed without outcome", id)
			}
			if result.Outcome.Message != "" {
				return nil, fmt.Errorf("task %d: %w: %s", id, ErrTaskFailed, result.Outcome.Message)
			}
			a.logger.Debug("task completed", "task_id", id)
			return result.Outcome.Result, nil

		default:
			return nil, fmt.Errorf("task %d reported unknown status %q", id, result.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AwaitResult awaits the task and decodes its result into T.
func AwaitResult[T any](ctx context.Context, a *Awaiter, id backend.TaskID) (T, error) {
	var out T
	raw, err := a.Await(ctx, id)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode task %d result: %w", id, err)
	}
	return out, nil
}
