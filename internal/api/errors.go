package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainfolio/txtracker/internal/chains"
	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/notify"
	"github.com/chainfolio/txtracker/internal/platform/backend"
	"github.com/chainfolio/txtracker/internal/sync"
	"github.com/chainfolio/txtracker/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var apiErr *backend.APIError

	switch {
	// Conflict errors
	case errors.Is(err, sync.ErrRefreshInProgress):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, sync.ErrNoSyncableAccounts),
		errors.Is(err, chains.ErrUnknownChain),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidChain):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, notify.ErrNotificationNotFound):
		return http.StatusNotFound

	// Upstream failures
	case errors.Is(err, task.ErrTaskCancelled),
		errors.Is(err, task.ErrTaskFailed),
		errors.Is(err, backend.ErrEmptyResult):
		return http.StatusBadGateway

	// Backend rejections keep their client/server split: a 4xx from the
	// backend means the request itself was bad, anything else means the
	// backend is misbehaving.
	case errors.As(err, &apiErr):
		if apiErr.IsClientError() {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var apiErr *backend.APIError

	switch {
	case errors.Is(err, sync.ErrRefreshInProgress):
		return "A refresh is already running"

	case errors.Is(err, sync.ErrNoSyncableAccounts):
		return "No account on a syncable chain"

	case errors.Is(err, chains.ErrUnknownChain):
		return "Unknown chain"

	case errors.Is(err, domain.ErrInvalidAddress):
		return "Invalid account address"

	case errors.Is(err, domain.ErrInvalidChain):
		return "Invalid chain name"

	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, notify.ErrNotificationNotFound):
		return "Notification not found"

	case errors.Is(err, task.ErrTaskCancelled):
		return "The backend cancelled the task"

	case errors.Is(err, task.ErrTaskFailed),
		errors.Is(err, backend.ErrEmptyResult):
		return "The backend task failed"

	// Backend error messages are already user-facing; pass client
	// rejections through so the caller learns what was wrong.
	case errors.As(err, &apiErr) && apiErr.IsClientError():
		return apiErr.Message

	case errors.As(err, &apiErr):
		return "The backend rejected the request"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'RefreshRequest.Accounts' Error:Field validation
	// for 'Accounts' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "len":
		return "wrong length"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
