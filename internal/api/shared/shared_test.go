package shared

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)

	assert.Len(t, traceID, TraceIDLength*2, "trace ID should be hex-encoded")
	assert.NotEqual(t, traceID, GetTraceID(SetTraceID(context.Background())),
		"trace IDs should be unique")
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		Chain string `json:"evm_chain"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"evm_chain":"gnosis"}`))
	require.NoError(t, DecodeJSON(req, &payload))
	assert.Equal(t, "gnosis", payload.Chain)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(req, &payload))
}

func TestValidateRequestUsesStructTags(t *testing.T) {
	t.Parallel()

	type body struct {
		Chain string `validate:"required"`
	}

	assert.Error(t, ValidateRequest(body{}))
	assert.NoError(t, ValidateRequest(body{Chain: "ethereum"}))
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/status", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, http.StatusConflict, "A refresh is already running")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "A refresh is already running", resp.Error)
	assert.Equal(t, GetTraceID(ctx), resp.TraceID)
}

func TestRespondWithErrorAndLogHidesRawError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusBadGateway, "The backend task failed",
		assert.AnError)

	body := rec.Body.String()
	assert.Contains(t, body, "The backend task failed")
	assert.NotContains(t, body, assert.AnError.Error())
}
