package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainfolio/txtracker/internal/domain"
	syncer "github.com/chainfolio/txtracker/internal/sync"
	"github.com/chainfolio/txtracker/internal/task"
)

// fakeSyncService records calls and returns canned results.
type fakeSyncService struct {
	refreshErr  error
	addErr      error
	redecodeErr error
	status      syncer.Status
	lastRefresh map[string]time.Time

	refreshed      []domain.Account
	addedChain     string
	addedHash      string
	redecodedChain string
	redecodedTxs   []string
}

func (f *fakeSyncService) StartRefresh(_ context.Context, accounts []domain.Account) error {
	f.refreshed = accounts
	return f.refreshErr
}

func (f *fakeSyncService) Status() syncer.Status {
	if f.status == "" {
		return syncer.StatusIdle
	}
	return f.status
}

func (f *fakeSyncService) LastRefresh() map[string]time.Time {
	return f.lastRefresh
}

func (f *fakeSyncService) RedecodeByHashes(_ context.Context, chain string, txHashes []string) error {
	f.redecodedChain = chain
	f.redecodedTxs = txHashes
	return f.redecodeErr
}

func (f *fakeSyncService) AddTransactionByHash(_ context.Context, chain, txHash, _ string) error {
	f.addedChain = chain
	f.addedHash = txHash
	return f.addErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	testAddress = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	testTxHash  = "0x" + "ab12" + "cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"
)

func TestTriggerRefreshAccepted(t *testing.T) {
	t.Parallel()

	service := &fakeSyncService{}
	handler := NewSyncHandler(service, testLogger())

	body := `{"accounts":[{"address":"` + testAddress + `","evm_chain":"ethereum"}]}`
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.TriggerRefresh(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, service.refreshed, 1)
	assert.Equal(t, "ethereum", service.refreshed[0].Chain)
}

func TestTriggerRefreshConflict(t *testing.T) {
	t.Parallel()

	service := &fakeSyncService{refreshErr: syncer.ErrRefreshInProgress}
	handler := NewSyncHandler(service, testLogger())

	body := `{"accounts":[{"address":"` + testAddress + `","evm_chain":"ethereum"}]}`
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.TriggerRefresh(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "A refresh is already running", resp["error"])
}

func TestTriggerRefreshRejectsBadBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"accounts":`},
		{name: "no accounts", body: `{"accounts":[]}`},
		{name: "missing accounts", body: `{}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service := &fakeSyncService{}
			handler := NewSyncHandler(service, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler.TriggerRefresh(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, service.refreshed, "service should not be called")
		})
	}
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	synced := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := &fakeSyncService{
		status:      syncer.StatusDecoding,
		lastRefresh: map[string]time.Time{"ethereum:" + strings.ToLower(testAddress): synced},
	}
	handler := NewSyncHandler(service, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	handler.GetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "decoding", resp.Status)
	assert.Len(t, resp.LastRefresh, 1)
}

func TestAddTransaction(t *testing.T) {
	t.Parallel()

	service := &fakeSyncService{}
	handler := NewSyncHandler(service, testLogger())

	body := `{"evm_chain":"optimism","tx_hash":"` + testTxHash + `","associated_address":"` + testAddress + `"}`
	req := httptest.NewRequest(http.MethodPut, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.AddTransaction(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "optimism", service.addedChain)
	assert.Equal(t, testTxHash, service.addedHash)

	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp["added"])
}

func TestAddTransactionRejectsShortHash(t *testing.T) {
	t.Parallel()

	service := &fakeSyncService{}
	handler := NewSyncHandler(service, testLogger())

	body := `{"evm_chain":"optimism","tx_hash":"0x1234","associated_address":"` + testAddress + `"}`
	req := httptest.NewRequest(http.MethodPut, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.AddTransaction(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, service.addedChain, "service should not be called")
}

func TestAddTransactionCancelledTask(t *testing.T) {
	t.Parallel()

	service := &fakeSyncService{addErr: task.ErrTaskCancelled}
	handler := NewSyncHandler(service, testLogger())

	body := `{"evm_chain":"optimism","tx_hash":"` + testTxHash + `","associated_address":"` + testAddress + `"}`
	req := httptest.NewRequest(http.MethodPut, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.AddTransaction(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRedecodeTransactions(t *testing.T) {
	t.Parallel()

	service := &fakeSyncService{}
	handler := NewSyncHandler(service, testLogger())

	body := `{"evm_chain":"ethereum","tx_hashes":["` + testTxHash + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/redecode", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RedecodeTransactions(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ethereum", service.redecodedChain)
	assert.Equal(t, []string{testTxHash}, service.redecodedTxs)
}
