package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chainfolio/txtracker/internal/config"
	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/redact"
)

// Client talks to the portfolio backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger *slog.Logger) *Client {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for backend Client")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(slog.String("component", "backend_client")),
	}
}

// envelope is the wrapper every backend response uses.
type envelope struct {
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

// do executes one backend request and decodes the envelope result into out.
// A non-2xx response or a non-empty envelope message becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request %s %s failed: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	var env envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode backend response: %w", decodeErr)
	}

	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if len(env.Result) == 0 || string(env.Result) == "null" {
		if env.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		}
		return fmt.Errorf("%w for %s %s", ErrEmptyResult, method, path)
	}

	if env.Message != "" {
		// Partial success; the result is still usable.
		c.logger.Warn("backend returned result with warning",
			"method", method,
			"path", path,
			"message", redact.String(env.Message))
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode backend result: %w", err)
		}
	}
	return nil
}

// spawnTask runs an async endpoint and returns the spawned task id.
func (c *Client) spawnTask(ctx context.Context, method, path string, body any) (TaskID, error) {
	var result struct {
		TaskID TaskID `json:"task_id"`
	}
	if err := c.do(ctx, method, path, body, &result); err != nil {
		return 0, err
	}
	c.logger.Debug("backend task spawned",
		"method", method,
		"path", path,
		"task_id", result.TaskID)
	return result.TaskID, nil
}

// QueryTransactions asks the backend to sync on-chain transactions for the
// given accounts. Returns the id of the spawned task.
func (c *Client) QueryTransactions(ctx context.Context, accounts []domain.Account) (TaskID, error) {
	payload := struct {
		AsyncQuery bool             `json:"async_query"`
		Accounts   []domain.Account `json:"accounts"`
	}{
		AsyncQuery: true,
		Accounts:   accounts,
	}
	return c.spawnTask(ctx, http.MethodPost, "/blockchains/evm/transactions", payload)
}

// DecodePendingTransactions asks the backend to decode every not-yet-decoded
// transaction of the given addresses on one chain.
func (c *Client) DecodePendingTransactions(
	ctx context.Context,
	chain string,
	addresses []string,
) (TaskID, error) {
	payload := struct {
		AsyncQuery bool `json:"async_query"`
		Data       []struct {
			EvmChain  string   `json:"evm_chain"`
			Addresses []string `json:"addresses,omitempty"`
		} `json:"data"`
	}{AsyncQuery: true}
	payload.Data = append(payload.Data, struct {
		EvmChain  string   `json:"evm_chain"`
		Addresses []string `json:"addresses,omitempty"`
	}{EvmChain: chain, Addresses: addresses})

	return c.spawnTask(ctx, http.MethodPost, "/blockchains/evm/pending_transactions/decode", payload)
}

// RedecodeTransactions asks the backend to re-run decoding for specific
// transaction hashes, discarding previously decoded events.
func (c *Client) RedecodeTransactions(
	ctx context.Context,
	chain string,
	txHashes []string,
) (TaskID, error) {
	payload := struct {
		AsyncQuery bool     `json:"async_query"`
		EvmChain   string   `json:"evm_chain"`
		TxHashes   []string `json:"tx_hashes,omitempty"`
	}{
		AsyncQuery: true,
		EvmChain:   chain,
		TxHashes:   txHashes,
	}
	return c.spawnTask(ctx, http.MethodPut, "/blockchains/evm/transactions/decode", payload)
}

// AddTransactionByHash asks the backend to fetch and decode a single
// transaction that its indexers did not associate with a tracked account.
func (c *Client) AddTransactionByHash(
	ctx context.Context,
	chain, txHash, associatedAddress string,
) (TaskID, error) {
	payload := struct {
		AsyncQuery        bool   `json:"async_query"`
		EvmChain          string `json:"evm_chain"`
		TxHash            string `json:"tx_hash"`
		AssociatedAddress string `json:"associated_address"`
	}{
		AsyncQuery:        true,
		EvmChain:          chain,
		TxHash:            txHash,
		AssociatedAddress: associatedAddress,
	}
	return c.spawnTask(ctx, http.MethodPut, "/blockchains/evm/transactions", payload)
}

// QueryOnlineEvents asks the backend to pull one category of off-chain
// events (withdrawals, block productions, exchange history).
func (c *Client) QueryOnlineEvents(ctx context.Context, queryType OnlineEventType) (TaskID, error) {
	payload := struct {
		AsyncQuery bool            `json:"async_query"`
		QueryType  OnlineEventType `json:"query_type"`
	}{
		AsyncQuery: true,
		QueryType:  queryType,
	}
	return c.spawnTask(ctx, http.MethodPost, "/history/events/query", payload)
}

// TaskStatus reports the current state of a backend task. Unknown tasks are
// reported as TaskStateNotFound, not as an error.
func (c *Client) TaskStatus(ctx context.Context, id TaskID) (*TaskResult, error) {
	var result TaskResult
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, &result)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return &TaskResult{Status: TaskStateNotFound}, nil
		}
		return nil, err
	}
	return &result, nil
}

// SupportedChains lists the chains the backend can sync transactions for.
func (c *Client) SupportedChains(ctx context.Context) ([]domain.ChainInfo, error) {
	var result []domain.ChainInfo
	if err := c.do(ctx, http.MethodGet, "/blockchains/supported", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// HistoryEvents runs a synchronous filtered query over decoded events.
func (c *Client) HistoryEvents(
	ctx context.Context,
	filter EventFilter,
) (*domain.HistoryEventPage, error) {
	var result domain.HistoryEventPage
	if err := c.do(ctx, http.MethodPost, "/history/events", filter, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
