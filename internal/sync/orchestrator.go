package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/events"
	"github.com/chainfolio/txtracker/internal/notify"
	"github.com/chainfolio/txtracker/internal/platform/backend"
	"github.com/chainfolio/txtracker/internal/redact"
	"github.com/chainfolio/txtracker/internal/task"
)

// Sentinel errors for refresh requests.
var (
	// ErrRefreshInProgress indicates a refresh was requested while one is
	// already running.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrNoSyncableAccounts indicates none of the requested accounts are on
	// a chain that supports transaction syncing.
	ErrNoSyncableAccounts = errors.New("no syncable accounts")
)

// BackendClient is the slice of the backend API the orchestrator drives.
type BackendClient interface {
	QueryTransactions(ctx context.Context, accounts []domain.Account) (backend.TaskID, error)
	DecodePendingTransactions(ctx context.Context, chain string, addresses []string) (backend.TaskID, error)
	RedecodeTransactions(ctx context.Context, chain string, txHashes []string) (backend.TaskID, error)
	AddTransactionByHash(ctx context.Context, chain, txHash, associatedAddress string) (backend.TaskID, error)
	QueryOnlineEvents(ctx context.Context, queryType backend.OnlineEventType) (backend.TaskID, error)
}

// ChainRegistry answers which chains can be synced.
type ChainRegistry interface {
	SupportsTransactions(name string) bool
}

// Config holds orchestrator tuning knobs.
type Config struct {
	// ChunkSize is the account group size for the chunked scheduler.
	ChunkSize int

	// QueryOnlineEvents gates the three online event queries.
	QueryOnlineEvents bool
}

// Orchestrator is the top-level entry point of the refresh pipeline.
type Orchestrator struct {
	client  BackendClient
	awaiter *task.Awaiter
	chains  ChainRegistry
	queue   *RedecodeQueue
	emitter events.EventEmitter
	logger  *slog.Logger
	cfg     Config

	mu          sync.Mutex
	refreshing  bool
	status      Status
	lastRefresh map[string]time.Time
}

// NewOrchestrator wires the refresh pipeline together.
func NewOrchestrator(
	client BackendClient,
	awaiter *task.Awaiter,
	chains ChainRegistry,
	queue *RedecodeQueue,
	emitter events.EventEmitter,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Orchestrator")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4
	}

	return &Orchestrator{
		client:      client,
		awaiter:     awaiter,
		chains:      chains,
		queue:       queue,
		emitter:     emitter,
		logger:      logger.With(slog.String("component", "sync_orchestrator")),
		cfg:         cfg,
		status:      StatusIdle,
		lastRefresh: make(map[string]time.Time),
	}
}

// Refresh runs the full pipeline for the given accounts: transaction sync
// per account through the chunked scheduler, the online event queries when
// enabled, then decoding of pending transactions through the redecode
// queue. Individual account failures become notifications, not errors; the
// returned error covers refusal to start only.
func (o *Orchestrator) Refresh(ctx context.Context, accounts []domain.Account) error {
	syncable := o.filterSyncable(accounts)
	if len(syncable) == 0 {
		return ErrNoSyncableAccounts
	}
	if err := o.claimRefresh(); err != nil {
		return err
	}

	o.run(ctx, syncable)
	return nil
}

// StartRefresh is the non-blocking variant of Refresh: it claims the
// refresh slot synchronously and runs the pipeline in the background,
// detached from the caller's cancellation. The returned error covers
// refusal to start only.
func (o *Orchestrator) StartRefresh(ctx context.Context, accounts []domain.Account) error {
	syncable := o.filterSyncable(accounts)
	if len(syncable) == 0 {
		return ErrNoSyncableAccounts
	}
	if err := o.claimRefresh(); err != nil {
		return err
	}

	go o.run(context.WithoutCancel(ctx), syncable)
	return nil
}

// claimRefresh marks the pipeline as running, rejecting overlap.
func (o *Orchestrator) claimRefresh() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.refreshing {
		return ErrRefreshInProgress
	}
	o.refreshing = true
	return nil
}

// run executes the pipeline stages. The refresh slot must already be
// claimed; run releases it on exit.
func (o *Orchestrator) run(ctx context.Context, syncable []domain.Account) {
	defer func() {
		o.mu.Lock()
		o.refreshing = false
		o.mu.Unlock()
		o.setStatus(ctx, StatusIdle)
	}()

	o.logger.Info("refresh started",
		"account_count", len(syncable),
		"chunk_size", o.cfg.ChunkSize)

	o.setStatus(ctx, StatusQueryingTransactions)
	failures := runChunked(ctx, syncable, o.cfg.ChunkSize, o.syncAccount)
	for _, failure := range failures {
		o.notifyError(ctx,
			fmt.Sprintf("Transaction sync failed on %s", failure.Account.Chain),
			fmt.Sprintf("syncing %s: %v", redact.Address(failure.Account.Address), failure.Err))
	}

	if o.cfg.QueryOnlineEvents {
		o.setStatus(ctx, StatusQueryingOnlineEvents)
		o.queryOnlineEvents(ctx)
	}

	o.setStatus(ctx, StatusDecoding)
	o.decodeAccounts(ctx, syncable)

	o.logger.Info("refresh finished",
		"account_count", len(syncable),
		"failed_accounts", len(failures))
}

// RedecodeByHashes re-decodes specific transactions on one chain. The work
// is serialized per chain through the redecode queue.
func (o *Orchestrator) RedecodeByHashes(ctx context.Context, chain string, txHashes []string) error {
	if !o.chains.SupportsTransactions(chain) {
		return fmt.Errorf("%w: chain %q does not support transactions", ErrNoSyncableAccounts, chain)
	}

	return o.queue.Run(ctx, "redecode:"+chain, func(ctx context.Context) error {
		taskID, err := o.client.RedecodeTransactions(ctx, chain, txHashes)
		if err != nil {
			return fmt.Errorf("failed to start redecode on %s: %w", chain, err)
		}
		if _, err := o.awaiter.Await(ctx, taskID); err != nil {
			return fmt.Errorf("redecode on %s: %w", chain, err)
		}
		return nil
	})
}

// AddTransactionByHash fetches and decodes one transaction by hash,
// blocking until the backend task finishes.
func (o *Orchestrator) AddTransactionByHash(
	ctx context.Context,
	chain, txHash, associatedAddress string,
) error {
	if !o.chains.SupportsTransactions(chain) {
		return fmt.Errorf("%w: chain %q does not support transactions", ErrNoSyncableAccounts, chain)
	}

	taskID, err := o.client.AddTransactionByHash(ctx, chain, txHash, associatedAddress)
	if err != nil {
		return err
	}

	added, err := task.AwaitResult[bool](ctx, o.awaiter, taskID)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("backend did not add transaction %s", redact.Address(txHash))
	}
	return nil
}

// Status reports what the pipeline is currently doing.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// LastRefresh returns a copy of the per-account last successful sync times,
// keyed by domain.Account.Key.
func (o *Orchestrator) LastRefresh() map[string]time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]time.Time, len(o.lastRefresh))
	for key, ts := range o.lastRefresh {
		out[key] = ts
	}
	return out
}

// filterSyncable drops invalid accounts and accounts on chains without
// transaction support.
func (o *Orchestrator) filterSyncable(accounts []domain.Account) []domain.Account {
	var syncable []domain.Account
	for _, account := range accounts {
		if err := account.Validate(); err != nil {
			o.logger.Warn("skipping invalid account",
				"address", redact.Address(account.Address),
				"chain", account.Chain,
				"error", err)
			continue
		}
		if !o.chains.SupportsTransactions(account.Chain) {
			o.logger.Debug("skipping account on unsupported chain",
				"address", redact.Address(account.Address),
				"chain", account.Chain)
			continue
		}
		syncable = append(syncable, account)
	}
	return syncable
}

// syncAccount queries and awaits the transaction sync task of one account.
func (o *Orchestrator) syncAccount(ctx context.Context, account domain.Account) error {
	taskID, err := o.client.QueryTransactions(ctx, []domain.Account{account})
	if err != nil {
		return fmt.Errorf("failed to start transaction query: %w", err)
	}

	if _, err := o.awaiter.Await(ctx, taskID); err != nil {
		return err
	}

	o.mu.Lock()
	o.lastRefresh[account.Key()] = time.Now()
	o.mu.Unlock()
	return nil
}

// queryOnlineEvents runs the three online event queries in parallel.
// Failures are forwarded to the notification sink.
func (o *Orchestrator) queryOnlineEvents(ctx context.Context) {
	var g errgroup.Group
	for _, queryType := range backend.AllOnlineEventTypes() {
		queryType := queryType
		g.Go(func() error {
			taskID, err := o.client.QueryOnlineEvents(ctx, queryType)
			if err == nil {
				_, err = o.awaiter.Await(ctx, taskID)
			}
			if err != nil {
				o.notifyError(ctx,
					fmt.Sprintf("Failed to query %s events", queryType),
					err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()
}

// decodeAccounts pushes every account through the redecode queue so pending
// transactions get decoded. Same-key work is deduplicated by the queue.
func (o *Orchestrator) decodeAccounts(ctx context.Context, accounts []domain.Account) {
	var g errgroup.Group
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			err := o.queue.Run(ctx, account.Key(), func(ctx context.Context) error {
				taskID, err := o.client.DecodePendingTransactions(
					ctx, account.Chain, []string{account.Address})
				if err != nil {
					return fmt.Errorf("failed to start decoding: %w", err)
				}
				_, err = o.awaiter.Await(ctx, taskID)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				o.notifyError(ctx,
					fmt.Sprintf("Decoding failed on %s", account.Chain),
					fmt.Sprintf("decoding events of %s: %v", redact.Address(account.Address), err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// setStatus records and broadcasts a pipeline status transition.
func (o *Orchestrator) setStatus(ctx context.Context, status Status) {
	o.mu.Lock()
	if o.status == status {
		o.mu.Unlock()
		return
	}
	o.status = status
	o.mu.Unlock()

	event, err := events.NewEvent(events.TypeStatusChanged, StatusPayload{Status: status})
	if err != nil {
		o.logger.Error("failed to build status event", "error", err)
		return
	}
	if err := o.emitter.EmitEvent(ctx, event); err != nil {
		o.logger.Warn("status event emission failed", "error", err, "status", status)
	}
}

// notifyError forwards an error to the notification side channel.
func (o *Orchestrator) notifyError(ctx context.Context, title, message string) {
	event, err := events.NewEvent(events.TypeNotification, notify.Payload{
		Title:    title,
		Message:  message,
		Severity: notify.SeverityError,
	})
	if err != nil {
		o.logger.Error("failed to build notification event", "error", err)
		return
	}
	if err := o.emitter.EmitEvent(ctx, event); err != nil {
		o.logger.Warn("notification emission failed", "error", err, "title", title)
	}
}
