package sync

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/events"
	"github.com/chainfolio/txtracker/internal/notify"
	"github.com/chainfolio/txtracker/internal/platform/backend"
	"github.com/chainfolio/txtracker/internal/task"
)

// fakeBackend spawns tasks that complete on the first status poll.
type fakeBackend struct {
	mu        sync.Mutex
	nextID    backend.TaskID
	outcomes  map[backend.TaskID]*backend.TaskOutcome
	queryErr  error
	decodeErr error

	queriedAccounts [][]domain.Account
	decodedChains   []string
	redecodedChains []string
	onlineQueries   []backend.OnlineEventType
	addedHashes     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{outcomes: make(map[backend.TaskID]*backend.TaskOutcome)}
}

func (f *fakeBackend) spawn(outcome *backend.TaskOutcome) backend.TaskID {
	f.nextID++
	f.outcomes[f.nextID] = outcome
	return f.nextID
}

func okOutcome(result string) *backend.TaskOutcome {
	return &backend.TaskOutcome{Result: json.RawMessage(result)}
}

func (f *fakeBackend) QueryTransactions(
	ctx context.Context,
	accounts []domain.Account,
) (backend.TaskID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	f.queriedAccounts = append(f.queriedAccounts, accounts)
	return f.spawn(okOutcome(`{"entries_found": 1}`)), nil
}

func (f *fakeBackend) DecodePendingTransactions(
	ctx context.Context,
	chain string,
	addresses []string,
) (backend.TaskID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decodeErr != nil {
		return 0, f.decodeErr
	}
	f.decodedChains = append(f.decodedChains, chain)
	return f.spawn(okOutcome(`true`)), nil
}

func (f *fakeBackend) RedecodeTransactions(
	ctx context.Context,
	chain string,
	txHashes []string,
) (backend.TaskID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redecodedChains = append(f.redecodedChains, chain)
	return f.spawn(okOutcome(`true`)), nil
}

func (f *fakeBackend) AddTransactionByHash(
	ctx context.Context,
	chain, txHash, associatedAddress string,
) (backend.TaskID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addedHashes = append(f.addedHashes, txHash)
	return f.spawn(okOutcome(`true`)), nil
}

func (f *fakeBackend) QueryOnlineEvents(
	ctx context.Context,
	queryType backend.OnlineEventType,
) (backend.TaskID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onlineQueries = append(f.onlineQueries, queryType)
	return f.spawn(okOutcome(`true`)), nil
}

func (f *fakeBackend) TaskStatus(
	ctx context.Context,
	id backend.TaskID,
) (*backend.TaskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome, ok := f.outcomes[id]
	if !ok {
		return &backend.TaskResult{Status: backend.TaskStateNotFound}, nil
	}
	return &backend.TaskResult{Status: backend.TaskStateCompleted, Outcome: outcome}, nil
}

// allChains accepts every chain name.
type allChains struct{}

func (allChains) SupportsTransactions(name string) bool { return name != "bitcoin" }

type orchestratorFixture struct {
	backend *fakeBackend
	center  *notify.Center
	orch    *Orchestrator
}

func newFixture(t *testing.T, cfg Config) *orchestratorFixture {
	t.Helper()
	logger := testLogger()
	fake := newFakeBackend()
	emitter := events.NewInMemoryEventEmitter(logger)
	center := notify.NewCenter(50, logger)
	emitter.RegisterHandler(center)

	awaiter := task.NewAwaiter(fake, time.Millisecond, logger)
	queue := NewRedecodeQueue(3, logger)

	return &orchestratorFixture{
		backend: fake,
		center:  center,
		orch:    NewOrchestrator(fake, awaiter, allChains{}, queue, emitter, cfg, logger),
	}
}

func testAccounts() []domain.Account {
	return []domain.Account{
		{Address: "0x0000000000000000000000000000000000000001", Chain: "ethereum"},
		{Address: "0x0000000000000000000000000000000000000002", Chain: "ethereum"},
		{Address: "0x0000000000000000000000000000000000000003", Chain: "optimism"},
	}
}

func TestRefreshHappyPath(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2, QueryOnlineEvents: true})

	err := fx.orch.Refresh(context.Background(), testAccounts())
	require.NoError(t, err)

	fx.backend.mu.Lock()
	defer fx.backend.mu.Unlock()

	// One sync query per account, one decode per account key.
	assert.Len(t, fx.backend.queriedAccounts, 3)
	assert.Len(t, fx.backend.decodedChains, 3)

	// All three online event queries ran.
	assert.ElementsMatch(t, backend.AllOnlineEventTypes(), fx.backend.onlineQueries)

	// Successful runs leave no notifications and record refresh times.
	assert.Empty(t, fx.center.List())
	assert.Len(t, fx.orch.LastRefresh(), 3)
	assert.Equal(t, StatusIdle, fx.orch.Status())
}

func TestRefreshSkipsOnlineEventsWhenDisabled(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2, QueryOnlineEvents: false})

	require.NoError(t, fx.orch.Refresh(context.Background(), testAccounts()))

	fx.backend.mu.Lock()
	defer fx.backend.mu.Unlock()
	assert.Empty(t, fx.backend.onlineQueries)
}

func TestRefreshRejectsConcurrentRuns(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 1})

	started := make(chan struct{})
	release := make(chan struct{})

	// Make the first refresh hang inside the decode stage by pre-claiming
	// the account's queue key.
	blockingQueue := NewRedecodeQueue(1, testLogger())
	fx.orch.queue = blockingQueue
	go func() {
		_ = blockingQueue.Run(context.Background(), "ethereum:0x0000000000000000000000000000000000000001",
			func(ctx context.Context) error {
				close(started)
				<-release
				return nil
			})
	}()
	<-started

	first := make(chan error, 1)
	go func() {
		first <- fx.orch.Refresh(context.Background(), testAccounts()[:1])
	}()

	// Wait until the first refresh is past its guard.
	require.Eventually(t, func() bool {
		return fx.orch.Status() != StatusIdle
	}, time.Second, time.Millisecond)

	err := fx.orch.Refresh(context.Background(), testAccounts())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(release)
	require.NoError(t, <-first)
}

func TestRefreshWithoutSyncableAccounts(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})

	err := fx.orch.Refresh(context.Background(), []domain.Account{
		{Address: "0x0000000000000000000000000000000000000009", Chain: "bitcoin"},
		{Address: "not-an-address", Chain: "ethereum"},
	})

	assert.ErrorIs(t, err, ErrNoSyncableAccounts)
}

func TestRefreshForwardsSyncFailuresToNotifications(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})
	fx.backend.queryErr = errors.New("etherscan down")

	require.NoError(t, fx.orch.Refresh(context.Background(), testAccounts()))

	list := fx.center.List()
	require.Len(t, list, 3, "every failed account becomes a notification")
	assert.Equal(t, notify.SeverityError, list[0].Severity)
	assert.Contains(t, list[0].Title, "Transaction sync failed")
}

func TestRefreshForwardsDecodeFailuresToNotifications(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})
	fx.backend.decodeErr = errors.New("decoder crashed")

	require.NoError(t, fx.orch.Refresh(context.Background(), testAccounts()))

	var decodeFailures int
	for _, n := range fx.center.List() {
		if n.Severity == notify.SeverityError {
			decodeFailures++
		}
	}
	assert.Equal(t, 3, decodeFailures)
}

func TestRedecodeByHashes(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})

	err := fx.orch.RedecodeByHashes(context.Background(), "ethereum", []string{
		"0xf7049668cb7cbb9c00d80092b2dce7ea59984f4c52c83e5c0940535a93f3d5a0",
	})

	require.NoError(t, err)
	fx.backend.mu.Lock()
	defer fx.backend.mu.Unlock()
	assert.Equal(t, []string{"ethereum"}, fx.backend.redecodedChains)
}

func TestRedecodeByHashesRejectsUnsupportedChain(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})

	err := fx.orch.RedecodeByHashes(context.Background(), "bitcoin", []string{"0xabc"})
	assert.ErrorIs(t, err, ErrNoSyncableAccounts)
}

func TestAddTransactionByHash(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})

	err := fx.orch.AddTransactionByHash(
		context.Background(),
		"ethereum",
		"0xf7049668cb7cbb9c00d80092b2dce7ea59984f4c52c83e5c0940535a93f3d5a0",
		"0x0000000000000000000000000000000000000001",
	)

	require.NoError(t, err)
}

func TestStatusTransitionsAreEmitted(t *testing.T) {
	logger := testLogger()
	fake := newFakeBackend()
	emitter := events.NewInMemoryEventEmitter(logger)

	var mu sync.Mutex
	var statuses []Status
	emitter.RegisterHandler(eventHandlerFunc(func(ctx context.Context, event *events.Event) error {
		if event.Type != events.TypeStatusChanged {
			return nil
		}
		var payload StatusPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return err
		}
		mu.Lock()
		statuses = append(statuses, payload.Status)
		mu.Unlock()
		return nil
	}))

	awaiter := task.NewAwaiter(fake, time.Millisecond, logger)
	orch := NewOrchestrator(fake, awaiter, allChains{}, NewRedecodeQueue(2, logger), emitter,
		Config{ChunkSize: 2, QueryOnlineEvents: true}, logger)

	require.NoError(t, orch.Refresh(context.Background(), testAccounts()[:1]))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{
		StatusQueryingTransactions,
		StatusQueryingOnlineEvents,
		StatusDecoding,
		StatusIdle,
	}, statuses)
}

func TestStartRefreshRunsInBackground(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})

	require.NoError(t, fx.orch.StartRefresh(context.Background(), testAccounts()))

	require.Eventually(t, func() bool {
		return len(fx.orch.LastRefresh()) == 3 && fx.orch.Status() == StatusIdle
	}, time.Second, time.Millisecond)
}

func TestStartRefreshSurvivesCallerCancel(t *testing.T) {
	fx := newFixture(t, Config{ChunkSize: 2})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, fx.orch.StartRefresh(ctx, testAccounts()))
	cancel()

	require.Eventually(t, func() bool {
		return len(fx.orch.LastRefresh()) == 3
	}, time.Second, time.Millisecond)
	assert.Empty(t, fx.center.List())
}

// eventHandlerFunc adapts a function to events.EventHandler.
type eventHandlerFunc func(ctx context.Context, event *events.Event) error

func (f eventHandlerFunc) HandleEvent(ctx context.Context, event *events.Event) error {
	return f(ctx, event)
}
