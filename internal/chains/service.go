package chains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/chainfolio/txtracker/internal/domain"
)

// ErrUnknownChain indicates a chain name or id the backend does not know.
var ErrUnknownChain = errors.New("unknown chain")

// SupportedChainsFetcher retrieves chain metadata from the backend.
type SupportedChainsFetcher interface {
	SupportedChains(ctx context.Context) ([]domain.ChainInfo, error)
}

// defaultChains is the fallback lookup table used until the backend answers.
// It mirrors the chains the backend ships support for.
var defaultChains = []domain.ChainInfo{
	{ID: 1, Name: "ethereum", Label: "Ethereum", EvmLike: true, HasTransactions: true},
	{ID: 10, Name: "optimism", Label: "Optimism", EvmLike: true, HasTransactions: true},
	{ID: 100, Name: "gnosis", Label: "Gnosis", EvmLike: true, HasTransactions: true},
	{ID: 137, Name: "polygon_pos", Label: "Polygon PoS", EvmLike: true, HasTransactions: true},
	{ID: 8453, Name: "base", Label: "Base", EvmLike: true, HasTransactions: true},
	{ID: 42161, Name: "arbitrum_one", Label: "Arbitrum One", EvmLike: true, HasTransactions: true},
	{ID: 534352, Name: "scroll", Label: "Scroll", EvmLike: true, HasTransactions: true},
}

// Service is a read-only chain metadata lookup.
type Service struct {
	fetcher SupportedChainsFetcher
	logger  *slog.Logger

	mu     sync.RWMutex
	byName map[string]domain.ChainInfo
	byID   map[uint64]domain.ChainInfo
	loaded bool
}

// NewService creates a chain metadata service seeded with the static table.
func NewService(fetcher SupportedChainsFetcher, logger *slog.Logger) *Service {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for chains Service")
	}

	s := &Service{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "chains_service")),
	}
	s.index(defaultChains)
	return s
}

// index replaces the lookup maps. Callers must not hold s.mu.
func (s *Service) index(infos []domain.ChainInfo) {
	byName := make(map[string]domain.ChainInfo, len(infos))
	byID := make(map[uint64]domain.ChainInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
		if info.ID != 0 {
			byID[info.ID] = info
		}
	}

	s.mu.Lock()
	s.byName = byName
	s.byID = byID
	s.mu.Unlock()
}

// Load fetches chain metadata from the backend, replacing the static table.
// Subsequent calls are no-ops once a load succeeded.
func (s *Service) Load(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	infos, err := s.fetcher.SupportedChains(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch supported chains: %w", err)
	}

	s.index(infos)
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("chain metadata loaded", "chain_count", len(infos))
	return nil
}

// ByName resolves a backend chain name.
func (s *Service) ByName(name string) (domain.ChainInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.byName[name]
	if !ok {
		return domain.ChainInfo{}, fmt.Errorf("%w: %q", ErrUnknownChain, name)
	}
	return info, nil
}

// ByID resolves a numeric EVM chain id to its metadata.
func (s *Service) ByID(id uint64) (domain.ChainInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.byID[id]
	if !ok {
		return domain.ChainInfo{}, fmt.Errorf("%w: id %d", ErrUnknownChain, id)
	}
	return info, nil
}

// SupportsTransactions reports whether the named chain can be synced.
// Unknown chains report false.
func (s *Service) SupportsTransactions(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.byName[name]
	return ok && info.HasTransactions
}

// TransactionChains lists the chains that support transaction syncing,
// ordered by chain id for stable output.
func (s *Service) TransactionChains() []domain.ChainInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []domain.ChainInfo
	for _, info := range s.byName {
		if info.HasTransactions {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// All lists every known chain ordered by chain id.
func (s *Service) All() []domain.ChainInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.ChainInfo, 0, len(s.byName))
	for _, info := range s.byName {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
