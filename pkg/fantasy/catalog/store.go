package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pitchsix/crickpick/pkg/fantasy/api"
	"github.com/pitchsix/crickpick/pkg/fantasy/metrics"
)

// Backend is the subset of the API client the store fetches through.
type Backend interface {
	GetMatchPlayers(ctx context.Context, matchID int64) (*api.Roster, error)
	GetXFactors(ctx context.Context) ([]api.XFactorDefinition, error)
	GetScoringMeta(ctx context.Context) (*api.ScoringMeta, error)
}

const catalogKey int64 = -1

// Cache labels reported to the metrics collectors.
const (
	cacheRoster   = "roster"
	cacheXFactors = "xfactors"
	cacheScoring  = "scoring"
)

// Store is a fetch-through TTL cache for the read-mostly reference data a
// prediction screen needs: per-match rosters, the X-Factor catalog, and the
// scoring point table. Entries expire so a long-lived process picks up
// server-side changes without restarts.
type Store struct {
	backend Backend
	metrics *metrics.ClientMetrics

	rosters *expirable.LRU[int64, *api.Roster]
	defs    *expirable.LRU[int64, []api.XFactorDefinition]
	meta    *expirable.LRU[int64, *api.ScoringMeta]
}

// NewStore creates a store caching up to size rosters for ttl. Hits and
// misses are reported per cache through cm; a nil cm disables reporting.
func NewStore(backend Backend, size int, ttl time.Duration, cm *metrics.ClientMetrics) *Store {
	return &Store{
		backend: backend,
		metrics: cm,
		rosters: expirable.NewLRU[int64, *api.Roster](size, nil, ttl),
		defs:    expirable.NewLRU[int64, []api.XFactorDefinition](1, nil, ttl),
		meta:    expirable.NewLRU[int64, *api.ScoringMeta](1, nil, ttl),
	}
}

func (s *Store) hit(cache string) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(cache)
	}
}

func (s *Store) miss(cache string) {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(cache)
	}
}

// Roster returns the cached roster for a match, fetching on miss.
func (s *Store) Roster(ctx context.Context, matchID int64) (*api.Roster, error) {
	if roster, ok := s.rosters.Get(matchID); ok {
		s.hit(cacheRoster)
		return roster, nil
	}
	s.miss(cacheRoster)

	roster, err := s.backend.GetMatchPlayers(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.rosters.Add(matchID, roster)
	return roster, nil
}

// XFactors returns the cached X-Factor definitions, fetching on miss.
func (s *Store) XFactors(ctx context.Context) ([]api.XFactorDefinition, error) {
	if defs, ok := s.defs.Get(catalogKey); ok {
		s.hit(cacheXFactors)
		return defs, nil
	}
	s.miss(cacheXFactors)

	defs, err := s.backend.GetXFactors(ctx)
	if err != nil {
		return nil, err
	}
	s.defs.Add(catalogKey, defs)
	return defs, nil
}

// ScoringMeta returns the cached point table, fetching on miss.
func (s *Store) ScoringMeta(ctx context.Context) (*api.ScoringMeta, error) {
	if meta, ok := s.meta.Get(catalogKey); ok {
		s.hit(cacheScoring)
		return meta, nil
	}
	s.miss(cacheScoring)

	meta, err := s.backend.GetScoringMeta(ctx)
	if err != nil {
		return nil, err
	}
	s.meta.Add(catalogKey, meta)
	return meta, nil
}

// Purge drops every cached entry.
func (s *Store) Purge() {
	s.rosters.Purge()
	s.defs.Purge()
	s.meta.Purge()
}
