package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/sirupsen/logrus"
)

// ErrFreeAgentsUnsupported is returned when the provider cannot list free agents.
var ErrFreeAgentsUnsupported = errors.New("provider does not list free agents")

// SnapshotCache is the shared cache tier in front of Postgres.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, leagueID string, period league.Period) (*league.Snapshot, error)
	SetSnapshot(ctx context.Context, snap *league.Snapshot) error
}

// SnapshotStore persists snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap *league.Snapshot) error
	Latest(ctx context.Context, leagueID string, period league.Period) (*league.Snapshot, error)
}

// SnapshotPublisher announces new snapshots to downstream consumers.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, event interface{}) error
}

// SnapshotEvent is the stream payload for a stored snapshot.
type SnapshotEvent struct {
	SnapshotID  string    `json:"snapshot_id"`
	LeagueID    string    `json:"league_id"`
	Period      string    `json:"period"`
	FetchedAt   time.Time `json:"fetched_at"`
	TeamCount   int       `json:"team_count"`
	PlayerCount int       `json:"player_count"`
}

type snapshotSet map[league.Period]*league.Snapshot

// SnapshotSource serves the latest snapshot per period. Lookups go memory,
// then Redis, then Postgres, then the provider. The in-memory set is
// copy-on-write: readers never see a snapshot being replaced.
type SnapshotSource struct {
	provider league.Provider
	cache    SnapshotCache
	store    SnapshotStore
	pub      SnapshotPublisher
	leagueID string
	season   int
	maxAge   time.Duration

	current atomic.Pointer[snapshotSet]
	writeMu sync.Mutex
	fetchMu sync.Mutex

	weekMu sync.Mutex
	week   int
	weekAt time.Time

	log *logrus.Entry
}

// SourceOption configures optional tiers of a SnapshotSource.
type SourceOption func(*SnapshotSource)

// WithCache adds the Redis tier.
func WithCache(c SnapshotCache) SourceOption {
	return func(s *SnapshotSource) { s.cache = c }
}

// WithStore adds the Postgres tier.
func WithStore(st SnapshotStore) SourceOption {
	return func(s *SnapshotSource) { s.store = st }
}

// WithPublisher publishes every accepted snapshot.
func WithPublisher(p SnapshotPublisher) SourceOption {
	return func(s *SnapshotSource) { s.pub = p }
}

// WithMaxAge makes snapshots older than d trigger a provider fetch on
// lookup. Zero keeps snapshots until a refresh replaces them.
func WithMaxAge(d time.Duration) SourceOption {
	return func(s *SnapshotSource) { s.maxAge = d }
}

// NewSnapshotSource builds a source over the provider.
func NewSnapshotSource(provider league.Provider, leagueID string, season int, opts ...SourceOption) *SnapshotSource {
	s := &SnapshotSource{
		provider: provider,
		leagueID: leagueID,
		season:   season,
		log:      logger.WithComponent("snapshots"),
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := snapshotSet{}
	s.current.Store(&empty)
	return s
}

// LeagueID returns the league served.
func (s *SnapshotSource) LeagueID() string { return s.leagueID }

// Season returns the configured season.
func (s *SnapshotSource) Season() int { return s.season }

// DefaultPeriod is the season total.
func (s *SnapshotSource) DefaultPeriod() league.Period { return league.DefaultPeriod(s.season) }

func (s *SnapshotSource) loaded(period league.Period) *league.Snapshot {
	snap := (*s.current.Load())[period]
	if snap == nil {
		return nil
	}
	if s.maxAge > 0 && time.Since(snap.FetchedAt) > s.maxAge {
		return nil
	}
	return snap
}

// Get returns the latest snapshot for period. The zero period selects
// the season total.
func (s *SnapshotSource) Get(ctx context.Context, period league.Period) (*league.Snapshot, error) {
	if period == (league.Period{}) {
		period = s.DefaultPeriod()
	}
	if snap := s.loaded(period); snap != nil {
		return snap, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	if snap := s.loaded(period); snap != nil {
		return snap, nil
	}

	if snap := s.fromTiers(ctx, period); snap != nil {
		s.swap(snap)
		return snap, nil
	}

	teams, err := s.provider.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching teams: %w", err)
	}
	players, err := s.provider.PlayerStats(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("fetching %s stats: %w", period, err)
	}
	snap := league.NewSnapshot(s.leagueID, s.season, period, teams, players)
	if err := s.Accept(ctx, snap); err != nil {
		s.log.WithError(err).Warn("⚠️  snapshot persisted only in memory")
	}
	return snap, nil
}

func (s *SnapshotSource) fresh(snap *league.Snapshot) bool {
	return snap != nil && (s.maxAge <= 0 || time.Since(snap.FetchedAt) <= s.maxAge)
}

func (s *SnapshotSource) fromTiers(ctx context.Context, period league.Period) *league.Snapshot {
	if s.cache != nil {
		snap, err := s.cache.GetSnapshot(ctx, s.leagueID, period)
		if err != nil {
			s.log.WithError(err).Debug("snapshot cache read failed")
		} else if s.fresh(snap) {
			return snap
		}
	}
	if s.store != nil {
		snap, err := s.store.Latest(ctx, s.leagueID, period)
		if err != nil {
			s.log.WithError(err).Warn("⚠️  snapshot store read failed")
		} else if s.fresh(snap) {
			if s.cache != nil {
				_ = s.cache.SetSnapshot(ctx, snap)
			}
			return snap
		}
	}
	return nil
}

func (s *SnapshotSource) swap(snap *league.Snapshot) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	prev := *s.current.Load()
	next := make(snapshotSet, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[snap.Period] = snap
	s.current.Store(&next)
}

// Accept installs a refreshed snapshot: memory first, then cache, store
// and stream. Only a store failure is returned; the snapshot is served
// from memory either way.
func (s *SnapshotSource) Accept(ctx context.Context, snap *league.Snapshot) error {
	s.swap(snap)

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, snap); err != nil {
			s.log.WithError(err).Warn("⚠️  failed to cache snapshot")
		}
	}

	var storeErr error
	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			storeErr = fmt.Errorf("saving snapshot: %w", err)
		}
	}

	if s.pub != nil {
		event := SnapshotEvent{
			SnapshotID:  snap.ID.String(),
			LeagueID:    snap.LeagueID,
			Period:      snap.Period.String(),
			FetchedAt:   snap.FetchedAt,
			TeamCount:   len(snap.Teams),
			PlayerCount: len(snap.Players),
		}
		if err := s.pub.PublishSnapshot(ctx, event); err != nil {
			s.log.WithError(err).Warn("⚠️  failed to publish snapshot event")
		}
	}

	s.log.WithFields(logrus.Fields{
		"snapshot_id": snap.ID.String(),
		"period":      snap.Period.String(),
		"players":     len(snap.Players),
	}).Info("✓ snapshot installed")
	return storeErr
}

// Teams returns the teams of the default-period snapshot.
func (s *SnapshotSource) Teams(ctx context.Context) ([]league.Team, error) {
	snap, err := s.Get(ctx, s.DefaultPeriod())
	if err != nil {
		return nil, err
	}
	return append([]league.Team(nil), snap.Teams...), nil
}

// CurrentWeek returns the league's current matchup week, cached for a minute.
func (s *SnapshotSource) CurrentWeek(ctx context.Context) (int, error) {
	s.weekMu.Lock()
	defer s.weekMu.Unlock()
	if s.week > 0 && time.Since(s.weekAt) < time.Minute {
		return s.week, nil
	}
	week, err := s.provider.CurrentWeek(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching current week: %w", err)
	}
	s.week, s.weekAt = week, time.Now()
	return week, nil
}

// BoxScore passes through to the provider.
func (s *SnapshotSource) BoxScore(ctx context.Context, week, teamID int) (*league.TeamBoxScore, error) {
	return s.provider.BoxScore(ctx, week, teamID)
}

// FreeAgents lists unrostered players straight from the provider. The zero
// period selects the season total.
func (s *SnapshotSource) FreeAgents(ctx context.Context, period league.Period, position string, limit int) ([]league.PlayerStatLine, error) {
	fa, ok := s.provider.(league.FreeAgentProvider)
	if !ok {
		return nil, ErrFreeAgentsUnsupported
	}
	if period == (league.Period{}) {
		period = s.DefaultPeriod()
	}
	players, err := fa.FreeAgents(ctx, period, position, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching %s free agents: %w", period, err)
	}
	return players, nil
}
