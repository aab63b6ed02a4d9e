package predictions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// The engines never touch the database directly; they read and write plain
// records through these narrow interfaces. The store package provides the
// Postgres implementations, and MemoryStore below backs tests and local runs.

// TeamStore holds the single current Elo rating per team. CurrentRating
// reports ok=false when the team has no recorded rating yet, so callers
// can substitute the sport default.
type TeamStore interface {
	CurrentRating(ctx context.Context, league, teamID string) (rating float64, ok bool, err error)
	SetRating(ctx context.Context, league, teamID string, rating float64) error
}

// PitcherStore mirrors TeamStore for starting pitchers (mlb only).
type PitcherStore interface {
	CurrentRating(ctx context.Context, league, pitcherID string) (rating float64, ok bool, err error)
	SetRating(ctx context.Context, league, pitcherID string, rating float64) error
}

// GameStore reads game rows written by ingestion.
type GameStore interface {
	Get(ctx context.Context, league, gameID string) (*GameRecord, error)
	Put(ctx context.Context, g *GameRecord) error
}

// MetricsStore reads per-team efficiency metrics. A nil record (no error)
// means no metrics are available for that team.
type MetricsStore interface {
	TeamMetrics(ctx context.Context, league, teamID string) (*TeamMetrics, error)
}

// PredictionStore persists predictions keyed by game id. UpsertPreGame
// writes only the pre-game group, leaving live and grading fields of an
// existing row alone. SetLive and ClearLive write the live group as a
// whole, and SetGrades writes the grading group once.
type PredictionStore interface {
	GetByGame(ctx context.Context, gameID string) (*PredictionRecord, error)
	UpsertPreGame(ctx context.Context, p *PredictionRecord) error
	SetLive(ctx context.Context, gameID string, live LiveGroup) error
	ClearLive(ctx context.Context, gameID string) error
	SetGrades(ctx context.Context, gameID string, grades GradeGroup) error
	ListUngraded(ctx context.Context, league string, season int) ([]*PredictionRecord, error)
}

// EloHistoryStore appends immutable ledger rows.
type EloHistoryStore interface {
	Append(ctx context.Context, entry EloHistoryEntry) error
	ListByTeam(ctx context.Context, league, teamID string) ([]EloHistoryEntry, error)
}

// MemoryStore is an in-memory implementation of every store interface.
type MemoryStore struct {
	mu       sync.RWMutex
	ratings  map[string]float64
	pitchers map[string]float64
	games    map[string]*GameRecord
	metrics  map[string]*TeamMetrics
	preds    map[string]*PredictionRecord
	history  []EloHistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ratings:  make(map[string]float64),
		pitchers: make(map[string]float64),
		games:    make(map[string]*GameRecord),
		metrics:  make(map[string]*TeamMetrics),
		preds:    make(map[string]*PredictionRecord),
	}
}

func key(league, id string) string { return league + "/" + id }

func (m *MemoryStore) CurrentRating(_ context.Context, league, teamID string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.ratings[key(league, teamID)]
	return r, ok, nil
}

func (m *MemoryStore) SetRating(_ context.Context, league, teamID string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[key(league, teamID)] = rating
	return nil
}

// Pitchers returns a PitcherStore view backed by the same store.
func (m *MemoryStore) Pitchers() PitcherStore { return (*memoryPitchers)(m) }

type memoryPitchers MemoryStore

func (m *memoryPitchers) CurrentRating(_ context.Context, league, pitcherID string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.pitchers[key(league, pitcherID)]
	return r, ok, nil
}

func (m *memoryPitchers) SetRating(_ context.Context, league, pitcherID string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pitchers[key(league, pitcherID)] = rating
	return nil
}

func (m *MemoryStore) Get(_ context.Context, league, gameID string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[key(league, gameID)]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, g *GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.games[key(g.League, g.ID)] = &cp
	return nil
}

func (m *MemoryStore) TeamMetrics(_ context.Context, league, teamID string) (*TeamMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tm, ok := m.metrics[key(league, teamID)]
	if !ok {
		return nil, nil
	}
	cp := *tm
	return &cp, nil
}

// SetTeamMetrics seeds metrics, used by tests and local fixtures.
func (m *MemoryStore) SetTeamMetrics(league, teamID string, tm TeamMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[key(league, teamID)] = &tm
}

func (m *MemoryStore) GetByGame(_ context.Context, gameID string) (*PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.preds[gameID]
	if !ok {
		return nil, nil
	}
	return clonePrediction(p), nil
}

func (m *MemoryStore) UpsertPreGame(_ context.Context, p *PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.preds[p.GameID]
	if !ok {
		m.preds[p.GameID] = clonePrediction(p)
		return nil
	}
	existing.League = p.League
	existing.Season = p.Season
	existing.HomeElo = p.HomeElo
	existing.AwayElo = p.AwayElo
	existing.Spread = p.Spread
	existing.Total = p.Total
	existing.WinProbability = p.WinProbability
	existing.Confidence = p.Confidence
	existing.UpdatedAt = p.UpdatedAt
	return nil
}

func (m *MemoryStore) SetLive(_ context.Context, gameID string, live LiveGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.preds[gameID]; ok {
		lg := live
		p.Live = &lg
		p.UpdatedAt = live.UpdatedAt
	}
	return nil
}

func (m *MemoryStore) ClearLive(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.preds[gameID]; ok {
		p.Live = nil
	}
	return nil
}

func (m *MemoryStore) SetGrades(_ context.Context, gameID string, grades GradeGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.preds[gameID]; ok && p.Grades == nil {
		g := grades
		p.Grades = &g
		p.UpdatedAt = grades.GradedAt
	}
	return nil
}

func (m *MemoryStore) ListUngraded(_ context.Context, league string, season int) ([]*PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*PredictionRecord
	for _, p := range m.preds {
		if p.Grades != nil || p.League != league {
			continue
		}
		if season != 0 && p.Season != season {
			continue
		}
		out = append(out, clonePrediction(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (m *MemoryStore) Append(_ context.Context, entry EloHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, entry)
	return nil
}

func (m *MemoryStore) ListByTeam(_ context.Context, league, teamID string) ([]EloHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []EloHistoryEntry
	for _, e := range m.history {
		if e.League == league && e.TeamID == teamID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func clonePrediction(p *PredictionRecord) *PredictionRecord {
	cp := *p
	if p.Live != nil {
		lg := *p.Live
		cp.Live = &lg
	}
	if p.Grades != nil {
		gg := *p.Grades
		cp.Grades = &gg
	}
	return &cp
}

// nowFunc lets engines take an injectable clock for deterministic tests.
type nowFunc func() time.Time
