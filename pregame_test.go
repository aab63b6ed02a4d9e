package predictions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPredictor(t *testing.T, league string, store *MemoryStore) *PreGamePredictor {
	t.Helper()
	cfg, err := ConfigFor(league)
	require.NoError(t, err)
	predictor, err := NewPreGamePredictor(cfg, store, store.Pitchers(), store, store)
	require.NoError(t, err)
	predictor.now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return predictor
}

func scheduledGame(league, id string) *GameRecord {
	return &GameRecord{
		ID:         id,
		League:     league,
		HomeTeamID: "home-1",
		AwayTeamID: "away-1",
		Season:     2025,
		Week:       10,
		Status:     StatusScheduled,
	}
}

func TestPreGamePredictor_Predict(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nfl", store)
	ctx := context.Background()

	require.NoError(t, store.SetRating(ctx, "nfl", "home-1", 1600))
	require.NoError(t, store.SetRating(ctx, "nfl", "away-1", 1500))

	rec, err := predictor.Predict(ctx, scheduledGame("nfl", "game-1"))
	require.NoError(t, err)
	require.NotNil(t, rec)

	// 100 Elo gap plus 48 home advantage at 25 points per Elo.
	assert.InDelta(t, 5.9, rec.Spread, 0.01)
	assert.Equal(t, 1600.0, rec.HomeElo)
	assert.Equal(t, 1500.0, rec.AwayElo)
	assert.Greater(t, rec.WinProbability, 0.5)
	assert.Equal(t, 44.5, rec.Total) // fixed model, no metrics
	assert.Equal(t, 75.0, rec.Confidence)

	// The record was persisted.
	stored, err := store.GetByGame(ctx, "game-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.Spread, stored.Spread)
}

func TestPreGamePredictor_SkipsFinishedAndIncompleteGames(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nfl", store)
	ctx := context.Background()

	tests := []struct {
		name string
		game *GameRecord
	}{
		{name: "nil game", game: nil},
		{name: "already final", game: &GameRecord{ID: "g", League: "nfl",
			HomeTeamID: "h", AwayTeamID: "a", Status: StatusFinal}},
		{name: "canceled", game: &GameRecord{ID: "g", League: "nfl",
			HomeTeamID: "h", AwayTeamID: "a", Status: StatusCanceled}},
		{name: "missing home team", game: &GameRecord{ID: "g", League: "nfl",
			AwayTeamID: "a", Status: StatusScheduled}},
		{name: "missing away team", game: &GameRecord{ID: "g", League: "nfl",
			HomeTeamID: "h", Status: StatusScheduled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := predictor.Predict(ctx, tt.game)
			assert.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestPreGamePredictor_DefaultsWhenUnrated(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nfl", store)
	ctx := context.Background()

	rec, err := predictor.Predict(ctx, scheduledGame("nfl", "game-1"))
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Both sides on the default rating: the spread is pure home advantage
	// and confidence stays at the base score.
	assert.InDelta(t, 48.0/25.0, rec.Spread, 0.05)
	assert.Equal(t, 50.0, rec.Confidence)
}

func TestPreGamePredictor_NeutralSite(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nfl", store)
	ctx := context.Background()

	game := scheduledGame("nfl", "game-1")
	game.NeutralSite = true

	rec, err := predictor.Predict(ctx, game)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 0.0, rec.Spread)
	assert.Equal(t, 0.5, rec.WinProbability)
}

func TestPreGamePredictor_SpreadClamped(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nfl", store)
	ctx := context.Background()

	require.NoError(t, store.SetRating(ctx, "nfl", "home-1", 2400))
	require.NoError(t, store.SetRating(ctx, "nfl", "away-1", 1200))

	rec, err := predictor.Predict(ctx, scheduledGame("nfl", "game-1"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 28.0, rec.Spread)
}

func TestPreGamePredictor_PaceTotal(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nba", store)
	ctx := context.Background()

	store.SetTeamMetrics("nba", "home-1", TeamMetrics{
		OffensiveEfficiency: 116, DefensiveEfficiency: 110, Pace: 100,
	})
	store.SetTeamMetrics("nba", "away-1", TeamMetrics{
		OffensiveEfficiency: 112, DefensiveEfficiency: 114, Pace: 98,
	})
	require.NoError(t, store.SetRating(ctx, "nba", "home-1", 1550))
	require.NoError(t, store.SetRating(ctx, "nba", "away-1", 1500))

	rec, err := predictor.Predict(ctx, scheduledGame("nba", "game-1"))
	require.NoError(t, err)
	require.NotNil(t, rec)

	// homePts = (116+114)/2 = 115, awayPts = (112+110)/2 = 111,
	// pace = 99 -> total = 226 * 0.99 = 223.74
	assert.InDelta(t, 223.7, rec.Total, 0.01)
	assert.Equal(t, 100.0, rec.Confidence)
}

func TestPreGamePredictor_PaceFallsBackWithoutMetrics(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nba", store)
	ctx := context.Background()

	// Metrics only on one side: fall back to the league average.
	store.SetTeamMetrics("nba", "home-1", TeamMetrics{
		OffensiveEfficiency: 116, DefensiveEfficiency: 110, Pace: 100,
	})

	rec, err := predictor.Predict(ctx, scheduledGame("nba", "game-1"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 224.0, rec.Total)
	assert.Equal(t, 62.5, rec.Confidence) // base plus one metrics bonus
}

func TestPreGamePredictor_PitcherBlend(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "mlb", store)
	ctx := context.Background()

	require.NoError(t, store.SetRating(ctx, "mlb", "home-1", 1500))
	require.NoError(t, store.SetRating(ctx, "mlb", "away-1", 1500))

	game := scheduledGame("mlb", "game-1")
	game.NeutralSite = true
	baseline, err := predictor.Predict(ctx, game)
	require.NoError(t, err)
	require.NotNil(t, baseline)
	assert.Equal(t, 0.5, baseline.WinProbability)

	// An ace on the mound shifts the blended rating and the win
	// probability toward the home side.
	require.NoError(t, store.Pitchers().SetRating(ctx, "mlb", "ace", 1650))
	game.HomePitcher = "ace"

	withAce, err := predictor.Predict(ctx, game)
	require.NoError(t, err)
	require.NotNil(t, withAce)
	assert.Greater(t, withAce.WinProbability, baseline.WinProbability)
	// Team ratings in the record stay unblended.
	assert.Equal(t, 1500.0, withAce.HomeElo)
}

func TestPreGamePredictor_UpsertPreservesLiveAndGrades(t *testing.T) {
	store := NewMemoryStore()
	predictor := newTestPredictor(t, "nfl", store)
	ctx := context.Background()

	game := scheduledGame("nfl", "game-1")
	_, err := predictor.Predict(ctx, game)
	require.NoError(t, err)

	// Simulate a live group written by the updater, then re-run the
	// pre-game prediction: the live group must survive.
	require.NoError(t, store.SetLive(ctx, "game-1", LiveGroup{
		Spread: 3.5, WinProbability: 0.6, Total: 41, SecondsRemaining: 1200,
		UpdatedAt: time.Now(),
	}))

	_, err = predictor.Predict(ctx, game)
	require.NoError(t, err)

	stored, err := store.GetByGame(ctx, "game-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Live)
	assert.Equal(t, 3.5, stored.Live.Spread)
}
