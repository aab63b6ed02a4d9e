package predictions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLiveUpdater(t *testing.T, league string, store *MemoryStore) *LivePredictionUpdater {
	t.Helper()
	cfg, err := ConfigFor(league)
	require.NoError(t, err)
	updater, err := NewLivePredictionUpdater(cfg, store)
	require.NoError(t, err)
	updater.now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return updater
}

func seedPrediction(t *testing.T, store *MemoryStore, gameID, league string, spread, total, winProb float64) {
	t.Helper()
	err := store.UpsertPreGame(context.Background(), &PredictionRecord{
		GameID:         gameID,
		League:         league,
		Season:         2025,
		Spread:         spread,
		Total:          total,
		WinProbability: winProb,
	})
	require.NoError(t, err)
}

func liveGame(league, id string, period int, clock string, homeScore, awayScore int) *GameRecord {
	return &GameRecord{
		ID:         id,
		League:     league,
		HomeTeamID: "home-1",
		AwayTeamID: "away-1",
		Status:     StatusInProgress,
		Period:     period,
		Clock:      clock,
		HomeScore:  intPtr(homeScore),
		AwayScore:  intPtr(awayScore),
	}
}

func TestLiveUpdater_NoPredictionNoUpdate(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)

	update, err := updater.Update(context.Background(), liveGame("nfl", "game-1", 2, "5:00", 14, 7))
	require.NoError(t, err)
	assert.Nil(t, update)
}

func TestLiveUpdater_SkipsAndClearsWhenNotLive(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 3.5, 44.5, 0.62)
	require.NoError(t, store.SetLive(ctx, "game-1", LiveGroup{
		Spread: 6.0, WinProbability: 0.8, Total: 47, SecondsRemaining: 120,
		UpdatedAt: time.Now(),
	}))

	game := liveGame("nfl", "game-1", 4, "0:00", 27, 20)
	game.Status = StatusFinal

	update, err := updater.Update(ctx, game)
	require.NoError(t, err)
	assert.Nil(t, update)

	stored, err := store.GetByGame(ctx, "game-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.Live, "live group should be cleared once the game leaves the live state")
}

func TestLiveUpdater_ClearLiveIdempotent(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	// Clearing with no prediction row, then twice in a row, never errors.
	assert.NoError(t, updater.ClearLive(ctx, "missing-game"))

	seedPrediction(t, store, "game-1", "nfl", 3.5, 44.5, 0.62)
	assert.NoError(t, updater.ClearLive(ctx, "game-1"))
	assert.NoError(t, updater.ClearLive(ctx, "game-1"))
}

func TestLiveUpdater_LateLeadDominates(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	// The home side was the pre-game underdog but leads by 10 with under
	// two minutes left: the scoreboard must dominate the prior.
	seedPrediction(t, store, "game-1", "nfl", -3.0, 44.5, 0.40)

	update, err := updater.Update(ctx, liveGame("nfl", "game-1", 4, "1:30", 27, 17))
	require.NoError(t, err)
	require.NotNil(t, update)

	assert.Greater(t, update.WinProbability, 0.9)
	assert.Greater(t, update.Spread, 8.0)
	assert.Equal(t, 90, update.SecondsRemaining)
}

func TestLiveUpdater_LateDeficitDominates(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 6.5, 44.5, 0.70)

	update, err := updater.Update(ctx, liveGame("nfl", "game-1", 4, "1:30", 17, 27))
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Less(t, update.WinProbability, 0.1)
	assert.Less(t, update.Spread, -8.0)
}

func TestLiveUpdater_HalftimeBlendsPriorAndMargin(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 7.0, 44.5, 0.70)

	game := liveGame("nfl", "game-1", 2, "15:00", 10, 7)
	game.Status = StatusHalftime

	update, err := updater.Update(ctx, game)
	require.NoError(t, err)
	require.NotNil(t, update)

	// Margin 3, prior 7, half the game gone: the live spread sits strictly
	// between the two.
	assert.Greater(t, update.Spread, 3.0)
	assert.Less(t, update.Spread, 7.0)
	assert.Equal(t, 1800, update.SecondsRemaining)
}

func TestLiveUpdater_EarlyGameStaysNearPrior(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 3.5, 44.5, 0.62)

	// First quarter, one possession in: essentially no elapsed time, so
	// the live numbers hug the pre-game ones.
	update, err := updater.Update(ctx, liveGame("nfl", "game-1", 1, "13:30", 0, 0))
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.InDelta(t, 3.5, update.Spread, 0.5)
	assert.InDelta(t, 0.62, update.WinProbability, 0.05)
}

func TestLiveUpdater_WinProbabilityBounds(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 0, 44.5, 0.5)

	// A 50-point lead with seconds left pushes the logistic to its limit;
	// the result must stay inside the open interval.
	update, err := updater.Update(ctx, liveGame("nfl", "game-1", 4, "0:10", 56, 6))
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.LessOrEqual(t, update.WinProbability, 0.999)
	assert.GreaterOrEqual(t, update.WinProbability, 0.001)

	update, err = updater.Update(ctx, liveGame("nfl", "game-1", 4, "0:10", 6, 56))
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.GreaterOrEqual(t, update.WinProbability, 0.001)
}

func TestLiveUpdater_TotalProjection(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 0, 44.5, 0.5)

	t.Run("hot pace raises the total", func(t *testing.T) {
		// 35 combined points at halftime projects well above the prior.
		game := liveGame("nfl", "game-1", 2, "15:00", 21, 14)
		game.Status = StatusHalftime
		update, err := updater.Update(ctx, game)
		require.NoError(t, err)
		require.NotNil(t, update)
		assert.Greater(t, update.Total, 44.5)
	})

	t.Run("never below points already scored", func(t *testing.T) {
		update, err := updater.Update(ctx, liveGame("nfl", "game-1", 4, "2:00", 35, 31))
		require.NoError(t, err)
		require.NotNil(t, update)
		assert.GreaterOrEqual(t, update.Total, 66.0)
	})

	t.Run("capped at the sport ceiling", func(t *testing.T) {
		update, err := updater.Update(ctx, liveGame("nfl", "game-1", 2, "14:00", 49, 35))
		require.NoError(t, err)
		require.NotNil(t, update)
		assert.LessOrEqual(t, update.Total, 84.0) // MaxTotal, already above combined
	})

	t.Run("overtime raises the ceiling", func(t *testing.T) {
		update, err := updater.Update(ctx, liveGame("nfl", "game-1", 5, "5:00", 41, 41))
		require.NoError(t, err)
		require.NotNil(t, update)
		assert.LessOrEqual(t, update.Total, 80.0+14.0)
		assert.GreaterOrEqual(t, update.Total, 82.0)
	})
}

func TestLiveUpdater_OvertimeTiedIsCloseToCoinflip(t *testing.T) {
	store := NewMemoryStore()
	updater := newTestLiveUpdater(t, "nfl", store)
	ctx := context.Background()

	seedPrediction(t, store, "game-1", "nfl", 10.0, 44.5, 0.85)

	// Tied in overtime: the elapsed fraction is pinned at 1, so the prior
	// no longer matters and a zero margin reads as a coin flip.
	update, err := updater.Update(ctx, liveGame("nfl", "game-1", 5, "5:00", 38, 38))
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.InDelta(t, 0.5, update.WinProbability, 0.02)
}
