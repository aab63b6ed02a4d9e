package predictions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func newTestActivities(store *MemoryStore) *Activities {
	return &Activities{
		Stores: Stores{
			Teams:       store,
			Pitchers:    store.Pitchers(),
			Games:       store,
			Metrics:     store,
			Predictions: store,
			History:     store,
		},
	}
}

func TestFetchGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/football/nfl/scoreboard", r.URL.Path)
		fmt.Fprint(w, scoreboardFixture)
	}))
	defer server.Close()

	store := NewMemoryStore()
	activities := newTestActivities(store)
	activities.APIRoot = server.URL

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.FetchGames)

	future, err := env.ExecuteActivity(activities.FetchGames, TrackingRequest{
		Sport: "football", League: "nfl",
	})
	require.NoError(t, err)

	var games []GameRecord
	require.NoError(t, future.Get(&games))
	require.Len(t, games, 1)
	assert.Equal(t, "401773001", games[0].ID)

	// The fetched game was persisted.
	stored, err := store.Get(context.Background(), "nfl", "401773001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, StatusInProgress, stored.Status)
}

func TestFetchGames_UnknownLeague(t *testing.T) {
	activities := newTestActivities(NewMemoryStore())

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.FetchGames)

	_, err := env.ExecuteActivity(activities.FetchGames, TrackingRequest{League: "cricket"})
	assert.Error(t, err)
}

func TestRefreshGame_FallsBackToStoredRecord(t *testing.T) {
	// Scoreboard with no events: the game has rolled off, so the stored
	// record is what comes back.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"season": {"year": 2025, "type": 2}, "events": []}`)
	}))
	defer server.Close()

	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), &GameRecord{
		ID: "old-game", League: "nfl", HomeTeamID: "3", AwayTeamID: "9",
		Status: StatusFinal, HomeScore: intPtr(20), AwayScore: intPtr(17),
	}))

	activities := newTestActivities(store)
	activities.APIRoot = server.URL

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.RefreshGame)

	future, err := env.ExecuteActivity(activities.RefreshGame, "nfl", "old-game")
	require.NoError(t, err)

	var game *GameRecord
	require.NoError(t, future.Get(&game))
	require.NotNil(t, game)
	assert.Equal(t, StatusFinal, game.Status)
}

func TestRunLiveUpdate_PersistsWholeGroup(t *testing.T) {
	store := NewMemoryStore()
	activities := newTestActivities(store)
	ctx := context.Background()

	require.NoError(t, store.UpsertPreGame(ctx, &PredictionRecord{
		GameID: "game-1", League: "nfl", Season: 2025,
		Spread: 3.5, Total: 44.5, WinProbability: 0.6,
	}))

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.RunLiveUpdate)

	future, err := env.ExecuteActivity(activities.RunLiveUpdate, GameRecord{
		ID: "game-1", League: "nfl", HomeTeamID: "3", AwayTeamID: "9",
		Status: StatusInProgress, Period: 3, Clock: "5:00",
		HomeScore: intPtr(21), AwayScore: intPtr(14),
	})
	require.NoError(t, err)

	var update *LiveUpdate
	require.NoError(t, future.Get(&update))
	require.NotNil(t, update)
	assert.Equal(t, 1200, update.SecondsRemaining)

	stored, err := store.GetByGame(ctx, "game-1")
	require.NoError(t, err)
	require.NotNil(t, stored.Live)
	assert.Equal(t, update.Spread, stored.Live.Spread)
	assert.Equal(t, update.WinProbability, stored.Live.WinProbability)
	assert.Equal(t, update.Total, stored.Live.Total)
	assert.Equal(t, update.SecondsRemaining, stored.Live.SecondsRemaining)
	assert.False(t, stored.Live.UpdatedAt.IsZero())
}

func TestGradePredictions(t *testing.T) {
	store := NewMemoryStore()
	activities := newTestActivities(store)
	ctx := context.Background()

	require.NoError(t, store.UpsertPreGame(ctx, &PredictionRecord{
		GameID: "game-1", League: "nfl", Season: 2025, Spread: 3.5, Total: 44.5,
	}))
	require.NoError(t, store.Put(ctx, &GameRecord{
		ID: "game-1", League: "nfl", HomeTeamID: "3", AwayTeamID: "9",
		Season: 2025, Status: StatusFinal,
		HomeScore: intPtr(27), AwayScore: intPtr(20),
	}))

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.GradePredictions)

	future, err := env.ExecuteActivity(activities.GradePredictions, GradingRequest{League: "nfl", Season: 2025})
	require.NoError(t, err)

	var summary *GradingSummary
	require.NoError(t, future.Get(&summary))
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Graded)
	assert.Equal(t, 100.0, summary.WinnerAccuracy)
}
