package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
)

const defaultAPIRoot = "https://site.api.espn.com/apis/site/v2/sports"

// Stores bundles the record-store interfaces the activities read and
// write through.
type Stores struct {
	Teams       TeamStore
	Pitchers    PitcherStore
	Games       GameStore
	Metrics     MetricsStore
	Predictions PredictionStore
	History     EloHistoryStore
}

// Activities holds the dependencies shared by all activity methods. The
// engines themselves are pure; everything stateful lives here.
type Activities struct {
	Stores    Stores
	Publisher *LivePublisher // optional; nil disables stream publishing
	APIRoot   string         // overridable for tests
}

func NewActivities(stores Stores, publisher *LivePublisher) *Activities {
	return &Activities{Stores: stores, Publisher: publisher, APIRoot: defaultAPIRoot}
}

// fetchScoreboard pulls and maps one league's scoreboard.
func (a *Activities) fetchScoreboard(ctx context.Context, league string) ([]GameRecord, error) {
	sportPath, ok := espnSportPaths[league]
	if !ok {
		return nil, fmt.Errorf("no ESPN sport path for league %q", league)
	}

	url := fmt.Sprintf("%s/%s/%s/scoreboard", a.APIRoot, sportPath, league)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoreboard request returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var espnResp espnResponse
	if err := json.Unmarshal(body, &espnResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ESPN response: %w", err)
	}

	var games []GameRecord
	for i := range espnResp.Events {
		if game := mapEventToGame(league, &espnResp, &espnResp.Events[i]); game != nil {
			games = append(games, *game)
		}
	}
	return games, nil
}

// FetchGames pulls the scoreboard for a league and persists every mapped
// game record.
func (a *Activities) FetchGames(ctx context.Context, req TrackingRequest) ([]GameRecord, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Fetching games from ESPN API", "league", req.League)

	games, err := a.fetchScoreboard(ctx, req.League)
	if err != nil {
		return nil, err
	}
	for i := range games {
		if err := a.Stores.Games.Put(ctx, &games[i]); err != nil {
			return nil, fmt.Errorf("persist game %s: %w", games[i].ID, err)
		}
	}

	logger.Info("Fetched games", "league", req.League, "count", len(games))
	return games, nil
}

// RefreshGame re-fetches a league's scoreboard and returns the current
// record for one game. Falls back to the stored record when the game has
// dropped off the scoreboard.
func (a *Activities) RefreshGame(ctx context.Context, league, gameID string) (*GameRecord, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Refreshing game", "league", league, "gameID", gameID)

	games, err := a.fetchScoreboard(ctx, league)
	if err != nil {
		return nil, err
	}
	for i := range games {
		if games[i].ID == gameID {
			if err := a.Stores.Games.Put(ctx, &games[i]); err != nil {
				return nil, fmt.Errorf("persist game %s: %w", gameID, err)
			}
			return &games[i], nil
		}
	}

	stored, err := a.Stores.Games.Get(ctx, league, gameID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("game not found: %s", gameID)
	}
	return stored, nil
}

// RunPreGamePrediction computes and upserts the pre-game prediction for
// one game. A nil result means the game was skipped (already final or a
// team reference missing).
func (a *Activities) RunPreGamePrediction(ctx context.Context, game GameRecord) (*PredictionRecord, error) {
	cfg, err := ConfigFor(game.League)
	if err != nil {
		return nil, err
	}
	predictor, err := NewPreGamePredictor(cfg, a.Stores.Teams, a.Stores.Pitchers, a.Stores.Metrics, a.Stores.Predictions)
	if err != nil {
		return nil, err
	}
	return predictor.Predict(ctx, &game)
}

// RunLiveUpdate recomputes the live prediction for one game, persists the
// whole live group atomically, and publishes the update. A nil result
// means no update applied; stale live fields were cleared if the game had
// left the live state.
func (a *Activities) RunLiveUpdate(ctx context.Context, game GameRecord) (*LiveUpdate, error) {
	logger := activity.GetLogger(ctx)

	cfg, err := ConfigFor(game.League)
	if err != nil {
		return nil, err
	}
	updater, err := NewLivePredictionUpdater(cfg, a.Stores.Predictions)
	if err != nil {
		return nil, err
	}

	update, err := updater.Update(ctx, &game)
	if err != nil || update == nil {
		return nil, err
	}

	live := LiveGroup{
		Spread:           update.Spread,
		WinProbability:   update.WinProbability,
		Total:            update.Total,
		SecondsRemaining: update.SecondsRemaining,
		UpdatedAt:        update.UpdatedAt,
	}
	if err := a.Stores.Predictions.SetLive(ctx, game.ID, live); err != nil {
		return nil, fmt.Errorf("persist live update for game %s: %w", game.ID, err)
	}

	if a.Publisher != nil {
		if err := a.Publisher.PublishLiveUpdate(ctx, update); err != nil {
			// Publishing is best-effort; the persisted row is the source
			// of truth.
			logger.Warn("Failed to publish live update", "gameID", game.ID, "error", err)
		}
	}
	return update, nil
}

// ProcessCompletedGame runs the Elo update for one final game.
func (a *Activities) ProcessCompletedGame(ctx context.Context, game GameRecord) (*EloUpdate, error) {
	cfg, err := ConfigFor(game.League)
	if err != nil {
		return nil, err
	}
	engine, err := NewEloEngine(cfg, a.Stores.Teams, a.Stores.Pitchers, a.Stores.History)
	if err != nil {
		return nil, err
	}
	return engine.ProcessGame(ctx, &game)
}

// GradingRequest scopes one grading batch.
type GradingRequest struct {
	League string `json:"league"`
	Season int    `json:"season"` // 0 = all seasons
}

// GradePredictions grades every qualifying prediction for a league and
// publishes the batch summary.
func (a *Activities) GradePredictions(ctx context.Context, req GradingRequest) (*GradingSummary, error) {
	logger := activity.GetLogger(ctx)

	engine := NewGradingEngine(a.Stores.Games, a.Stores.Predictions)
	summary, err := engine.GradeBatch(ctx, req.League, req.Season)
	if err != nil {
		return nil, err
	}

	logger.Info("Grading batch complete", "league", req.League, "graded", summary.Graded)
	if a.Publisher != nil && summary.Graded > 0 {
		if err := a.Publisher.PublishGradingSummary(ctx, summary); err != nil {
			logger.Warn("Failed to publish grading summary", "league", req.League, "error", err)
		}
	}
	return summary, nil
}

// StartPredictionWorkflow launches the per-game workflow that owns all
// live updates for one game, which is what serializes them.
func (a *Activities) StartPredictionWorkflow(ctx context.Context, game GameRecord) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting prediction workflow", "gameID", game.ID)

	c, err := client.Dial(client.Options{})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	options := client.StartWorkflowOptions{
		ID:        "prediction-" + game.League + "-" + game.ID,
		TaskQueue: TaskQueueName,
	}
	we, err := c.ExecuteWorkflow(context.Background(), options, PredictionWorkflow, game)
	if err != nil {
		return fmt.Errorf("unable to execute workflow: %w", err)
	}
	logger.Info("Started workflow", "WorkflowID", we.GetID(), "RunID", we.GetRunID())
	return nil
}
