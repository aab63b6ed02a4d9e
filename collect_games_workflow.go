package predictions

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CollectGamesWorkflow pulls a league's scoreboard, refreshes pre-game
// predictions, and starts one PredictionWorkflow per game that has not
// finished. Runs on a schedule owned by the caller.
func CollectGamesWorkflow(ctx workflow.Context, trackingRequest TrackingRequest) (int, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting Collect Games Workflow", "league", trackingRequest.League)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities

	var games []GameRecord
	err := workflow.ExecuteActivity(ctx, a.FetchGames, trackingRequest).Get(ctx, &games)
	if err != nil {
		logger.Error("Failed to fetch games", "error", err)
		return 0, err
	}

	started := 0
	for _, game := range games {
		if game.Status.State() == StateDone {
			continue
		}

		// Refresh the pre-game numbers for anything that hasn't tipped;
		// the predictor itself skips games it shouldn't touch.
		err := workflow.ExecuteActivity(ctx, a.RunPreGamePrediction, game).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to predict game", "gameID", game.ID, "error", err)
			continue
		}

		err = workflow.ExecuteActivity(ctx, a.StartPredictionWorkflow, game).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to start prediction workflow", "gameID", game.ID, "error", err)
			continue
		}
		started++
	}

	logger.Info("Collect Games Workflow completed", "games", len(games), "started", started)
	return started, nil
}
