package predictions

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// swingThreshold is the win-probability move that triggers a notification.
const swingThreshold = 0.15

// PredictionWorkflow owns one game: it waits for tip, polls while the
// game is live, runs the live updater each cycle, and on final runs the
// Elo update once. Because all updates for a game flow through its one
// workflow, concurrent live writes for the same game cannot happen.
func PredictionWorkflow(ctx workflow.Context, game GameRecord) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting Prediction Workflow", "gameID", game.ID, "league", game.League)

	err := workflow.SetQueryHandler(ctx, "gameInfo", func() (GameRecord, error) {
		return game, nil
	})
	if err != nil {
		logger.Error("Failed to set query handler", "error", err)
		return "", err
	}

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities

	// Wait until the scheduled start.
	if game.StartTime.After(workflow.Now(ctx)) {
		logger.Info("Waiting for game to start", "gameID", game.ID, "startTime", game.StartTime)
		if err := workflow.Sleep(ctx, game.StartTime.Sub(workflow.Now(ctx))); err != nil {
			return "", err
		}
	}

	notificationChannels := notificationChannelList()

	var lastWinProb float64 = -1
	deadline := game.StartTime.Add(8 * time.Hour) // safety stop for games stuck in a non-final state

	for workflow.Now(ctx).Before(deadline) {
		var update *GameRecord
		err := workflow.ExecuteActivity(ctx, a.RefreshGame, game.League, game.ID).Get(ctx, &update)
		if err != nil {
			logger.Error("Failed to refresh game", "gameID", game.ID, "error", err)
		} else if update != nil {
			game = *update
		}

		var live *LiveUpdate
		err = workflow.ExecuteActivity(ctx, a.RunLiveUpdate, game).Get(ctx, &live)
		if err != nil {
			logger.Error("Failed to run live update", "gameID", game.ID, "error", err)
		}

		if live != nil && lastWinProb >= 0 && math.Abs(live.WinProbability-lastWinProb) >= swingThreshold {
			notification := buildSwingNotification(&game, lastWinProb, live.WinProbability)
			sendToChannels(ctx, a, notificationChannels, []Notification{notification})
		}
		if live != nil {
			lastWinProb = live.WinProbability
		}

		if game.Status.State() == StateDone {
			break
		}

		if err := workflow.Sleep(ctx, 2*time.Minute); err != nil {
			return "", err
		}
	}

	result := fmt.Sprintf("Game %s finished with status %s", game.ID, game.Status)
	if game.Status != StatusFinal {
		logger.Info("Prediction workflow ending without a final game", "gameID", game.ID, "status", game.Status)
		return result, nil
	}

	var eloUpdate *EloUpdate
	err = workflow.ExecuteActivity(ctx, a.ProcessCompletedGame, game).Get(ctx, &eloUpdate)
	if err != nil {
		logger.Error("Failed to process Elo update", "gameID", game.ID, "error", err)
		return "", err
	}
	if eloUpdate != nil {
		logger.Info("Elo ratings updated", "gameID", game.ID,
			"homeDelta", eloUpdate.HomeDelta, "awayDelta", eloUpdate.AwayDelta)
	}

	hs, as := game.Score()
	result = fmt.Sprintf("Final score: %d - %d", hs, as)
	logger.Info("Prediction workflow completed", "gameID", game.ID, "result", result)
	return result, nil
}

// notificationChannelList reads the requested channels from the
// environment, defaulting to plain logging.
func notificationChannelList() []string {
	channelsStr := os.Getenv("NOTIFICATION_CHANNELS")
	if channelsStr == "" {
		return []string{"logger"}
	}
	return strings.Split(channelsStr, ",")
}

func sendToChannels(ctx workflow.Context, a *Activities, channels []string, notifications []Notification) {
	logger := workflow.GetLogger(ctx)
	for _, channel := range channels {
		send := SendNotifications{
			Channel:          channel,
			NotificationList: notifications,
		}
		if err := workflow.ExecuteActivity(ctx, SendNotificationListActivity, send).Get(ctx, nil); err != nil {
			logger.Error("Failed to send notifications", "channel", channel, "error", err)
		}
	}
}
