package predictions

import (
	"context"
	"fmt"
	"os"

	"github.com/slack-go/slack"

	"go.temporal.io/sdk/activity"
)

// Notification is one message destined for a channel.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SendNotifications carries a batch of notifications for one channel.
type SendNotifications struct {
	Channel          string         `json:"channel"`
	NotificationList []Notification `json:"notificationList"`
}

// SendNotificationListActivity delivers a notification batch to its
// channel. "logger" just logs; "slack" posts to the configured webhook.
func SendNotificationListActivity(ctx context.Context, send SendNotifications) error {
	logger := activity.GetLogger(ctx)

	switch send.Channel {
	case "slack":
		webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
		if webhookURL == "" {
			return fmt.Errorf("SLACK_WEBHOOK_URL environment variable is not set")
		}
		for _, n := range send.NotificationList {
			msg := &slack.WebhookMessage{
				Text: fmt.Sprintf("*%s*\n%s", n.Title, n.Message),
			}
			if err := slack.PostWebhookContext(ctx, webhookURL, msg); err != nil {
				return fmt.Errorf("post slack webhook: %w", err)
			}
		}
	case "logger":
		for _, n := range send.NotificationList {
			logger.Info("Notification", "title", n.Title, "message", n.Message)
		}
	default:
		logger.Warn("Unknown notification channel, logging instead", "channel", send.Channel)
		for _, n := range send.NotificationList {
			logger.Info("Notification", "title", n.Title, "message", n.Message)
		}
	}
	return nil
}

// buildSwingNotification announces a live win-probability swing.
func buildSwingNotification(game *GameRecord, prev, current float64) Notification {
	hs, as := game.Score()
	direction := "toward the home side"
	if current < prev {
		direction = "toward the away side"
	}
	return Notification{
		Title: "Win Probability Swing!",
		Message: fmt.Sprintf("Game %s (%s): home win probability moved %.1f%% -> %.1f%% %s.\nScore: %d - %d",
			game.ID, game.League, prev*100, current*100, direction, hs, as),
	}
}

// buildGradingNotification summarizes a grading batch.
func buildGradingNotification(summary *GradingSummary) Notification {
	return Notification{
		Title: "Grading Summary",
		Message: fmt.Sprintf("%s: graded %d predictions (%d pushes).\nWinner accuracy %.2f%%, mean spread error %.2f, mean total error %.2f",
			summary.League, summary.Graded, summary.Pushes, summary.WinnerAccuracy, summary.MeanSpreadError, summary.MeanTotalError),
	}
}
