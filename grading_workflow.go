package predictions

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// GradingWorkflow runs one grading batch for a league and reports the
// summary to the configured notification channels.
func GradingWorkflow(ctx workflow.Context, request GradingRequest) (*GradingSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting Grading Workflow", "league", request.League, "season", request.Season)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities

	var summary *GradingSummary
	err := workflow.ExecuteActivity(ctx, a.GradePredictions, request).Get(ctx, &summary)
	if err != nil {
		logger.Error("Grading batch failed", "league", request.League, "error", err)
		return nil, err
	}

	if summary.Graded > 0 {
		notification := buildGradingNotification(summary)
		sendToChannels(ctx, a, notificationChannelList(), []Notification{notification})
	}

	logger.Info("Grading Workflow completed", "league", request.League, "graded", summary.Graded)
	return summary, nil
}
