package predictions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LivePublisher fans live prediction updates out to a Redis stream so
// downstream consumers (broadcast, alerting) can react without polling
// the database.
type LivePublisher struct {
	client *redis.Client
}

func NewLivePublisher(client *redis.Client) *LivePublisher {
	return &LivePublisher{client: client}
}

// PublishLiveUpdate appends one live update to the league's stream.
func (p *LivePublisher) PublishLiveUpdate(ctx context.Context, update *LiveUpdate) error {
	streamKey := fmt.Sprintf("predictions.live.%s", update.League)

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshaling live update: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data":    string(data),
			"game_id": update.GameID,
		},
	}).Err()
}

// PublishGradingSummary appends a grading batch summary to the league's
// grading stream.
func (p *LivePublisher) PublishGradingSummary(ctx context.Context, summary *GradingSummary) error {
	streamKey := fmt.Sprintf("predictions.grading.%s", summary.League)

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling grading summary: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data":   string(data),
			"graded": summary.Graded,
		},
	}).Err()
}
