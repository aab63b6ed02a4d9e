package main

import (
	"context"
	"log"
	"os"

	predictions "sports-prediction-engine"
	"sports-prediction-engine/store"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	// Create Temporal client
	c, err := client.Dial(predictions.GetClientOptions())
	if err != nil {
		log.Fatalln("Unable to create Temporal client", err)
	}
	defer c.Close()

	// Open the prediction store
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatalln("DATABASE_URL environment variable is not set")
	}
	db, err := store.Open(dsn)
	if err != nil {
		log.Fatalln("Unable to open database", err)
	}
	defer db.Close(context.Background())

	if err := store.Migrate(context.Background(), db); err != nil {
		log.Fatalln("Unable to run migrations", err)
	}

	// Publishing is optional; without REDIS_URL updates stay DB-only.
	var publisher *predictions.LivePublisher
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalln("Invalid REDIS_URL", err)
		}
		publisher = predictions.NewLivePublisher(redis.NewClient(opts))
	}

	activities := predictions.NewActivities(db.Stores(), publisher)

	// Create worker
	w := worker.New(c, predictions.TaskQueueName, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(predictions.CollectGamesWorkflow)
	w.RegisterWorkflow(predictions.PredictionWorkflow)
	w.RegisterWorkflow(predictions.GradingWorkflow)

	// Register activities
	w.RegisterActivity(activities.FetchGames)
	w.RegisterActivity(activities.RefreshGame)
	w.RegisterActivity(activities.RunPreGamePrediction)
	w.RegisterActivity(activities.RunLiveUpdate)
	w.RegisterActivity(activities.ProcessCompletedGame)
	w.RegisterActivity(activities.GradePredictions)
	w.RegisterActivity(activities.StartPredictionWorkflow)
	w.RegisterActivity(predictions.SendNotificationListActivity)

	// Start worker
	log.Println("Starting Temporal worker for prediction engine...")
	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalln("Unable to start worker", err)
	}
}
