package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	predictions "sports-prediction-engine"

	"go.temporal.io/sdk/client"
)

func main() {
	c, err := client.Dial(client.Options{})
	if err != nil {
		log.Fatalln("Unable to create client", err)
	}
	defer c.Close()

	league := os.Getenv("LEAGUE")
	if league == "" {
		league = "nfl"
	}
	if _, err := predictions.ConfigFor(league); err != nil {
		log.Fatalln("Unknown league", league)
	}

	// Workflow ID is the league plus the start timestamp, so repeated runs
	// for the same league never collide.
	workflowID := fmt.Sprintf("collect-%s-%s", league, time.Now().Format("20060102-150405"))

	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: predictions.TaskQueueName,
	}

	request := predictions.TrackingRequest{
		Sport:  predictions.SportPathFor(league),
		League: league,
	}
	we, err := c.ExecuteWorkflow(context.Background(), options, predictions.CollectGamesWorkflow, request)
	if err != nil {
		log.Fatalln("Unable to execute workflow", err)
	}
	log.Println("Started workflow", "WorkflowID", we.GetID(), "RunID", we.GetRunID())
}
