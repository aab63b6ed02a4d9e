package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"sports-prediction-engine/store"
	"sports-prediction-engine/web"

	"go.temporal.io/sdk/client"
)

func main() {
	// Temporal is optional for the read API; without it the store-backed
	// endpoints still work and workflow operations report demo mode.
	var temporalClient client.Client
	var err error

	temporalClient, err = client.Dial(client.Options{})
	if err != nil {
		log.Printf("Warning: Unable to create Temporal client: %v", err)
		log.Printf("The API will work but workflow operations will be limited")
		temporalClient = nil
	} else {
		defer temporalClient.Close()
		log.Printf("Successfully connected to Temporal server")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatalln("DATABASE_URL environment variable is not set")
	}
	db, err := store.Open(dsn)
	if err != nil {
		log.Fatalln("Unable to open database:", err)
	}
	defer db.Close(context.Background())

	handlers := web.NewHandlers(temporalClient, db.Stores())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting web server on port %s", port)
	if err := http.ListenAndServe(":"+port, handlers.Router()); err != nil {
		log.Fatalln("Server failed to start:", err)
	}
}
