package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	predictions "sports-prediction-engine"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

// Handlers is the read-only API over the prediction stores plus the
// tracking endpoints that drive Temporal. The Temporal client may be nil
// (demo mode); the store-backed endpoints keep working.
type Handlers struct {
	temporalClient client.Client
	stores         predictions.Stores
}

func NewHandlers(temporalClient client.Client, stores predictions.Stores) *Handlers {
	return &Handlers{temporalClient: temporalClient, stores: stores}
}

// Router mounts every endpoint.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Get("/api/leagues", h.GetLeagues)
	r.Get("/api/predictions/{gameID}", h.GetPrediction)
	r.Get("/api/ratings/{league}/{teamID}", h.GetRating)
	r.Post("/api/track", h.StartTracking)
	r.Post("/api/grade", h.StartGrading)
	r.Get("/api/workflows", h.GetWorkflows)
	r.Delete("/api/workflows/{workflowID}", h.CancelWorkflow)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true})
}

// League pairs a league key with the ESPN path the tracker needs.
type League struct {
	ID    string `json:"id"`
	Sport string `json:"sport"`
}

// GetLeagues returns the configured leagues.
func (h *Handlers) GetLeagues(w http.ResponseWriter, r *http.Request) {
	var leagues []League
	for _, key := range predictions.Leagues() {
		leagues = append(leagues, League{ID: key, Sport: predictions.SportPathFor(key)})
	}
	sort.Slice(leagues, func(i, j int) bool { return leagues[i].ID < leagues[j].ID })
	writeJSON(w, leagues)
}

// GetPrediction returns the full prediction row for a game.
func (h *Handlers) GetPrediction(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	pred, err := h.stores.Predictions.GetByGame(r.Context(), gameID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load prediction: %v", err), http.StatusInternalServerError)
		return
	}
	if pred == nil {
		http.Error(w, "Prediction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, pred)
}

// RatingResponse is a team's current rating plus its ledger.
type RatingResponse struct {
	League  string                        `json:"league"`
	TeamID  string                        `json:"teamId"`
	Rating  float64                       `json:"rating"`
	Default bool                          `json:"default"` // true when the team has no recorded games
	History []predictions.EloHistoryEntry `json:"history"`
}

// GetRating returns a team's current Elo and rating-over-time history.
func (h *Handlers) GetRating(w http.ResponseWriter, r *http.Request) {
	league := chi.URLParam(r, "league")
	teamID := chi.URLParam(r, "teamID")

	cfg, err := predictions.ConfigFor(league)
	if err != nil {
		http.Error(w, "Unknown league", http.StatusBadRequest)
		return
	}

	rating, ok, err := h.stores.Teams.CurrentRating(r.Context(), league, teamID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load rating: %v", err), http.StatusInternalServerError)
		return
	}
	if !ok {
		rating = cfg.DefaultElo
	}

	history, err := h.stores.History.ListByTeam(r.Context(), league, teamID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load history: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, RatingResponse{
		League:  league,
		TeamID:  teamID,
		Rating:  rating,
		Default: !ok,
		History: history,
	})
}

// StartTracking launches a CollectGamesWorkflow for the requested league.
func (h *Handlers) StartTracking(w http.ResponseWriter, r *http.Request) {
	var req predictions.TrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := predictions.ConfigFor(req.League); err != nil {
		http.Error(w, "Unknown league", http.StatusBadRequest)
		return
	}

	if h.temporalClient == nil {
		writeJSON(w, map[string]string{
			"workflowId": "demo-workflow-" + time.Now().Format("20060102-150405"),
			"message":    "Demo mode: tracking request received (Temporal server not connected)",
		})
		return
	}

	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("collect-%s-%s", req.League, time.Now().Format("20060102-150405")),
		TaskQueue: predictions.TaskQueueName,
	}
	we, err := h.temporalClient.ExecuteWorkflow(context.Background(), options, predictions.CollectGamesWorkflow, req)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to start workflow: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"workflowId": we.GetID(),
		"runId":      we.GetRunID(),
		"message":    "Tracking started successfully",
	})
}

// StartGrading launches a GradingWorkflow for the requested league.
func (h *Handlers) StartGrading(w http.ResponseWriter, r *http.Request) {
	var req predictions.GradingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := predictions.ConfigFor(req.League); err != nil {
		http.Error(w, "Unknown league", http.StatusBadRequest)
		return
	}

	if h.temporalClient == nil {
		writeJSON(w, map[string]string{
			"message": "Demo mode: grading request received (Temporal server not connected)",
		})
		return
	}

	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("grading-%s-%s", req.League, time.Now().Format("20060102-150405")),
		TaskQueue: predictions.TaskQueueName,
	}
	we, err := h.temporalClient.ExecuteWorkflow(context.Background(), options, predictions.GradingWorkflow, req)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to start workflow: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"workflowId": we.GetID(),
		"runId":      we.GetRunID(),
		"message":    "Grading started successfully",
	})
}

// PredictionWorkflowInfo describes one running per-game workflow.
type PredictionWorkflowInfo struct {
	WorkflowID  string    `json:"workflowId"`
	RunID       string    `json:"runId"`
	WorkflowURL string    `json:"workflowUrl,omitempty"`
	Status      string    `json:"status"`
	GameID      string    `json:"gameId"`
	League      string    `json:"league"`
	GameStatus  string    `json:"gameStatus"`
	HomeScore   int       `json:"homeScore"`
	AwayScore   int       `json:"awayScore"`
	StartTime   time.Time `json:"startTime"`
}

// GetWorkflows lists running prediction workflows with their game state
// from the gameInfo query handler.
func (h *Handlers) GetWorkflows(w http.ResponseWriter, r *http.Request) {
	var infos []PredictionWorkflowInfo

	if h.temporalClient == nil {
		writeJSON(w, infos)
		return
	}

	listRequest := &workflowservice.ListWorkflowExecutionsRequest{
		Query: "WorkflowId STARTS_WITH 'prediction-' AND ExecutionStatus = 'Running'",
	}
	resp, err := h.temporalClient.ListWorkflow(context.Background(), listRequest)
	if err != nil {
		fmt.Printf("Failed to list workflows: %v\n", err)
		writeJSON(w, infos)
		return
	}

	for _, execution := range resp.Executions {
		info := PredictionWorkflowInfo{
			WorkflowID: execution.Execution.WorkflowId,
			RunID:      execution.Execution.RunId,
			Status:     execution.Status.String(),
		}

		tempURL := fmt.Sprintf("/namespaces/%s/workflows/%s/%s", os.Getenv("TEMPORAL_NAMESPACE"), info.WorkflowID, info.RunID)
		if os.Getenv("TEMPORAL_HOST") != "localhost:7233" {
			info.WorkflowURL = fmt.Sprintf("https://cloud.temporal.io%s", tempURL)
		} else {
			info.WorkflowURL = fmt.Sprintf("http://localhost:8233%s", tempURL)
		}

		var game predictions.GameRecord
		queryResult, err := h.temporalClient.QueryWorkflow(context.Background(), info.WorkflowID, info.RunID, "gameInfo")
		if err != nil {
			fmt.Printf("Failed to query workflow %s: %v\n", info.WorkflowID, err)
		} else if err := queryResult.Get(&game); err != nil {
			fmt.Printf("Failed to get query result for workflow %s: %v\n", info.WorkflowID, err)
		}

		info.GameID = game.ID
		info.League = game.League
		info.GameStatus = string(game.Status)
		info.HomeScore, info.AwayScore = game.Score()
		info.StartTime = game.StartTime

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartTime.Before(infos[j].StartTime)
	})
	writeJSON(w, infos)
}

// CancelWorkflow cancels one workflow by id.
func (h *Handlers) CancelWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	if workflowID == "" {
		http.Error(w, "Workflow ID required", http.StatusBadRequest)
		return
	}

	if h.temporalClient == nil {
		writeJSON(w, map[string]string{
			"message": "Demo mode: workflow cancel request received (Temporal server not connected)",
		})
		return
	}

	if err := h.temporalClient.CancelWorkflow(context.Background(), workflowID, ""); err != nil {
		http.Error(w, fmt.Sprintf("Failed to cancel workflow: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"message": "Workflow cancelled successfully"})
}
