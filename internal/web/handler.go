// Package web exposes the engine over a JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stellarlink/repochat/internal/costcontrol"
	"github.com/stellarlink/repochat/internal/engine"
	"github.com/stellarlink/repochat/internal/provider"
	"github.com/stellarlink/repochat/internal/store"
)

// TurnRunner runs one conversation turn. Implemented by engine.Engine;
// abstracted so handlers can be tested without remote capabilities.
type TurnRunner interface {
	RunTurn(ctx context.Context, requestText string, history []provider.Message, seedOverride []string) (*engine.TurnResult, error)
}

// Handler handles API requests
type Handler struct {
	runner TurnRunner
	store  *store.Store
	ledger *costcontrol.Ledger
}

// NewHandler creates a new API handler
func NewHandler(runner TurnRunner, turnStore *store.Store, ledger *costcontrol.Ledger) *Handler {
	return &Handler{
		runner: runner,
		store:  turnStore,
		ledger: ledger,
	}
}

// RegisterRoutes registers API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/chat", h.handleChat).Methods("POST")
	r.HandleFunc("/api/turns", h.handleTurnList).Methods("GET")
	r.HandleFunc("/api/turns/{id}", h.handleTurnDetail).Methods("GET")
	r.HandleFunc("/api/usage", h.handleUsage).Methods("GET")
	r.HandleFunc("/api/usage/reset", h.handleUsageReset).Methods("POST")
}

type chatRequest struct {
	Message string             `json:"message"`
	History []provider.Message `json:"history,omitempty"`
	Seeds   []string           `json:"seeds,omitempty"`
}

type chatResponse struct {
	ID      string              `json:"id"`
	Text    string              `json:"text"`
	Changes []engine.FileChange `json:"changes"`
	Usage   provider.Usage      `json:"usage"`
}

// handleChat runs one turn synchronously and returns the aggregated result.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	turn := h.store.Create(req.Message)
	log.Printf("[Web] Turn %s started", turn.ID)

	result, err := h.runner.RunTurn(r.Context(), req.Message, req.History, req.Seeds)
	if err != nil {
		h.store.Fail(turn.ID, err.Error())
		log.Printf("[Web] Turn %s failed: %v", turn.ID, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.store.Complete(turn.ID, result)

	writeJSON(w, http.StatusOK, chatResponse{
		ID:      turn.ID,
		Text:    result.Text,
		Changes: result.Changes,
		Usage:   result.Usage,
	})
}

func (h *Handler) handleTurnList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleTurnDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	turn, ok := h.store.Get(vars["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "turn not found")
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Snapshot())
}

func (h *Handler) handleUsageReset(w http.ResponseWriter, r *http.Request) {
	h.ledger.ResetSession()
	writeJSON(w, http.StatusOK, h.ledger.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Web] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
