package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/stellarlink/repochat/internal/costcontrol"
	"github.com/stellarlink/repochat/internal/engine"
	"github.com/stellarlink/repochat/internal/provider"
	"github.com/stellarlink/repochat/internal/store"
)

type mockRunner struct {
	result *engine.TurnResult
	err    error

	requestText string
	seeds       []string
}

func (m *mockRunner) RunTurn(ctx context.Context, requestText string, history []provider.Message, seedOverride []string) (*engine.TurnResult, error) {
	m.requestText = requestText
	m.seeds = seedOverride
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestRouter(runner TurnRunner, turnStore *store.Store, ledger *costcontrol.Ledger) *mux.Router {
	if turnStore == nil {
		turnStore = store.NewStore()
	}
	if ledger == nil {
		ledger = costcontrol.NewLedger()
	}
	r := mux.NewRouter()
	NewHandler(runner, turnStore, ledger).RegisterRoutes(r)
	return r
}

func TestHandleChat(t *testing.T) {
	runner := &mockRunner{
		result: &engine.TurnResult{
			Text:    "Updated the price calculation.",
			Changes: []engine.FileChange{{Path: "src/pricing.ts", Action: "edit"}},
			Usage:   provider.Usage{InputTokens: 100, OutputTokens: 20},
		},
	}
	turnStore := store.NewStore()
	router := newTestRouter(runner, turnStore, nil)

	body := `{"message":"fix the price rounding","seeds":["src/pricing.ts"]}`
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if runner.requestText != "fix the price rounding" {
		t.Errorf("runner got message %q", runner.requestText)
	}
	if len(runner.seeds) != 1 || runner.seeds[0] != "src/pricing.ts" {
		t.Errorf("runner got seeds %v", runner.seeds)
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Text != "Updated the price calculation." {
		t.Errorf("text = %q", resp.Text)
	}
	if len(resp.Changes) != 1 {
		t.Errorf("changes = %+v", resp.Changes)
	}

	turn, ok := turnStore.Get(resp.ID)
	if !ok {
		t.Fatal("turn missing from store")
	}
	if turn.Status != store.StatusCompleted {
		t.Errorf("stored status = %s, want completed", turn.Status)
	}
}

func TestHandleChatEmptyMessage(t *testing.T) {
	router := newTestRouter(&mockRunner{}, nil, nil)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChatInvalidBody(t *testing.T) {
	router := newTestRouter(&mockRunner{}, nil, nil)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChatRunnerFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("model round failed")}
	turnStore := store.NewStore()
	router := newTestRouter(runner, turnStore, nil)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	turns := turnStore.List()
	if len(turns) != 1 || turns[0].Status != store.StatusFailed {
		t.Errorf("stored turns = %+v, want one failed turn", turns)
	}
}

func TestHandleTurnListAndDetail(t *testing.T) {
	turnStore := store.NewStore()
	turn := turnStore.Create("first request")
	turnStore.Complete(turn.ID, &engine.TurnResult{Text: "done"})
	router := newTestRouter(&mockRunner{}, turnStore, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/turns", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []store.Turn
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list body = %s (err %v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/turns/"+turn.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	var got store.Turn
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != turn.ID || got.Text != "done" {
		t.Errorf("detail = %+v", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/turns/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing turn status = %d, want 404", rec.Code)
	}
}

func TestHandleUsageAndReset(t *testing.T) {
	ledger := costcontrol.NewLedger()
	ledger.Record("gpt-4o", provider.Usage{InputTokens: 1_000_000})
	router := newTestRouter(&mockRunner{}, nil, ledger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("usage status = %d", rec.Code)
	}
	var snap costcontrol.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.SessionCost == 0 {
		t.Error("expected non-zero session cost")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/usage/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.SessionCost != 0 {
		t.Errorf("session cost after reset = %v, want 0", snap.SessionCost)
	}
	if snap.DailyCost == 0 {
		t.Error("daily cost must survive a session reset")
	}
}
