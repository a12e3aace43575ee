package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/stellarlink/repochat/internal/config"
	"github.com/stellarlink/repochat/internal/costcontrol"
	"github.com/stellarlink/repochat/internal/engine"
	"github.com/stellarlink/repochat/internal/provider"
	"github.com/stellarlink/repochat/internal/provider/claude"
	"github.com/stellarlink/repochat/internal/provider/openai"
	"github.com/stellarlink/repochat/internal/repo"
	"github.com/stellarlink/repochat/internal/store"
	"github.com/stellarlink/repochat/internal/web"
)

var (
	loadDotEnv         = godotenv.Load
	loadConfig         = config.Load
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting repochat server...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("Repository: %s/%s@%s", cfg.RepoOwner, cfg.RepoName, cfg.RepoBranch)
	log.Printf("Provider: %s", cfg.Provider)
	log.Printf("Max import depth: %d", cfg.MaxImportDepth)

	token, err := resolveToken(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve GitHub credentials: %w", err)
	}

	accessor := repo.NewGitHubAccessor(token, cfg.RepoOwner, cfg.RepoName)

	conv, err := buildConversation(cfg)
	if err != nil {
		return err
	}

	ledger := costcontrol.NewLedger()
	eng := engine.New(accessor, conv, ledger, cfg.RepoBranch, cfg.MaxImportDepth)

	turnStore := store.NewStore()
	handler := web.NewHandler(eng, turnStore, ledger)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	}).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Listening on %s", addr)
	return serve(addr, r)
}

// resolveToken returns the API token: the configured PAT if present,
// otherwise a freshly minted App installation token.
func resolveToken(cfg *config.Config) (string, error) {
	if cfg.GitHubToken != "" {
		return cfg.GitHubToken, nil
	}

	auth := &repo.AppAuth{
		AppID:      cfg.GitHubAppID,
		PrivateKey: cfg.GitHubPrivateKey,
	}
	return auth.Token(cfg.RepoOwner, cfg.RepoName)
}

// buildConversation creates the model conversation capability based on
// configuration.
func buildConversation(cfg *config.Config) (provider.Conversation, error) {
	switch cfg.Provider {
	case "claude":
		return claude.NewProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", cfg.Provider)
	}
}
