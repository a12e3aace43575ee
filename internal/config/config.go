package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the repochat service
type Config struct {
	// Server settings
	Port int

	// Target repository
	RepoOwner  string
	RepoName   string
	RepoBranch string

	// GitHub auth: either a personal access token or App credentials
	GitHubToken      string
	GitHubAppID      string
	GitHubPrivateKey string

	// AI Provider selection
	Provider string // "claude" or "openai"

	// Claude settings
	ClaudeAPIKey string
	ClaudeModel  string

	// OpenAI-compatible settings
	OpenAIAPIKey  string
	OpenAIBaseURL string // Optional: custom API endpoint
	OpenAIModel   string

	// Context loading settings
	MaxImportDepth int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvInt("PORT", 8000),
		RepoOwner:        os.Getenv("REPO_OWNER"),
		RepoName:         os.Getenv("REPO_NAME"),
		RepoBranch:       getEnv("REPO_BRANCH", "main"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		GitHubAppID:      os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey: normalizePrivateKey(os.Getenv("GITHUB_PRIVATE_KEY")),
		Provider:         getEnv("PROVIDER", "claude"),
		ClaudeAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:      getEnv("CLAUDE_MODEL", "claude-3-5-sonnet-20241022"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o"),
		MaxImportDepth:   getEnvInt("MAX_IMPORT_DEPTH", 2),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalizePrivateKey strips quoting and normalizes line endings in a PEM
// key passed through the environment.
func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\r", "")
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// validate checks that all required configuration is present
func (c *Config) validate() error {
	if c.RepoOwner == "" {
		return fmt.Errorf("REPO_OWNER is required")
	}
	if c.RepoName == "" {
		return fmt.Errorf("REPO_NAME is required")
	}

	if err := c.validateGitHubCredentials(); err != nil {
		return err
	}

	if err := c.validateProviderConfig(); err != nil {
		return err
	}

	if c.MaxImportDepth < 0 {
		return fmt.Errorf("MAX_IMPORT_DEPTH must not be negative")
	}

	return nil
}

func (c *Config) validateGitHubCredentials() error {
	if c.GitHubToken != "" {
		return nil
	}
	if c.GitHubAppID != "" && c.GitHubPrivateKey != "" {
		return nil
	}
	return fmt.Errorf("either GITHUB_TOKEN or GITHUB_APP_ID + GITHUB_PRIVATE_KEY is required")
}

func (c *Config) validateProviderConfig() error {
	switch c.Provider {
	case "claude":
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for claude provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
	default:
		return fmt.Errorf("invalid provider: %s (must be 'claude' or 'openai')", c.Provider)
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
