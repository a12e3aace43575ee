package repo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields an API token for repository access. Implementations are
// a static personal access token or a GitHub App installation.
type TokenSource interface {
	Token(owner, repo string) (string, error)
}

// StaticToken is a TokenSource backed by a personal access token.
type StaticToken string

func (t StaticToken) Token(owner, repo string) (string, error) {
	return string(t), nil
}

// AppAuth mints GitHub App installation tokens. Tokens are cached until
// shortly before expiry.
type AppAuth struct {
	AppID      string
	PrivateKey string

	cached    string
	expiresAt time.Time
}

// Token returns a valid installation access token for owner/repo.
func (a *AppAuth) Token(owner, repo string) (string, error) {
	if a.cached != "" && time.Now().Before(a.expiresAt.Add(-2*time.Minute)) {
		return a.cached, nil
	}

	jwtToken, err := a.generateJWT()
	if err != nil {
		return "", err
	}

	installationID, err := a.getInstallationID(jwtToken, owner, repo)
	if err != nil {
		return "", err
	}

	token, expiresAt, err := a.getInstallationAccessToken(jwtToken, installationID)
	if err != nil {
		return "", err
	}

	a.cached = token
	a.expiresAt = expiresAt
	return token, nil
}

// generateJWT creates a JWT for GitHub App authentication.
func (a *AppAuth) generateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	appID, err := strconv.ParseInt(a.AppID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

// getInstallationID retrieves the App installation ID for a repository.
func (a *AppAuth) getInstallationID(jwtToken, owner, repo string) (int64, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/installation", owner, repo)
	body, err := appAPIRequest("GET", url, jwtToken, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to decode installation response: %w", err)
	}

	return result.ID, nil
}

// getInstallationAccessToken mints an installation access token.
func (a *AppAuth) getInstallationAccessToken(jwtToken string, installationID int64) (string, time.Time, error) {
	url := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", installationID)
	body, err := appAPIRequest("POST", url, jwtToken, http.StatusCreated)
	if err != nil {
		return "", time.Time{}, err
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	return result.Token, result.ExpiresAt, nil
}

func appAPIRequest(method, url, jwtToken string, wantStatus int) ([]byte, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}

	return body, nil
}
