// Package api is the typed HTTP client for the remote prediction backend.
// The backend owns all real computation (scoring, persistence, ranking);
// this client only shapes requests, normalizes errors, and decodes the
// loosely-typed responses into explicit Go types at the boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the prediction API base URL.
	DefaultBaseURL = "https://api.crickpick.app"

	defaultRateLimit = 10.0 // requests per second
	defaultBurst     = 5
)

// CredentialProvider supplies the opaque bearer token attached to every
// request. Injecting it keeps the client free of ambient global auth state
// and testable with a fake provider.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a CredentialProvider holding a fixed token.
type StaticToken string

// Token returns the static token.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// RequestObserver receives the outcome of every API call: the operation
// name, the HTTP status code as a string ("error" for transport failures),
// and the elapsed time. Used to feed instrumentation.
type RequestObserver func(operation, status string, elapsed time.Duration)

// Client is a prediction API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	creds      CredentialProvider
	observer   RequestObserver
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCredentials sets the bearer credential provider.
func WithCredentials(creds CredentialProvider) ClientOption {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithRequestObserver sets a callback observing every request's outcome.
func WithRequestObserver(observer RequestObserver) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a new prediction API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasCredentials reports whether a credential provider is set.
func (c *Client) HasCredentials() bool {
	return c.creds != nil
}

// SetCredentials replaces the credential provider, e.g. after login.
func (c *Client) SetCredentials(creds CredentialProvider) {
	c.creds = creds
}

// Health checks the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "health", "/health", nil, &result); err != nil {
		return err
	}
	if result.Status != "ok" {
		return fmt.Errorf("unexpected health status: %q", result.Status)
	}
	return nil
}

// Login exchanges a username/password for an opaque bearer token and
// installs it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := c.post(ctx, "login", "/auth/login", body, &tok); err != nil {
		return nil, err
	}

	c.creds = StaticToken(tok.AccessToken)
	return &tok, nil
}

// GetMatch fetches a single match by ID. Actual outcome fields are present
// only when the match is completed.
func (c *Client) GetMatch(ctx context.Context, matchID int64) (*Match, error) {
	var match Match
	if err := c.get(ctx, "get_match", fmt.Sprintf("/matches/%d", matchID), nil, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// ListMatches fetches matches filtered by status ("upcoming" or
// "completed").
func (c *Client) ListMatches(ctx context.Context, status string) ([]Match, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}

	var matches []Match
	if err := c.get(ctx, "list_matches", "/matches/matches", params, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// GetMatchPlayers fetches the roster for a match. An empty roster is a
// normal outcome, not an error.
func (c *Client) GetMatchPlayers(ctx context.Context, matchID int64) (*Roster, error) {
	var roster Roster
	if err := c.get(ctx, "get_match_players", fmt.Sprintf("/matches/%d/players", matchID), nil, &roster); err != nil {
		return nil, err
	}
	return &roster, nil
}

// GetMyPrediction fetches the caller's stored prediction for a match.
// Returns ErrNotFound when no prediction exists, which callers must treat
// as a normal outcome.
func (c *Client) GetMyPrediction(ctx context.Context, matchID int64) (*StoredPrediction, error) {
	var pred StoredPrediction
	err := c.get(ctx, "get_my_prediction", fmt.Sprintf("/predictions/%d/me", matchID), nil, &pred)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pred, nil
}

// CreatePrediction submits a new prediction for a match. Only legal while
// the match is upcoming and no prior prediction exists.
func (c *Client) CreatePrediction(ctx context.Context, matchID int64, payload *PredictionPayload) (*StoredPrediction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var pred StoredPrediction
	if err := c.post(ctx, "create_prediction", fmt.Sprintf("/predictions/%d", matchID), body, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

// UpdatePrediction replaces an existing prediction for a match. Only legal
// while the match is upcoming.
func (c *Client) UpdatePrediction(ctx context.Context, matchID int64, payload *PredictionPayload) (*StoredPrediction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var pred StoredPrediction
	if err := c.put(ctx, "update_prediction", fmt.Sprintf("/predictions/%d", matchID), body, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

// GetXFactors fetches the X-Factor catalog. The server has returned both a
// flat list and a tier-grouped object across versions, so both shapes are
// accepted and normalized to a flat list.
func (c *Client) GetXFactors(ctx context.Context) ([]XFactorDefinition, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "get_xfactors", "/xfactors", nil, &raw); err != nil {
		return nil, err
	}
	return decodeXFactorCatalog(raw)
}

// GetScoringMeta fetches the point table. Display-only.
func (c *Client) GetScoringMeta(ctx context.Context) (*ScoringMeta, error) {
	var meta ScoringMeta
	if err := c.get(ctx, "get_scoring_meta", "/meta/scoring", nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// GetOverallLeaderboard fetches the overall leaderboard, ranked by the
// server.
func (c *Client) GetOverallLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	if err := c.get(ctx, "get_overall_leaderboard", "/leaderboard/overall", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetMatchLeaderboard fetches the per-match leaderboard.
func (c *Client) GetMatchLeaderboard(ctx context.Context, matchID int64) ([]MatchLeaderboardEntry, error) {
	var entries []MatchLeaderboardEntry
	if err := c.get(ctx, "get_match_leaderboard", fmt.Sprintf("/leaderboard/match/%d", matchID), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// decodeXFactorCatalog normalizes the catalog response. A grouped object
// keyed by tier has the tier filled in from the key.
func decodeXFactorCatalog(raw json.RawMessage) ([]XFactorDefinition, error) {
	var defs []XFactorDefinition
	if err := json.Unmarshal(raw, &defs); err == nil {
		return defs, nil
	}

	var grouped map[RiskTier][]XFactorDefinition
	if err := json.Unmarshal(raw, &grouped); err != nil {
		return nil, fmt.Errorf("decode xfactor catalog: %w", err)
	}

	for _, tier := range RiskTiers {
		for _, def := range grouped[tier] {
			def.Risk = tier
			defs = append(defs, def)
		}
	}
	return defs, nil
}

// --- Internal helpers ---

func (c *Client) get(ctx context.Context, op, path string, params url.Values, result interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.do(ctx, op, http.MethodGet, u, nil, result)
}

func (c *Client) post(ctx context.Context, op, path string, body []byte, result interface{}) error {
	return c.do(ctx, op, http.MethodPost, c.baseURL+path, body, result)
}

func (c *Client) put(ctx context.Context, op, path string, body []byte, result interface{}) error {
	return c.do(ctx, op, http.MethodPut, c.baseURL+path, body, result)
}

func (c *Client) observe(op, status string, start time.Time) {
	if c.observer != nil {
		c.observer(op, status, time.Since(start))
	}
}

func (c *Client) do(ctx context.Context, op, method, url string, body []byte, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("credentials: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, "error", start)
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	c.observe(op, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, raw)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
