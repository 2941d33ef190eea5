package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"supply-rounds/internal/logging"
	"supply-rounds/internal/model"
)

// Arbiter endpoints, relative to the base URL.
const (
	PathSessionStart = "/api/v1/session/start"
	PathSessionEnd   = "/api/v1/session/end"
	PathPlayRound    = "/api/v1/play/round"
)

// ArbiterClient talks to the external simulation arbiter. It holds at most one
// session id at a time.
type ArbiterClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  logging.Logger

	limiter *rate.Limiter

	mu        sync.Mutex
	sessionID string
}

// ArbiterOptions configures NewArbiterClient.
type ArbiterOptions struct {
	Timeout   time.Duration
	RateRPS   float64 // 0 disables pacing
	RateBurst int
	Logger    logging.Logger
}

// NewArbiterClient creates a client. A base URL without a scheme is treated as
// host[:port] and gets "http://".
func NewArbiterClient(apiKey, baseURL string, opts ArbiterOptions) *ArbiterClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	limit := rate.Inf
	if opts.RateRPS > 0 {
		limit = rate.Limit(opts.RateRPS)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &ArbiterClient{
		APIKey:  apiKey,
		BaseURL: NormalizeBaseURL(baseURL),
		Client:  &http.Client{Timeout: opts.Timeout},
		Logger:  opts.Logger,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// NormalizeBaseURL adds a default scheme and strips trailing slashes.
func NormalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/")
}

// ArbiterError represents a non-transport failure reported by the arbiter or
// detected before a request was sent.
type ArbiterError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *ArbiterError) Error() string {
	return e.Message
}

// SessionID returns the id of the active session, or "".
func (c *ArbiterClient) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// StartSession opens a new session and remembers its id.
func (c *ArbiterClient) StartSession(ctx context.Context) (string, error) {
	if err := c.validateAPIKey(); err != nil {
		return "", err
	}
	body, err := c.do(ctx, PathSessionStart, "", nil)
	if err != nil {
		return "", err
	}
	id := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if id == "" {
		return "", &ArbiterError{Code: "API_ERROR", Message: "arbiter returned an empty session id"}
	}

	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
	c.Logger.Info(ctx, "arbiter session started", logging.String("session_id", id))
	return id, nil
}

// EndSession closes the current session and returns the final KPIs.
func (c *ArbiterClient) EndSession(ctx context.Context) (*model.RoundResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, PathSessionEnd, "", nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	id := c.sessionID
	c.sessionID = ""
	c.mu.Unlock()

	var result model.RoundResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode session end response: %w", err)
		}
	}
	c.Logger.Info(ctx, "arbiter session ended",
		logging.String("session_id", id),
		logging.Float("total_cost", result.TotalKPIs.Cost),
		logging.Float("total_co2", result.TotalKPIs.CO2))
	return &result, nil
}

// PlayRound submits one day's movements on the active session.
func (c *ArbiterClient) PlayRound(ctx context.Context, req model.RoundRequest) (*model.RoundResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	sid := c.SessionID()
	if sid == "" {
		return nil, &ArbiterError{Code: "NO_SESSION", Message: "no active session; start one first"}
	}
	if req.Movements == nil {
		req.Movements = []model.MovementEntry{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode round request: %w", err)
	}
	body, err := c.do(ctx, PathPlayRound, sid, payload)
	if err != nil {
		return nil, err
	}
	var result model.RoundResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode round response: %w", err)
	}
	return &result, nil
}

// do POSTs to path and returns the body of a 2xx response. Any other status
// becomes an *ArbiterError.
func (c *ArbiterClient) do(ctx context.Context, path, sessionID string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("API-KEY", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("SESSION-ID", sessionID)
	}

	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.Logger.Error(ctx, "arbiter request failed",
			logging.String("path", path), logging.Any("duration", duration), logging.Err(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.Logger.Debug(ctx, "arbiter response",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Any("duration", duration))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &ArbiterError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: invalid API key",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &ArbiterError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		msg := truncate(strings.TrimSpace(string(body)), 200)
		return nil, &ArbiterError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("arbiter returned status %d on %s: %s", resp.StatusCode, path, msg),
		}
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (c *ArbiterClient) validateAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ArbiterError{
			Code:    "MISSING_API_KEY",
			Message: "API key is required",
		}
	}
	return nil
}
