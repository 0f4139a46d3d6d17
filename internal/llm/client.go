package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

const (
	// DefaultBaseURL is the OpenRouter chat-completions endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv = "OPENROUTER_API_KEY"

	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	defaultMultiplier  = 2.0
	defaultCallTimeout = 120 * time.Second
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is not set")

// APIError is a non-2xx response from the endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter: status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the call may be retried: rate limits, server
// errors and timeouts are transient; other 4xx are not.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500 || e.Status == http.StatusRequestTimeout
}

// Config controls the transport client.
type Config struct {
	APIKey            string
	BaseURL           string
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	CallTimeout       time.Duration
}

// ConfigFromEnv builds a default config with the API key from the
// environment.
func ConfigFromEnv() Config {
	return Config{APIKey: os.Getenv(APIKeyEnv)}
}

// Client calls the OpenRouter chat-completions API with bounded retry and
// exponential backoff. Backoff waits run on the injected clock so tests can
// advance time instantly.
type Client struct {
	cfg        Config
	httpClient *http.Client
	clock      quartz.Clock
	logger     *log.Logger
}

// NewClient builds a transport client. A nil clock uses the real one.
func NewClient(cfg Config, logger *log.Logger, clock quartz.Clock) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultBackoff
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = defaultMultiplier
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		clock:      clock,
		logger:     logger.WithPrefix("llm"),
	}
}

// Call performs one chat completion, retrying transient failures. The
// context bounds the whole call including retries; each attempt also gets
// the per-call timeout.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	backoff := c.cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying model call",
				"model", req.Model, "attempt", attempt, "backoff", backoff, "error", lastErr)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = time.Duration(float64(backoff) * c.cfg.BackoffMultiplier)
		}

		resp, err := c.attempt(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("model call cancelled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("model call failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, body []byte) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: httpResp.StatusCode, Message: truncate(string(respBody), 512)}
	}

	var envelope completionEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: fmt.Sprintf("malformed envelope: %v", err)}
	}
	if envelope.Error != nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: envelope.Error.Message}
	}
	if len(envelope.Choices) == 0 {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "no choices in response"}
	}

	choice := envelope.Choices[0]
	return &Response{
		Content:          choice.Message.Content,
		Reasoning:        choice.Message.Reasoning,
		ReasoningDetails: choice.Message.ReasoningDetails,
		ToolCalls:        choice.Message.ToolCalls,
		Usage:            envelope.Usage,
		Provider:         envelope.Provider,
		Model:            envelope.Model,
	}, nil
}

// sleep waits on the injected clock so mocked time works in tests.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	done := make(chan struct{})
	timer := c.clock.AfterFunc(d, func() { close(done) })
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
