// Package gateway sends finished survey records to the submission endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mintsurvey/survey-service/internal/recaptcha"
	"github.com/mintsurvey/survey-service/internal/survey"
)

const (
	DefaultAction = "submit_survey"

	networkFailureMessage = "Submission failed. Please check your network connection and try again."
	tokenFailureMessage   = "Verification could not be completed. Please try again."
)

var ErrTokenUnavailable = errors.New("verification token unavailable")

// Error is a failed submission. Message is what the respondent sees.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission failed: %v", e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("submission failed with status %d: %s", e.Status, e.Message)
	}
	return "submission failed: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) UserMessage() string { return e.Message }

type Config struct {
	// URL is the full submission endpoint, usually config.Config.SubmitURL().
	URL     string
	Action  string
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

// Client posts records to the submission endpoint. It implements
// survey.Submitter.
type Client struct {
	cfg    Config
	tokens recaptcha.TokenSource
	http   *http.Client
	logger *slog.Logger
}

var _ survey.Submitter = (*Client)(nil)

func NewClient(cfg Config, tokens recaptcha.TokenSource) *Client {
	if cfg.Action == "" {
		cfg.Action = DefaultAction
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{cfg: cfg, tokens: tokens, http: client, logger: logger}
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Submit acquires a token and sends the record once. Failures are never
// retried here.
func (c *Client) Submit(ctx context.Context, rec survey.AnswerRecord) error {
	token, err := c.tokens.Token(ctx, c.cfg.Action)
	if err != nil {
		c.logger.Warn("Verification token unavailable", "error", err)
		return &Error{Message: tokenFailureMessage, Err: fmt.Errorf("%w: %v", ErrTokenUnavailable, err)}
	}

	body, err := json.Marshal(BuildPayload(rec, c.cfg.Now(), token))
	if err != nil {
		return &Error{Message: networkFailureMessage, Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &Error{Message: networkFailureMessage, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Submission request failed", "url", c.cfg.URL, "error", err)
		return &Error{Message: networkFailureMessage, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Submission response",
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return &Error{Status: resp.StatusCode, Message: serverMessage(resp)}
}

// serverMessage prefers the server's details, then its error text.
func serverMessage(resp *http.Response) string {
	var body errorBody
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(data, &body) == nil {
		if body.Details != "" {
			return body.Details
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fmt.Sprintf("Submission failed with status %d", resp.StatusCode)
}

// WithTokens returns a client that shares the HTTP client and settings but
// draws tokens from tokens.
func (c *Client) WithTokens(tokens recaptcha.TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}
