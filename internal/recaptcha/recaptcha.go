// Package recaptcha obtains and verifies single-use bot verification tokens.
package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrMissingToken = errors.New("verification token is missing")
	ErrRejected     = errors.New("verification rejected")
)

// TokenSource hands out a fresh token for each submission attempt.
type TokenSource interface {
	Token(ctx context.Context, action string) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context, action string) (string, error)

func (f TokenFunc) Token(ctx context.Context, action string) (string, error) {
	return f(ctx, action)
}

// StaticToken always returns the same token. The hosted wizard uses it to
// forward the token the browser obtained for the submit click.
type StaticToken string

func (s StaticToken) Token(context.Context, string) (string, error) {
	if s == "" {
		return "", ErrMissingToken
	}
	return string(s), nil
}

// Verifier checks a token server side.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// NoopVerifier accepts every token.
type NoopVerifier struct{}

func (NoopVerifier) Verify(context.Context, string, string) error { return nil }

type Config struct {
	Secret    string
	VerifyURL string
	Action    string
	MinScore  float64
	Timeout   time.Duration
	Logger    *slog.Logger
}

type siteVerifyResponse struct {
	Success     bool      `json:"success"`
	Score       float64   `json:"score"`
	Action      string    `json:"action"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes"`
}

// SiteVerifier posts tokens to the siteverify endpoint.
type SiteVerifier struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewSiteVerifier(cfg Config) *SiteVerifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteVerifier{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

func (v *SiteVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	form := url.Values{}
	form.Set("secret", v.cfg.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verification endpoint returned status %d", resp.StatusCode)
	}

	var result siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode verification response: %w", err)
	}

	switch {
	case !result.Success:
		v.logger.Warn("Verification failed", "error_codes", result.ErrorCodes)
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(result.ErrorCodes, ", "))
	case v.cfg.Action != "" && result.Action != "" && result.Action != v.cfg.Action:
		return fmt.Errorf("%w: unexpected action %q", ErrRejected, result.Action)
	case result.Score < v.cfg.MinScore:
		v.logger.Warn("Verification score too low", "score", result.Score, "min_score", v.cfg.MinScore)
		return fmt.Errorf("%w: score %.2f below %.2f", ErrRejected, result.Score, v.cfg.MinScore)
	}

	v.logger.Debug("Verification passed", "score", result.Score, "hostname", result.Hostname)
	return nil
}
