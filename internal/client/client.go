// Package client talks to the collection server over its REST API and
// implements the tracker's load/save contract on top of it.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/erazemk/stockroom/internal/metrics"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Token is a bearer token to use until Login replaces it.
	Token   string
	Timeout time.Duration
	// Retries is the number of extra attempts after a transport error or 5xx.
	Retries   int
	RetryWait time.Duration
	// Atomic makes Save write all collections with one snapshot request.
	Atomic bool
	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Logger           *slog.Logger
}

// Defaults.
const (
	DefaultTimeout          = 10 * time.Second
	DefaultRetries          = 2
	DefaultRetryWait        = 200 * time.Millisecond
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
)

// ErrUnavailable is returned without contacting the server while the
// breaker is open.
var ErrUnavailable = errors.New("store unavailable")

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type apiError struct {
	Error string `json:"error"`
}

// Client is a REST client for the collection server.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	atomic  bool
	logger  *slog.Logger
}

// New returns a Client for cfg, filling unset fields with defaults.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4 * cfg.RetryWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	name := "store"
	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			logger.Warn("store circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &Client{
		http:    httpClient,
		breaker: breaker,
		atomic:  cfg.Atomic,
		logger:  cfg.Logger,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// do sends one request through the breaker. Only transport errors and 5xx
// responses count as breaker failures; other non-2xx responses come back
// as *StatusError.
func (c *Client) do(ctx context.Context, label, method, path string, body, result any) error {
	out, err := c.breaker.Execute(func() (any, error) {
		req := c.http.R().
			SetContext(ctx).
			SetError(&apiError{})
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, statusError(resp)
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.count(label, method, "rejected")
		return fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
	case err != nil:
		c.count(label, method, "error")
		return err
	}

	if resp := out.(*resty.Response); resp.IsError() {
		c.count(label, method, "error")
		return statusError(resp)
	}
	c.count(label, method, "ok")
	return nil
}

func (c *Client) count(label, method, outcome string) {
	metrics.ClientRequests.WithLabelValues(label, method, outcome).Inc()
}

func statusError(resp *resty.Response) *StatusError {
	e := &StatusError{Code: resp.StatusCode()}
	if body, ok := resp.Error().(*apiError); ok && body != nil {
		e.Message = body.Error
	}
	return e
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges credentials for a token and uses it for later requests.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out loginResponse
	if err := c.do(ctx, "auth", http.MethodPost, "/api/auth/login",
		loginRequest{Username: username, Password: password}, &out); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("logging in: empty token")
	}
	c.SetToken(out.Token)
	c.logger.Debug("logged in", "user", username, "expires_at", out.ExpiresAt)
	return nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, "auth", http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
