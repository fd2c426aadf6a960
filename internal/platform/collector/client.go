package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/platform/id"
	"watchtrack/internal/platform/metrics"
)

const (
	PathLogin         = "/login"
	PathLogout        = "/logout"
	PathLogVideo      = "/log_video"
	PathLogInactivity = "/log_inactivity"
)

type Options struct {
	BaseURL          string
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
	IDs              id.Generator
}

// Client talks JSON to the remote collector. Requests go through a circuit
// breaker that fails fast once the collector keeps failing.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	ids     id.Generator
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector %s: status %d: %s", e.Path, e.Status, e.Body)
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	ids := opts.IDs
	if ids == nil {
		ids = id.UUID{}
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "collector",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.CollectorBreakerState.Set(float64(to))
		},
	})
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		breaker: breaker,
		ids:     ids,
	}
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	err := c.post(ctx, PathLogin, req, &resp)
	return resp, err
}

func (c *Client) Logout(ctx context.Context, sessionID string) error {
	return c.post(ctx, PathLogout, LogoutRequest{SessionID: sessionID}, nil)
}

func (c *Client) LogVideo(ctx context.Context, entry VideoEntry) (Reply, error) {
	if entry.Keys == nil {
		entry.Keys = []string{}
	}
	var reply Reply
	err := c.post(ctx, PathLogVideo, entry, &reply)
	return reply, err
}

func (c *Client) LogInactivity(ctx context.Context, entry InactivityEntry) (Reply, error) {
	var reply Reply
	err := c.post(ctx, PathLogInactivity, entry, &reply)
	return reply, err
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, payload)
	})
	if err != nil {
		metrics.CollectorRequests.WithLabelValues(path, outcome(err)).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %v", apperrors.ErrCollectorUnavailable, path, err)
		}
		return err
	}
	metrics.CollectorRequests.WithLabelValues(path, "ok").Inc()
	if respBody == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", c.ids.New())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("status_%d", statusErr.Status)
	default:
		return "transport"
	}
}
