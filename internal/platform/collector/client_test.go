package collector_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"watchtrack/internal/platform/collector"
	apperrors "watchtrack/internal/platform/errors"
)

type fixedID string

func (f fixedID) New() string { return string(f) }

func TestLogVideoSendsPayloadAndDecodesSplit(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != collector.PathLogVideo || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Errorf("missing request id header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"action":"session_split","new_session_id":"s2"}`))
	}))
	defer srv.Close()

	c := collector.New(collector.Options{BaseURL: srv.URL + "/", Timeout: time.Second, IDs: fixedID("req-1")})
	reply, err := c.LogVideo(context.Background(), collector.VideoEntry{
		Counter: 1, SessionID: "s1", VideoID: "https://v/a.mp4", Duration: 100, Watched: 95, Status: "Fully Watched",
	})
	if err != nil {
		t.Fatalf("log video: %v", err)
	}
	next, ok := reply.SplitTo()
	if !ok || next != "s2" {
		t.Fatalf("expected split to s2, got %+v", reply)
	}
	if got["videoId"] != "https://v/a.mp4" || got["status"] != "Fully Watched" || got["session_id"] != "s1" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if keys, ok := got["keys"].([]any); !ok || len(keys) != 0 {
		t.Fatalf("keys should encode as empty list, got %v", got["keys"])
	}
}

func TestEmptyReplyIsNotSplit(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := collector.New(collector.Options{BaseURL: srv.URL})
	reply, err := c.LogInactivity(context.Background(), collector.InactivityEntry{SessionID: "s1", Duration: 10})
	if err != nil {
		t.Fatalf("log inactivity: %v", err)
	}
	if _, ok := reply.SplitTo(); ok {
		t.Fatalf("unexpected split: %+v", reply)
	}
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := collector.New(collector.Options{BaseURL: srv.URL})
	err := c.Logout(context.Background(), "s1")
	var statusErr *collector.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := collector.New(collector.Options{BaseURL: srv.URL, FailureThreshold: 2, OpenTimeout: time.Minute})
	for i := 0; i < 2; i++ {
		if err := c.Logout(context.Background(), "s1"); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}
	err := c.Logout(context.Background(), "s1")
	if !errors.Is(err, apperrors.ErrCollectorUnavailable) {
		t.Fatalf("expected breaker to fail fast, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", hits.Load())
	}
}

func TestLoginDecodesResult(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req collector.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username == "ann" && req.Password == "pw" {
			_, _ = w.Write([]byte(`{"success":true,"session_id":"abc"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	c := collector.New(collector.Options{BaseURL: srv.URL})
	ok, err := c.Login(context.Background(), collector.LoginRequest{Username: "ann", Password: "pw"})
	if err != nil || !ok.Success || ok.SessionID != "abc" {
		t.Fatalf("login = %+v, %v", ok, err)
	}
	bad, err := c.Login(context.Background(), collector.LoginRequest{Username: "ann", Password: "nope"})
	if err != nil || bad.Success {
		t.Fatalf("bad login = %+v, %v", bad, err)
	}
}
