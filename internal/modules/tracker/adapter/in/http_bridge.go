package in

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"watchtrack/internal/modules/tracker/dto"
	trackerin "watchtrack/internal/modules/tracker/port/in"
	apperrors "watchtrack/internal/platform/errors"
)

const maxEventBody = 1 << 20

type BridgeOptions struct {
	AllowedOrigins []string
	Log            zerolog.Logger
}

// HTTPBridge is the loopback API the in-page script talks to.
type HTTPBridge struct {
	usecase trackerin.Usecase
	opts    BridgeOptions
}

func NewHTTPBridge(usecase trackerin.Usecase, opts BridgeOptions) *HTTPBridge {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &HTTPBridge{usecase: usecase, opts: opts}
}

func (b *HTTPBridge) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: b.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(b.logRequests)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", b.postEvents)
		r.Post("/commands", b.postCommand)
		r.Get("/status", b.getStatus)
		r.Get("/directives", b.getDirectives)
		r.Get("/history", b.getHistory)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve listens on addr until ctx ends, then drains open requests.
func (b *HTTPBridge) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen bridge: %w", err)
	}
	return b.ServeListener(ctx, ln)
}

func (b *HTTPBridge) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	b.opts.Log.Info().Str("addr", ln.Addr().String()).Msg("page bridge listening")
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown bridge: %w", err)
	}
	return nil
}

func (b *HTTPBridge) postEvents(w http.ResponseWriter, r *http.Request) {
	events, err := decodeEvents(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := b.usecase.HandleEvents(r.Context(), events)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeEvents accepts a single event object or an array of them.
func decodeEvents(body io.Reader) ([]dto.PageEvent, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperrors.ErrInvalidInput, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", apperrors.ErrInvalidInput)
	}
	if raw[0] == '[' {
		var events []dto.PageEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, fmt.Errorf("%w: decode events: %v", apperrors.ErrInvalidInput, err)
		}
		return events, nil
	}
	var ev dto.PageEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", apperrors.ErrInvalidInput, err)
	}
	return []dto.PageEvent{ev}, nil
}

func (b *HTTPBridge) postCommand(w http.ResponseWriter, r *http.Request) {
	var cmd dto.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: decode command: %v", apperrors.ErrInvalidInput, err))
		return
	}
	if err := b.usecase.Command(r.Context(), cmd); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (b *HTTPBridge) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := b.usecase.Status(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (b *HTTPBridge) getDirectives(w http.ResponseWriter, r *http.Request) {
	directives, err := b.usecase.Directives(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]dto.Directive{"directives": directives})
}

func (b *HTTPBridge) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit must be a positive integer", apperrors.ErrInvalidInput))
			return
		}
		limit = parsed
	}
	history, err := b.usecase.History(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (b *HTTPBridge) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		b.opts.Log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("bridge request")
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrUnknownCommand),
		errors.Is(err, apperrors.ErrUnknownEvent):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrLoopStopped),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
