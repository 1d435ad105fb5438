// Package server exposes a trained bot over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/chatter"
	"github.com/poiesic/chatter/metrics"
	"github.com/poiesic/chatter/search"
)

// Asker answers a single query. *chatter.Bot implements it.
type Asker interface {
	Ask(ctx context.Context, query string) (*chatter.Reply, error)
	Trained() bool
}

// AskResponse is the JSON body returned by /ask.
type AskResponse struct {
	Query   string  `json:"query"`
	Answer  string  `json:"answer"`
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
}

type Handler struct {
	asker  Asker
	logger *slog.Logger
}

func NewHandler(asker Asker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		asker:  asker,
		logger: logger.With("component", "ask-handler"),
	}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	reply, err := h.asker.Ask(r.Context(), query)
	switch {
	case errors.Is(err, chatter.ErrNotTrained):
		h.writeError(w, http.StatusServiceUnavailable, "bot has not been trained")
		return
	case errors.Is(err, search.ErrTimeBudgetExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "query exceeded its time budget")
		return
	case err != nil:
		h.logger.Error("query failed", "query", query, "error", err)
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	h.writeJSON(w, http.StatusOK, &AskResponse{
		Query:   query,
		Answer:  reply.Text,
		Matched: reply.Matched,
		Score:   reply.Score,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.asker.Trained() {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "untrained"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// NewMux routes /ask and /healthz, plus /metrics when m is not nil.
func NewMux(asker Asker, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	h := NewHandler(asker, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ask", h.Ask)
	mux.HandleFunc("GET /healthz", h.Health)
	if m == nil {
		return mux
	}
	mux.Handle("GET /metrics", m.Handler())
	return Metrics(m)(mux)
}

// Metrics returns middleware that records HTTP request count and latency.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			m.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(sw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("chatter listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("chatter stopped")
	return nil
}
