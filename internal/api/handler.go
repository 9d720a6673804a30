// Package api exposes the analyzer and history store over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kresler/callsight/internal/analyzer"
	"github.com/kresler/callsight/internal/groq"
	"github.com/kresler/callsight/internal/history"
)

const maxRequestBodySize = 1 << 20 // 1MB

// TranscriptAnalyzer is the analysis operation the handler depends on.
type TranscriptAnalyzer interface {
	Analyze(ctx context.Context, transcript string) (analyzer.Result, error)
}

// Deps holds everything the HTTP handler needs.
type Deps struct {
	Analyzer TranscriptAnalyzer
	Store    *history.Store

	// Rate limiting for the analyze route. RateLimitMax <= 0 disables it.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewHandler returns the service router: analyze, history, export, health,
// and the OpenAPI document.
func NewHandler(deps Deps) http.Handler {
	limiter := newRateLimiter(deps.RateLimitMax, deps.RateLimitWindow)

	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Post("/api/analyze", handleAnalyze(deps, limiter))
	r.Get("/history", handleHistory(deps))
	r.Get("/download", handleDownload(deps))
	r.Get("/openapi.json", handleOpenAPI)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type analyzeRequest struct {
	Transcript string `json:"transcript"`
}

type analyzeResponse struct {
	OK         bool   `json:"ok"`
	ID         string `json:"id"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Sentiment  string `json:"sentiment"`
	Timestamp  string `json:"timestamp"`
	Truncated  bool   `json:"truncated,omitempty"`
}

func handleAnalyze(deps Deps, limiter *rateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		if !limiter.allow(clientKey(r)) {
			httpError(w, http.StatusTooManyRequests, "rate_limit_error", "rate limit exceeded, try again later")
			return
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		id := uuid.New().String()
		started := time.Now()

		res, err := deps.Analyzer.Analyze(r.Context(), req.Transcript)
		if err != nil {
			status, errType := analyzeStatus(err)
			slog.Warn("analysis failed", "id", id, "error", err, "type", errType)
			httpError(w, status, errType, "%v", err)
			return
		}

		rec := history.Record{
			Timestamp:  time.Now().UTC(),
			Transcript: res.Transcript,
			Summary:    res.Summary,
			Sentiment:  string(res.Sentiment),
		}
		if err := deps.Store.Append(rec); err != nil {
			slog.Error("persisting analysis failed", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "storage_error", "%v", err)
			return
		}

		slog.Info("analysis completed",
			"id", id,
			"sentiment", res.Sentiment,
			"truncated", res.Truncated,
			"duration_ms", time.Since(started).Milliseconds(),
		)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(analyzeResponse{
			OK:         true,
			ID:         id,
			Transcript: rec.Transcript,
			Summary:    rec.Summary,
			Sentiment:  rec.Sentiment,
			Timestamp:  rec.TimestampString(),
			Truncated:  res.Truncated,
		})
	}
}

// analyzeStatus maps an analysis failure to an HTTP status and error type,
// keeping timeouts distinguishable from outright upstream failures.
func analyzeStatus(err error) (int, string) {
	var ce *analyzer.ClassificationError
	var ue *groq.UpstreamError
	switch {
	case errors.Is(err, analyzer.ErrEmptyTranscript):
		return http.StatusBadRequest, "invalid_request_error"
	case groq.IsTimeout(err):
		return http.StatusGatewayTimeout, "timeout_error"
	case errors.Is(err, groq.ErrUnauthorized):
		return http.StatusBadGateway, "authentication_error"
	case errors.Is(err, groq.ErrRateLimited):
		return http.StatusBadGateway, "rate_limit_error"
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity, "classification_error"
	case errors.As(err, &ue):
		return http.StatusBadGateway, "api_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}

type recordView struct {
	Timestamp  string `json:"timestamp"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Sentiment  string `json:"sentiment"`
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.ReadAll()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "reading history: %v", err)
			return
		}

		views := make([]recordView, len(records))
		for i, rec := range records {
			views[i] = recordView{
				Timestamp:  rec.TimestampString(),
				Transcript: rec.Transcript,
				Summary:    rec.Summary,
				Sentiment:  rec.Sentiment,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}

func handleDownload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="call_analysis.csv"`)

		if _, err := deps.Store.ExportTo(w); err != nil {
			if errors.Is(err, history.ErrNoHistory) {
				w.Header().Del("Content-Disposition")
				httpError(w, http.StatusNotFound, "invalid_request_error", "no history available yet")
				return
			}
			// Headers are already written; log and give up on the body.
			slog.Error("export failed mid-stream", "error", err)
		}
	}
}

// clientKey identifies the requester for rate limiting.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"ok": false,
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
