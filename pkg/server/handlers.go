package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/hub"
	"mercator-hq/callisto/pkg/metrics"
)

// maxIngestBody bounds ingestion payload size. Samples are tiny; a
// megabyte already means a confused sender.
const maxIngestBody = 1 << 20

// routes builds the handler tree.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("GET /api/services", s.handleServices)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /stream", s.handleStream)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return accessLog(mux)
}

// handleIngest accepts one sample payload, persists it and acknowledges
// with 201. Validation failures are 400, storage failures 500.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload hub.Payload
	body := http.MaxBytesReader(w, r.Body, maxIngestBody)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sample, err := s.pipeline.Ingest(r.Context(), payload)
	if err != nil {
		var validationErr *metrics.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to persist sample")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "ts": sample.Timestamp})
}

// handleServices lists known service names.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.query.ListServices(r.Context()))
}

// handleSeries returns one service's series since a timestamp.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	if service == "" {
		writeError(w, http.StatusBadRequest, "service query param required")
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an integer timestamp")
			return
		}
		since = parsed
	}

	writeJSON(w, http.StatusOK, s.query.SeriesSince(r.Context(), service, since))
}

// handleLatest returns the latest snapshot per service.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.query.LatestAll(r.Context()))
}

// handleStream serves the live sample feed as server-sent events: one
// data frame per broadcast sample, comment frames as keepalives while
// idle. Disconnecting clients are unsubscribed exactly once via defer;
// a subscriber dropped by the registry for falling behind sees its
// channel close and the handler ends the response.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.registry.Subscribe()
	defer s.registry.Unsubscribe(sub)

	keepalive := time.NewTicker(s.keepaliveInterval())
	defer keepalive.Stop()

	for {
		select {
		case sample, open := <-sub.C():
			if !open {
				// Dropped by the registry for not keeping up.
				return
			}
			data, err := json.Marshal(sample)
			if err != nil {
				slog.Error("stream sample encode failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleMetrics serves the exposition snapshot. The renderer never
// fails visibly, so this endpoint always answers 200.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	body, contentType := s.renderer.Render(r.Context())
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleHealthz reports process liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
