// Package server exposes the pipeline over a JSON HTTP API with per-user sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/internal/secrets"
)

// Runner executes one pipeline run. *pipeline.Controller implements it.
type Runner interface {
	Run(ctx context.Context, session *pipeline.Session, sample findings.CodeSample) *pipeline.Result
}

// AnalyseRequest is the body of an analyse call.
type AnalyseRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Redact   bool   `json:"redact"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Secrets []string `json:"secrets,omitempty"`
}

// Server holds the HTTP handlers.
type Server struct {
	runner       Runner
	sessions     *Registry
	maxCodeBytes int
	logger       hclog.Logger
}

// New creates a server. A maxCodeBytes of zero or less disables the size check.
func New(runner Runner, maxCodeBytes int, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		runner:       runner,
		sessions:     NewRegistry(pipeline.WithObserver(logObserver(logger))),
		maxCodeBytes: maxCodeBytes,
		logger:       logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/analyse", s.handleAnalyse)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	session := s.sessions.Create()
	s.logger.Debug("session created", "session", session.ID())
	writeJSON(w, http.StatusCreated, map[string]string{"id": session.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sample, status, resp := s.decodeSample(w, r)
	if resp != nil {
		writeJSON(w, status, resp)
		return
	}

	if !session.TryAcquire() {
		writeError(w, http.StatusConflict, "an analysis is already running for this session")
		return
	}
	defer session.Release()

	logger := s.logger.With("session", session.ID())
	logger.Info("analysis started", "language", sample.Language, "bytes", len(sample.Code))
	result := s.runner.Run(r.Context(), session, sample)
	logger.Info("analysis finished", "run_id", result.RunID, "state", result.State)

	writeJSON(w, http.StatusOK, result)
}

// decodeSample validates the request body. On failure it returns the status and error body to send.
func (s *Server) decodeSample(w http.ResponseWriter, r *http.Request) (findings.CodeSample, int, *ErrorResponse) {
	if s.maxCodeBytes > 0 {
		// JSON escaping can grow the code, so the body limit is looser than the code limit
		r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxCodeBytes)*6+4096)
	}

	var req AnalyseRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return findings.CodeSample{}, http.StatusBadRequest, &ErrorResponse{Error: fmt.Sprintf("request body exceeds the limit of %d bytes", maxErr.Limit)}
		}
		return findings.CodeSample{}, http.StatusBadRequest, &ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)}
	}

	if s.maxCodeBytes > 0 && len(req.Code) > s.maxCodeBytes {
		return findings.CodeSample{}, http.StatusBadRequest, &ErrorResponse{Error: fmt.Sprintf("code exceeds the limit of %d bytes", s.maxCodeBytes)}
	}

	language, err := findings.NormalizeLanguage(req.Language)
	if err != nil {
		return findings.CodeSample{}, http.StatusBadRequest, &ErrorResponse{Error: err.Error()}
	}

	sample := findings.CodeSample{Code: req.Code, Language: language}
	if kinds := secrets.Detect(sample.Code); len(kinds) > 0 {
		if !req.Redact {
			return findings.CodeSample{}, http.StatusUnprocessableEntity, &ErrorResponse{
				Error:   fmt.Sprintf("potential secrets detected (%s): remove them or set redact", strings.Join(kinds, ", ")),
				Secrets: kinds,
			}
		}
		sample.Code = secrets.Redact(sample.Code)
	}
	return sample, 0, nil
}

func logObserver(logger hclog.Logger) pipeline.Observer {
	return func(ev pipeline.Event) {
		switch ev.Kind {
		case pipeline.EventTransition:
			logger.Debug("pipeline transition", "from", ev.From, "to", ev.To)
		case pipeline.EventRetry:
			logger.Warn("pipeline retry", "stage", ev.Stage, "attempt", ev.Attempt, "delay", ev.Delay)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
