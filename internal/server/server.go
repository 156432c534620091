// Package server exposes profile building over HTTP for downstream
// processes that cannot shell out to the CLI.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cognicore/aigent/pkg/aigent"
	"github.com/cognicore/aigent/pkg/aigent/annotate"
	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/store"
)

// DefaultMaxBodyBytes caps request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 4 << 20

// Options configures a Server.
type Options struct {
	MaxBodyBytes int64
	Logger       *slog.Logger

	// Annotator serves /v1/annotate; nil uses the built-in rule tagger.
	Annotator annotate.Annotator
}

// Server routes requests to an Aigent.
type Server struct {
	engine    *aigent.Aigent
	annotator annotate.Annotator
	maxBody   int64
	logger    *slog.Logger
	router    chi.Router
}

// New creates a server around engine.
func New(engine *aigent.Aigent, opts Options) *Server {
	s := &Server{
		engine:    engine,
		annotator: opts.Annotator,
		maxBody:   opts.MaxBodyBytes,
		logger:    opts.Logger,
	}
	if s.annotator == nil {
		s.annotator = annotate.NewRuleTagger(nil)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/profiles/{handle}", s.handleProcess)
		r.Get("/profiles/{handle}", s.handleGetProfile)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/annotate", s.handleAnnotate)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /v1/profiles/{handle}: build and store the profile of a stored
// character.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Process(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeProfile(w, http.StatusOK, p)
}

// GET /v1/profiles/{handle}
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	st := s.engine.Store()
	if st == nil {
		s.writeError(w, r, fmt.Errorf("%w: no store configured", internalerr.ErrStoreUnavailable))
		return
	}
	if err := store.ValidateHandle(handle); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := st.LoadProfile(r.Context(), handle)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeProfile(w, http.StatusOK, p)
}

// POST /v1/analyze: body is a character record plus a "handle" field. The
// profile is returned but not stored.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	c, err := store.DecodeCharacter(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Handle string `json:"handle"`
	}
	// DecodeCharacter already accepted the body as a JSON object
	_ = json.Unmarshal(body, &req)

	p, err := s.engine.Build(r.Context(), req.Handle, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeProfile(w, http.StatusOK, p)
}

// POST /v1/annotate: {"text": "..."} in, annotation out. This is the
// endpoint internal/remote talks to.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Text == nil {
		s.writeError(w, r, fmt.Errorf("%w: body must be {\"text\": \"...\"}", internalerr.ErrInvalidInput))
		return
	}

	ann, err := s.annotator.Annotate(r.Context(), *req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ann.Tokens == nil {
		ann.Tokens = []annotate.Token{}
	}
	if ann.Sentences == nil {
		ann.Sentences = []annotate.Sentence{}
	}
	writeJSON(w, http.StatusOK, ann)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return nil, false
		}
		s.writeError(w, r, fmt.Errorf("%w: read body: %v", internalerr.ErrInvalidInput, err))
		return nil, false
	}
	return body, true
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, annotate.ErrUnannotatable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, annotate.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeProfile(w http.ResponseWriter, status int, p store.Profile) {
	data, err := store.EncodeProfile(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
