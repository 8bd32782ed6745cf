package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/stashapp/stash/pkg/plugin/common/log"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
	"github.com/smegmarip/stash-portrait-plugin/internal/media"
	"github.com/smegmarip/stash-portrait-plugin/internal/portrait"
)

const (
	maxJSONBodyBytes   = 1 << 20   // 1 MiB
	maxUploadBodyBytes = 512 << 20 // 512 MiB
	healthTimeout      = 5 * time.Second
)

// HealthChecker is implemented by engines that can report liveness
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server is the HTTP control surface over the portrait workflows
type Server struct {
	cfg          *config.Config
	engine       portrait.Engine
	orchestrator *portrait.Orchestrator
	store        *media.Store
	sessions     *Sessions

	// engineMu serialises orchestrator calls; the engine runs one job at a time
	engineMu sync.Mutex

	routes []route
}

type route struct {
	pattern string
	handler http.HandlerFunc
}

// NewServer creates the control surface and validates its route table
func NewServer(cfg *config.Config, engine portrait.Engine, store *media.Store) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("media store is required")
	}
	orchestrator, err := portrait.NewOrchestrator(engine)
	if err != nil {
		return nil, err
	}
	if err := portrait.ValidateResetGroups(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:          cfg,
		engine:       engine,
		orchestrator: orchestrator,
		store:        store,
		sessions:     NewSessions(),
	}
	s.routes = s.routeTable()
	if err := validateRoutes(s.routes); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routeTable() []route {
	return []route{
		{"GET /health", s.handleHealth},
		{"POST /v1/sessions", s.handleCreateSession},
		{"GET /v1/sessions/{id}", s.handleGetSession},
		{"DELETE /v1/sessions/{id}", s.handleDeleteSession},
		{"POST /v1/sessions/{id}/tabs/{tab}", s.handleSelectTab},
		{"POST /v1/sessions/{id}/animate", s.handleAnimate},
		{"POST /v1/sessions/{id}/retargeting/image/source", s.handleRetargetingSource},
		{"POST /v1/sessions/{id}/retargeting/image", s.handleRetargetImage},
		{"POST /v1/sessions/{id}/retargeting/video", s.handleRetargetVideo},
		{"POST /v1/sessions/{id}/reset/{group}", s.handleReset},
		{"POST /v1/assets", s.handleUpload},
		{"GET /v1/media/{name}", s.handleMedia},
	}
}

func validateRoutes(routes []route) error {
	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		if r.handler == nil {
			return fmt.Errorf("route %s has no handler", r.pattern)
		}
		if seen[r.pattern] {
			return fmt.Errorf("route %s registered twice", r.pattern)
		}
		seen[r.pattern] = true
	}
	return nil
}

// Routes returns the handler for every endpoint wrapped in middleware
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	for _, r := range s.routes {
		mux.HandleFunc(r.pattern, r.handler)
	}
	return loggingMiddleware(recoverMiddleware(mux))
}

//
// Middleware
//

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		log.Infof("%s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("panic serving %s: %v", r.URL.Path, err)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

//
// Helpers
//

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Failed to encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, portrait.ErrMissingInput), errors.Is(err, media.ErrInvalidHandle):
		return http.StatusBadRequest
	case errors.Is(err, portrait.ErrInvalidRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, portrait.ErrEngineFailure):
		return http.StatusBadGateway
	case errors.Is(err, portrait.ErrEnvironment):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// requestError is a malformed request the client must fix
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// readJSON decodes a single JSON object body into dst and writes the error
// response itself. An empty body leaves dst untouched.
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "application/json") {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: "content-type must be application/json"})
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, badRequest("invalid JSON body: %v", err))
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, badRequest("body must contain a single JSON object"))
		return false
	}
	return true
}
