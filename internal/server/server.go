// Package server implements the layoutc preview server.
//
// The server composes layouts on request so module authors can check a page
// in a browser while editing its documents:
//
//	GET /healthz                      liveness probe
//	GET /handles                      known handles and their modules (JSON)
//	GET /render/{handles}             rendered markup; handles are comma
//	                                  separated, ?block= renders one block and
//	                                  every other query parameter becomes
//	                                  late-bound data
//	GET /tree/{handles}               exported tree; ?stage= and ?format=
//	                                  as in the tree command
//
// Every response carries an X-Request-Id header that also tags the request's
// log line.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	lerrors "github.com/infinri/layoutc/pkg/errors"
	"github.com/infinri/layoutc/pkg/layout/source"
	"github.com/infinri/layoutc/pkg/pipeline"
)

// RequestIDHeader carries the request id.
const RequestIDHeader = "X-Request-Id"

// Response headers describing a composition.
const (
	HeaderCache   = "X-Layout-Cache"
	HeaderDropped = "X-Layout-Dropped"
)

const shutdownTimeout = 5 * time.Second

type ctxKey int

const requestIDKey ctxKey = 0

// Server serves composed layouts over HTTP.
type Server struct {
	runner *pipeline.Runner
	loader *source.Loader
	logger *log.Logger
	router chi.Router
}

// New creates a server. A nil logger uses log.Default().
func New(runner *pipeline.Runner, loader *source.Loader, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, loader: loader, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/handles", s.handleHandles)
	r.Get("/render/{handles}", s.handleRender)
	r.Get("/tree/{handles}", s.handleTree)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

type handleInfo struct {
	Name    string   `json:"name"`
	Modules []string `json:"modules"`
}

func (s *Server) handleHandles(w http.ResponseWriter, r *http.Request) {
	handles := s.loader.Handles()
	out := make([]handleInfo, len(handles))
	for i, h := range handles {
		out[i] = handleInfo{Name: h, Modules: s.loader.Contributors(h)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"handles": out})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := make(map[string]any)
	for k, v := range query {
		if k == "block" || len(v) == 0 {
			continue
		}
		data[k] = v[0]
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Handles: splitHandles(chi.URLParam(r, "handles")),
		Data:    data,
		Block:   query.Get("block"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderCache, cacheStatus(result.CacheInfo.MergeHit))
	w.Header().Set(HeaderDropped, strconv.Itoa(result.Stats.Dropped))
	_, _ = w.Write([]byte(result.Markup))
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	stage := r.URL.Query().Get("stage")
	if stage == "" {
		stage = pipeline.StageProcessed
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatXML
		if stage == pipeline.StageBlocks {
			format = pipeline.FormatDOT
		}
	}
	if err := pipeline.ValidateStage(stage); err != nil {
		s.writeError(w, r, lerrors.New(lerrors.ErrCodeInvalidInput, "%v", err))
		return
	}
	if err := pipeline.ValidateFormat(stage, format); err != nil {
		s.writeError(w, r, lerrors.New(lerrors.ErrCodeInvalidInput, "%v", err))
		return
	}

	comp, err := s.runner.Compose(r.Context(), pipeline.Options{
		Handles: splitHandles(chi.URLParam(r, "handles")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := pipeline.Export(comp, stage, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(out)
}

var contentTypes = map[string]string{
	pipeline.FormatXML:  "application/xml; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
}

// =============================================================================
// Helpers
// =============================================================================

func splitHandles(s string) []string {
	var handles []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			handles = append(handles, h)
		}
	}
	return handles
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", requestIDFrom(r.Context()), "err", err)
	}
	writeJSON(w, status, map[string]string{
		"error":      lerrors.UserMessage(err),
		"code":       string(lerrors.GetCode(err)),
		"request_id": requestIDFrom(r.Context()),
	})
}

func statusFor(err error) int {
	switch lerrors.GetCode(err) {
	case lerrors.ErrCodeInvalidInput, lerrors.ErrCodeInvalidHandle:
		return http.StatusBadRequest
	case lerrors.ErrCodeNotFound, lerrors.ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case lerrors.ErrCodeUnsupportedTag, lerrors.ErrCodeInvalidTemplate, lerrors.ErrCodeTemplateFailed, lerrors.ErrCodeInvalidDocument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
