// Package api serves the cell library over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness and build version
//	GET  /cells            registered cells with their defaults
//	POST /cells/{name}     build a cell; body {"params": {...}, "formats": [...], "check": true}
//	POST /netlists         build a netlist given as JSON
//	GET  /layouts/{key}    a stored layout document
//
// Every response carries an X-Request-ID header.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/pcellkit/pkg/buildinfo"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/netlist"
	"github.com/matzehuels/pcellkit/pkg/observability"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/pipeline"
	"github.com/matzehuels/pcellkit/pkg/storage"
)

// maxBody bounds request bodies.
const maxBody = 4 << 20

// Server is the HTTP front end of a [pipeline.Runner].
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server. Built layouts are saved to store, which also
// serves GET /layouts; the runner's own Store is replaced.
func New(runner *pipeline.Runner, store storage.Store, logger *log.Logger) *Server {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = runner.Logger
	}
	runner.Store = store
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/cells", s.listCells)
	r.Post("/cells/{name}", s.buildCell)
	r.Post("/netlists", s.buildNetlist)
	r.Get("/layouts/{key}", s.getLayout)
	s.router = r
	return s
}

// Handler returns the root handler.
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
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type ctxKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the request id stored in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), dur)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", dur,
			"request_id", RequestID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

type cellInfo struct {
	Name     string       `json:"name"`
	Doc      string       `json:"doc,omitempty"`
	Defaults pcell.Params `json:"defaults"`
}

func (s *Server) listCells(w http.ResponseWriter, r *http.Request) {
	cells := s.runner.Library.Cells()
	out := make([]cellInfo, len(cells))
	for i, c := range cells {
		out[i] = cellInfo{Name: c.Name, Doc: c.Doc, Defaults: c.Defaults}
	}
	writeJSON(w, http.StatusOK, out)
}

// BuildRequest is the body of POST /cells/{name}.
type BuildRequest struct {
	Params  pcell.Params `json:"params,omitempty"`
	Formats []string     `json:"formats,omitempty"`
	Check   bool         `json:"check,omitempty"`
}

// BuildResponse describes a built component. Layout is the JSON layout
// document; other formats are returned as strings.
type BuildResponse struct {
	Key       string            `json:"key"`
	Cells     int               `json:"cells"`
	Polygons  int               `json:"polygons"`
	Cached    bool              `json:"cached"`
	Layout    json.RawMessage   `json:"layout,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

func (s *Server) buildCell(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if !decode(w, r, &req) {
		return
	}
	s.run(w, r, pipeline.Options{
		Cell:    chi.URLParam(r, "name"),
		Params:  req.Params,
		Formats: req.Formats,
		Check:   req.Check,
	})
}

func (s *Server) buildNetlist(w http.ResponseWriter, r *http.Request) {
	var n netlist.Netlist
	if !decode(w, r, &n) {
		return
	}
	if err := n.Validate(); err != nil {
		writeError(w, err)
		return
	}
	s.run(w, r, pipeline.Options{Netlist: &n})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := BuildResponse{
		Key:      res.Signature,
		Cells:    res.Stats.Cells,
		Polygons: res.Stats.Polygons,
		Cached:   res.CacheInfo.ExportHit,
	}
	for f, data := range res.Artifacts {
		if f == pipeline.FormatJSON {
			resp.Layout = data
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[f] = string(data)
	}
	if res.Report != nil {
		for _, v := range res.Report.Warnings {
			resp.Warnings = append(resp.Warnings, v.Error())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.runner.Layout(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return false
	}
	return true
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusOf(code), errorBody{Code: code, Message: errors.UserMessage(err), Detail: err.Error()})
}

func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeCellNotFound, errors.ErrCodePortNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidParams, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidNetlist:
		return http.StatusBadRequest
	case errors.ErrCodeGeometry, errors.ErrCodePortMismatch, errors.ErrCodeRouting:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
