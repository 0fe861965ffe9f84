// Package server exposes lineage sessions to the web UI as a JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"lineageviz/internal/db"
	"lineageviz/internal/graph"
	"lineageviz/internal/ingest"
	"lineageviz/internal/lineage"
	"lineageviz/internal/logger"
	"lineageviz/internal/session"
	"lineageviz/pkg/config"
)

const defaultMaxUpload = 32 << 20

// LoadFunc reads lineage rows from a database.
type LoadFunc func(driver, dsn, table string, timeoutSec int) ([]lineage.RawRow, error)

// Options configures a Server.
type Options struct {
	Database       config.DBConfig // settings offered to the connect form
	TimeoutSec     int
	WebDir         string // static UI; not served when empty
	MaxUploadBytes int64
	Load           LoadFunc // defaults to db.ConnectAndLoad
}

// Server serves the HTTP API.
type Server struct {
	store *session.Store
	opts  Options
}

// New returns a server over store.
func New(store *session.Store, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.TimeoutSec <= 0 {
		opts.TimeoutSec = 10
	}
	if opts.Load == nil {
		opts.Load = db.ConnectAndLoad
	}
	return &Server{store: store, opts: opts}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Get("/dialects", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, db.RegisteredDialects())
		})
		r.Get("/getConnect", s.getConnect)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.getSession))
			r.Delete("/", s.deleteSession)
			r.Post("/upload", s.withSession(s.upload))
			r.Post("/connect", s.withSession(s.connect))
			r.Get("/tables", s.withSession(s.getTables))
			r.Get("/graph", s.withSession(s.getGraph))
			r.Post("/reset", s.withSession(s.reset))
			r.Post("/expand", s.withSession(s.mutation((*session.Session).Expand)))
			r.Post("/collapse", s.withSession(s.mutation((*session.Session).Collapse)))
			r.Post("/toggle", s.withSession(s.mutation((*session.Session).Toggle)))
		})
	})

	if s.opts.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.opts.WebDir)))
	}
	return r
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, err)
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) getConnect(w http.ResponseWriter, r *http.Request) {
	d := s.opts.Database
	writeJSON(w, http.StatusOK, struct {
		OK     bool            `json:"ok"`
		Config config.DBConfig `json:"config"`
	}{OK: true, Config: config.DBConfig{
		Type:         config.NormalizeDriver(d.Type),
		DSN:          d.DSN,
		Host:         d.Host,
		Port:         d.Port,
		Username:     d.Username,
		DatabaseName: d.DatabaseName,
		Table:        d.LineageTable(),
	}})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.store.Create().View())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		httpError(w, session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upload reads a multipart "file" field. A rejected file leaves the
// session's lineage as it was.
func (s *Server) upload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing upload field \"file\": "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := ingest.Read(file, hdr.Filename)
	if err != nil {
		logger.Warn("session %s: rejected %s: %v", sess.ID, hdr.Filename, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sess.Load(rows, hdr.Filename))
}

// connect loads lineage from a database table described by a DBConfig body.
func (s *Server) connect(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var dbReq config.DBConfig
	if err := json.NewDecoder(r.Body).Decode(&dbReq); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	driver, dsn, err := config.BuildDriverAndDSN(dbReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	table := dbReq.LineageTable()
	rows, err := s.opts.Load(driver, dsn, table, s.opts.TimeoutSec)
	if err != nil {
		logger.Error("session %s: load %s table %s: %v", sess.ID, driver, table, err)
		if errors.Is(err, db.ErrUnknownDialect) || isValidation(err) {
			httpError(w, err)
			return
		}
		http.Error(w, "connection failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, sess.Load(rows, fmt.Sprintf("%s:%s", driver, table)))
}

func (s *Server) getTables(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	tables, err := sess.Tables()
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Graph())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	v, err := sess.Reset(req.Table)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type mutationResult struct {
	Changed bool           `json:"changed"`
	Graph   graph.Snapshot `json:"graph"`
}

func (s *Server) mutation(op func(*session.Session, string) (bool, graph.Snapshot, error)) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		var req struct {
			Node string `json:"node"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		changed, g, err := op(sess, req.Node)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mutationResult{Changed: changed, Graph: g})
	}
}

func isValidation(err error) bool {
	return errors.Is(err, ingest.ErrEmptyInput) ||
		errors.Is(err, ingest.ErrMissingColumn) ||
		errors.Is(err, ingest.ErrUnsupportedFormat) ||
		errors.Is(err, session.ErrUnknownTable)
}

func httpError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, session.ErrNoData):
		code = http.StatusConflict
	case errors.Is(err, db.ErrUnknownDialect), isValidation(err):
		code = http.StatusBadRequest
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response: %v", err)
	}
}
