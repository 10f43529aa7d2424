// Package api serves the snapshot pipeline over HTTP. Each request parses its upload once
// and nothing is retained after the response.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/archive"
	"github.com/theimaginaryfoundation/pdt/snapshot/card"
)

const (
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 512 << 20

	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr           string
	MaxUploadBytes int64
	Tuning         *snapshot.Tuning
	Now            func() time.Time
	Logger         *zap.Logger
}

type Server struct {
	router    *chi.Mux
	addr      string
	maxUpload int64
	parser    *snapshot.Parser
	now       func() time.Time
	logger    *zap.Logger
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	parser, err := snapshot.NewParser(snapshot.ParseOptions{Tuning: cfg.Tuning, Now: cfg.Now, Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("api.NewServer: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(cfg.Logger))
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		addr:      cfg.Addr,
		maxUpload: cfg.MaxUploadBytes,
		parser:    parser,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}

	router.Get("/health", s.handleHealth)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/snapshot", s.handleSnapshot)
		r.Post("/archive", s.handleArchive)
		r.Post("/card", s.handleCard)
	})

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("API server stopping")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type snapshotResponse struct {
	Snapshot      snapshot.Snapshot      `json:"snapshot"`
	EvidenceCount int                    `json:"evidence_count"`
	Evidence      []snapshot.EvidenceRow `json:"evidence,omitempty"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	resp := snapshotResponse{Snapshot: res.Snapshot, EvidenceCount: len(res.Evidence)}
	if flag(r, "evidence") {
		resp.Evidence = res.Evidence
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := archive.Build(&buf, res.Snapshot, res.Evidence, archive.Options{Now: s.now, Logger: s.logger}); err != nil {
		s.logger.Error("archive build failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.DefaultFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	c := card.Customization{
		DisplayName: q.Get("name"),
		Role:        q.Get("role"),
		Location:    q.Get("location"),
		Tagline:     q.Get("tagline"),
	}
	writeJSON(w, http.StatusOK, card.FromSnapshot(res.Snapshot, c, nil))
}

// parseUpload parses the request body as an export. On failure it writes the error
// response and returns false.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (snapshot.Result, bool) {
	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	defer body.Close()

	res, err := s.parser.ParseReader(r.Context(), body)
	if err != nil {
		status, msg := classifyParseError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("parse failed", zap.Error(err))
		} else {
			s.logger.Debug("rejected upload", zap.Int("status", status), zap.Error(err))
		}
		writeError(w, status, msg)
		return snapshot.Result{}, false
	}
	return res, true
}

func classifyParseError(err error) (int, string) {
	var (
		tooLarge  *http.MaxBytesError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, snapshot.ErrNotArray):
		return http.StatusUnprocessableEntity, snapshot.ErrNotArray.Error()
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusUnprocessableEntity, "upload is not valid JSON"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	}
	return http.StatusInternalServerError, "failed to parse upload"
}

func flag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
