package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"mediaprops/internal/config"
	"mediaprops/internal/logger"
	"mediaprops/internal/mediaprops"
)

var errOutsideRoot = errors.New("path is outside the library root")

type Server struct {
	ctx    context.Context
	media  *mediaprops.Media
	jobMgr *JobManager
	config config.Config
	logger *logger.Logger
	root   string
}

// NewServer serves the files under cfg.LibraryRoot. Batch jobs are cancelled
// when ctx is.
func NewServer(ctx context.Context, media *mediaprops.Media, jobMgr *JobManager, cfg config.Config, log *logger.Logger) (*Server, error) {
	root, err := filepath.Abs(cfg.LibraryRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root %s: %w", cfg.LibraryRoot, err)
	}
	return &Server{
		ctx:    ctx,
		media:  media,
		jobMgr: jobMgr,
		config: cfg,
		logger: log,
		root:   root,
	}, nil
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/properties", s.handleProperties)
	mux.HandleFunc("/api/files/property", s.handleFileProperty)
	mux.HandleFunc("/api/files/properties", s.handleFileProperties)
	mux.HandleFunc("/api/batch", s.handleBatch)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// resolve maps a request path onto the filesystem. Relative paths are taken
// from the library root; the result must stay inside it. Symlinks are not
// followed for the check.
func (s *Server) resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, p)
	}
	return p, nil
}

// relative renders an absolute path for API responses.
func (s *Server) relative(p string) string {
	if rel, err := filepath.Rel(s.root, p); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}
