package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kshvakov/docprep/internal/logfields"
	"github.com/kshvakov/docprep/internal/metrics"
)

// Server serves the prepared site over HTTP for local preview. Requests are
// resolved under the configured base path the same way the published site
// resolves them, so rewritten links can be clicked through before deploy.
type Server struct {
	root     string
	basePath string
	recorder *metrics.Recorder

	httpServer *http.Server
	listener   net.Listener
}

// New creates a preview server for the output directory. basePath is the
// site prefix pages were rewritten against (for example "/ai-agent-course");
// it may be empty. recorder may be nil to disable the /metrics endpoint.
func New(root, basePath string, recorder *metrics.Recorder) *Server {
	return &Server{
		root:     root,
		basePath: strings.TrimSuffix(basePath, "/"),
		recorder: recorder,
	}
}

// Start binds the listener. Port 0 picks a free port.
func (s *Server) Start(port int) error {
	if st, err := os.Stat(s.root); err != nil || !st.IsDir() {
		return fmt.Errorf("output directory not found: %s (run a build first)", s.root)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.recorder != nil {
		mux.Handle("/metrics", s.recorder.Handler())
	}
	mux.Handle("/", s.siteHandler())

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("Preview server listening",
		logfields.URL(fmt.Sprintf("http://localhost:%d%s/", s.Port(), s.basePath)),
		logfields.Path(s.root))
	return nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Preview server shutdown error", logfields.Error(err))
		}
		<-errCh
		return ctx.Err()
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}
}

// Port reports the bound port. Valid after Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// siteHandler maps URLs under the base path onto the output tree, serving
// index.md-derived pages as directory indexes do on the published site.
func (s *Server) siteHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upath := r.URL.Path

		if s.basePath != "" {
			if upath == s.basePath {
				http.Redirect(w, r, s.basePath+"/", http.StatusMovedPermanently)
				return
			}
			rest, ok := strings.CutPrefix(upath, s.basePath+"/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			upath = "/" + rest
		}

		clean := filepath.Clean(strings.TrimPrefix(upath, "/"))
		if clean == ".." || strings.HasPrefix(clean, "../") {
			http.NotFound(w, r)
			return
		}

		target := filepath.Join(s.root, clean)
		if st, err := os.Stat(target); err == nil && st.IsDir() {
			// Directory URLs resolve to the page written for them
			if index := filepath.Join(target, "index.md"); fileExists(index) {
				serveMarkdown(w, r, index)
				return
			}
		}
		if fileExists(target) {
			if strings.HasSuffix(target, ".md") {
				serveMarkdown(w, r, target)
				return
			}
			http.ServeFile(w, r, target)
			return
		}
		http.NotFound(w, r)
	})
}

// serveMarkdown sends the raw page with a markdown content type. Rendering
// belongs to the downstream site generator, not the preview.
func serveMarkdown(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	http.ServeFile(w, r, path)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
