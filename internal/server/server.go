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
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vietscribe/internal/config"
	"vietscribe/internal/logging"
	"vietscribe/internal/notifications"
	"vietscribe/internal/pipeline"
	"vietscribe/internal/transcripts"
)

// Server hosts the upload page and the transcription HTTP API. It enforces
// single-instance execution with a lock file so two servers never share the
// work directory.
type Server struct {
	cfg      *config.Config
	store    *transcripts.Store
	pipeline *pipeline.Pipeline
	notifier notifications.Service
	logger   *slog.Logger

	lockPath string
	pidPath  string
	lock     *flock.Flock

	listener net.Listener
	httpSrv  *http.Server
	running  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup
}

// New constructs a server around an existing store and pipeline.
func New(cfg *config.Config, store *transcripts.Store, p *pipeline.Pipeline, notifier notifications.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil || p == nil {
		return nil, errors.New("server requires config, store, and pipeline")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "vietscribe.lock")
	srv := &Server{
		cfg:      cfg,
		store:    store,
		pipeline: p,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "server"),
		lockPath: lockPath,
		pidPath:  filepath.Join(cfg.Paths.LogDir, "vietscribe.pid"),
		lock:     flock.New(lockPath),
	}

	srv.httpSrv = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the HTTP mux for in-process testing.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start acquires the instance lock and begins serving on the configured bind
// address. It returns once the listener is active; serving continues until
// ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vietscribe server is already running")
	}

	if err := os.WriteFile(s.pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("write pid file: %w", err)
	}

	listener, err := net.Listen("tcp", s.cfg.Paths.Bind)
	if err != nil {
		s.releaseLock()
		return fmt.Errorf("listen on %s: %w", s.cfg.Paths.Bind, err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	go func() {
		if serveErr := s.httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(serveErr))
		}
	}()

	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("server listening", logging.String("address", listener.Addr().String()))
	if err := s.notifier.NotifyServerStarted(s.ctx, listener.Addr().String()); err != nil {
		s.logger.Warn("startup notification failed", logging.Error(err))
	}
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts down the HTTP server, waits for in-flight transcriptions, and
// releases the instance lock.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(shutdownCtx)

	s.jobs.Wait()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.releaseLock()
	s.running.Store(false)
	s.logger.Info("server stopped")
}

func (s *Server) releaseLock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release lock", logging.Error(err))
	}
	if err := os.Remove(s.pidPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove pid file", logging.Error(err))
	}
}

// processAsync drives the pipeline for an accepted upload in the background.
// It uses the server's lifetime context so shutdown cancels the work.
func (s *Server) processAsync(token string) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		if _, err := s.pipeline.Process(ctx, token); err != nil {
			s.logger.Error("background processing failed",
				logging.String(logging.FieldToken, token),
				logging.Error(err))
		}
	}()
}
