// Package rest is the HTTP surface of the file service.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/config"
	"github.com/dmitrijs2005/gophfiles/internal/server/metrics"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/requestlog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// FileService is what the handlers need from services.FileService.
type FileService interface {
	CreateFile(ctx context.Context, filename, content, password string) error
	UpdateFile(ctx context.Context, filename, content, password string) error
	DeleteFile(ctx context.Context, filename, password string) error
	ListFiles(ctx context.Context) ([]string, error)
	GetFile(ctx context.Context, filename, password string) ([]byte, error)
}

type Server struct {
	address         string
	maxBodyBytes    int64
	shutdownTimeout time.Duration

	files      FileService
	requestLog requestlog.Repository
	metrics    *metrics.Metrics
	logger     logging.Logger

	handler http.Handler
}

const defaultMaxBodyBytes = 10 << 20

func NewServer(cfg *config.Config, files FileService, rl requestlog.Repository, m *metrics.Metrics, l logging.Logger) *Server {
	s := &Server{
		address:         cfg.EndpointAddrHTTP,
		maxBodyBytes:    cfg.MaxBodyBytes,
		shutdownTimeout: cfg.ShutdownTimeout,
		files:           files,
		requestLog:      rl,
		metrics:         m,
		logger:          l.With("module", "http_server"),
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/createFile", s.createFile).Methods(http.MethodPost)
	r.HandleFunc("/updateFile", s.updateFile).Methods(http.MethodPut)
	r.HandleFunc("/deleteFile", s.deleteFile).Methods(http.MethodDelete)
	r.HandleFunc("/getFiles", s.getFiles).Methods(http.MethodGet)
	r.HandleFunc("/getFile", s.getFile).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(r)

	return s.logRequests(recovered)
}

// Handler returns the complete middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(listen)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
