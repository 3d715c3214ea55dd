package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// Server serves the gin router over plain HTTP. Websocket connections are
// hijacked out of it and are not waited for on shutdown.
type Server struct {
	http *http.Server
	ln   net.Listener
	log  *zap.SugaredLogger
}

func New(port int, handler http.Handler, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: log,
	}
}

// Start listens and serves in the background. The returned channel
// receives the serve error, or nil after a clean Shutdown, and is closed.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.ln = ln

	finish := make(chan error, 1)
	go func() {
		defer close(finish)
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		finish <- err
	}()
	s.log.Infof("started on %s", ln.Addr())
	return finish, nil
}

// Addr is the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.http.Addr
	}
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.http.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is cancelled or serving fails.
func (s *Server) Run(ctx context.Context) error {
	finish, err := s.Start()
	if err != nil {
		return err
	}

	select {
	case err := <-finish:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-finish
}
