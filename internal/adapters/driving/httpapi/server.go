package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/logger"
)

// Server timeouts. WriteTimeout leaves room for a full generation call.
const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// maxBodyBytes caps the size of a chat request body.
const maxBodyBytes = 1 << 20

// Server serves the chat endpoint.
type Server struct {
	chat        driving.ChatService
	transcripts driven.TranscriptStore
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithTranscripts records every answered question in store.
func WithTranscripts(store driven.TranscriptStore) Option {
	return func(s *Server) {
		s.transcripts = store
	}
}

// NewServer creates a new HTTP server around the chat service.
func NewServer(chat driving.ChatService, opts ...Option) *Server {
	s := &Server{chat: chat}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/transcripts", s.handleTranscripts)
	mux.HandleFunc("/healthz", s.handleHealth)
	s.handler = logRequests(mux)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then shuts
// down gracefully, letting in-flight requests finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", listener.Addr())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs method, path, status and latency of each request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Request(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
