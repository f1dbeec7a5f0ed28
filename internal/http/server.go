package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type Server struct {
	srv *http.Server
}

func NewServer(addr string, cfg RouterConfig) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
