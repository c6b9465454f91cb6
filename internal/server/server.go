package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coursemind/coursemind/internal/config"
	"github.com/coursemind/coursemind/internal/session"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg      *config.Config
	http     *http.Server
	sessions *session.PostgresStore // held for graceful close; nil with the memory store
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, pgSessions, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}
	s.sessions = pgSessions

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.AgentTimeout+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.sessions != nil {
			s.sessions.Close()
			log.Info().Msg("session store closed")
		}

		return err
	case err := <-errCh:
		return err
	}
}
