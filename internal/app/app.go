package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/auth"
	"github.com/chatlink/chatlink-server/internal/chat"
	"github.com/chatlink/chatlink-server/internal/config"
	"github.com/chatlink/chatlink-server/internal/service/friends"
	"github.com/chatlink/chatlink-server/internal/store"
	"github.com/chatlink/chatlink-server/internal/store/sqlite"
	transporthttp "github.com/chatlink/chatlink-server/internal/transport/http"
)

// App wires together storage, the chat core and the transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	core            *chat.Core
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
	authService := auth.NewService(st, jwtConfig)
	friendsService := friends.New(st, logger)

	gateway := store.NewChatGateway(st)
	core := chat.New(gateway, gateway, gateway, chat.Options{
		QueueSize: cfg.SendQueueSize,
		TypingTTL: cfg.TypingTTL,
	}, logger)

	server := transporthttp.NewServer(core, authService, friendsService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		core:            core,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
