package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"tracker/internal/auth"
	"tracker/internal/config"
	"tracker/internal/server"
	"tracker/internal/storage"
)

// App owns the database and the HTTP server built from one Config.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *storage.Store
	http   *http.Server
}

// New opens the database, migrating it, and prepares the HTTP server.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	authService := auth.NewService(store, logger, cfg.JWT.Issuer, cfg.JWT.SigningKey, cfg.JWT.AccessTTL)
	srv := server.New(store, authService, logger, cfg.StaticDir)

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		http: &http.Server{
			Addr:    cfg.HTTP.Addr(),
			Handler: srv.Engine(),
		},
	}, nil
}

// Run serves HTTP until ctx is done, then shuts the server down within
// the configured timeout.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.http.Addr).Msg("starting server")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.store.Close()
}

// Migrate applies the schema to the configured database and closes it.
func Migrate(cfg *config.Config, logger zerolog.Logger) error {
	store, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN, logger)
	if err != nil {
		return fmt.Errorf("unable to migrate database: %w", err)
	}
	logger.Info().Str("driver", cfg.DB.Driver).Msg("schema up to date")
	return store.Close()
}
