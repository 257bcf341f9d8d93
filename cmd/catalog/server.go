package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/artpar/catalog/internal/shell/api"
	"github.com/artpar/catalog/internal/shell/api/middleware"
	"github.com/artpar/catalog/internal/shell/locks"
	"github.com/artpar/catalog/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitLockError       = 3
	ExitHTTPServerError = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the catalog application server.
type Server struct {
	config      *Config
	httpServer  *http.Server
	store       store.Store
	redisLocker *locks.RedisLocker
	logger      *slog.Logger
}

// NewServer opens the store, builds the lock backend and wires the API.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	if err := ensureDataDir(cfg.Database); err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	s, err := store.NewStore(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	var locker locks.Locker
	var redisLocker *locks.RedisLocker
	switch cfg.Locks.Backend {
	case "redis":
		redisLocker, err = locks.NewRedisLocker(ctx, locks.RedisConfig{
			Addr:     cfg.Locks.Redis.Addr,
			Password: cfg.Locks.Redis.Password,
			DB:       cfg.Locks.Redis.DB,
			TTL:      cfg.Locks.TTL,
			Logger:   logger,
		})
		if err != nil {
			s.Close()
			return nil, &ServerError{
				Op:       "NewServer",
				Err:      err,
				ExitCode: ExitLockError,
			}
		}
		locker = redisLocker
		logger.Info("using redis name locks", "addr", cfg.Locks.Redis.Addr)
	default:
		locker = locks.NewMemoryLocker()
	}

	handler := api.SetupAPI(api.APIConfig{
		Store:   s,
		Locker:  locker,
		Logger:  logger,
		Version: Version,
		Auth: middleware.AuthConfig{
			Mode:         cfg.Auth.Mode,
			SharedSecret: cfg.Auth.SharedSecret,
			JWTSecret:    cfg.Auth.JWTSecret,
			Logger:       logger,
		},
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:      cfg,
		httpServer:  httpServer,
		store:       s,
		redisLocker: redisLocker,
		logger:      logger,
	}, nil
}

// ensureDataDir creates the parent directory of a SQLite database file.
func ensureDataDir(cfg DatabaseConfig) error {
	if cfg.Driver != store.DriverSQLite || strings.HasPrefix(cfg.DSN, "file:") || strings.Contains(cfg.DSN, ":memory:") {
		return nil
	}
	path, _, _ := strings.Cut(cfg.DSN, "?")
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.closeResources()
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.closeResources()

	s.logger.Info("shutdown complete")
	return nil
}

func (s *Server) closeResources() {
	if s.redisLocker != nil {
		if err := s.redisLocker.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
