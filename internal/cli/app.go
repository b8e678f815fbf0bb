package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/zap"

	"github.com/mintsurvey/survey-service/internal/cache"
	"github.com/mintsurvey/survey-service/internal/config"
	"github.com/mintsurvey/survey-service/internal/repositories"
	"github.com/mintsurvey/survey-service/internal/repositories/memory"
	"github.com/mintsurvey/survey-service/internal/repositories/postgres"
	"github.com/mintsurvey/survey-service/internal/sessions"
	"github.com/mintsurvey/survey-service/internal/utils"
	"github.com/mintsurvey/survey-service/pkg"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg    *config.Config
	logger utils.Logger

	repo    repositories.Repository
	cache   cache.CacheService
	store   sessions.Store
	closers []func() error
}

func (a *app) slog() *slog.Logger {
	return utils.ToSlogLogger(a.logger)
}

// openStorage connects the response repository selected by STORAGE.
func (a *app) openStorage(migrate bool) error {
	if a.cfg.Storage == "memory" {
		a.repo = memory.NewRepository()
		a.logger.Warn("Using in-memory storage, responses are lost on restart")
		return nil
	}

	db, err := pkg.InitDatabase(a.cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	repo := postgres.NewRepository(db)
	a.repo = repo
	a.closers = append(a.closers, repo.Close)
	a.logger.Info("Connected to PostgreSQL")
	return nil
}

// openCache connects Redis when sessions live there, otherwise keeps both
// the session store and the list cache in process.
func (a *app) openCache(ctx context.Context) error {
	if a.cfg.SessionStore != "redis" {
		a.cache = cache.NewMemoryCache()
		a.store = sessions.NewMemoryStore(a.cfg.SessionTTL)
		return nil
	}

	client, err := pkg.NewRedisClient(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, client.Close)

	zl, err := newZapLogger(a.cfg.Debug)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		_ = zl.Sync()
		return nil
	})

	a.cache = cache.NewRedisCache(client, "survey:", zl)
	a.store = sessions.NewCacheStore(a.cache, a.cfg.SessionTTL)
	a.logger.Info("Connected to Redis")
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newZapLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
