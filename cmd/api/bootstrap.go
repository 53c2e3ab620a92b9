package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
)

// appEnv holds what every command needs: configuration, a logger and
// the database handle.
type appEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func bootstrap(ctx context.Context) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &appEnv{cfg: cfg, logger: logger, pg: pg}, nil
}

func (r *appEnv) close() {
	r.pg.Close()
	_ = r.logger.Sync()
}
