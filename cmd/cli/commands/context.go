package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/internal/config"
	"github.com/jakechorley/spa-booking/pkg/core/services"
	"github.com/jakechorley/spa-booking/pkg/db"
	"github.com/jakechorley/spa-booking/pkg/observability/metrics"
)

// Migrator applies pending schema migrations
type Migrator interface {
	RunMigrations(ctx context.Context) ([]string, error)
}

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Migrator Migrator
	Locker   services.SlotLocker
	Matcher  services.TherapistFinder
	Metrics  *metrics.MatchMetrics
	Logger   *zap.Logger
	Ctx      context.Context
}
