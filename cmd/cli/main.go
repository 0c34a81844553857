package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/spa-booking/cmd/cli/commands"
	"github.com/jakechorley/spa-booking/internal/config"
	"github.com/jakechorley/spa-booking/pkg/core/matcher"
	"github.com/jakechorley/spa-booking/pkg/core/matcher/criteria"
	"github.com/jakechorley/spa-booking/pkg/observability/metrics"
	"github.com/jakechorley/spa-booking/pkg/postgres"
	"github.com/jakechorley/spa-booking/pkg/redislock"
	"github.com/jakechorley/spa-booking/pkg/utils/logging"
)

var (
	env         string
	app         = &commands.AppContext{}
	database    *postgres.DB
	redisClient *redis.Client
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Spa booking CLI - Match and book therapists",
		Long:  `A CLI tool for booking spa appointments, assigning therapists automatically, and managing therapist availability.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.MatchCmd(app))
	rootCmd.AddCommand(commands.BookCmd(app))
	rootCmd.AddCommand(commands.SetStatusCmd(app))
	rootCmd.AddCommand(commands.AssignCmd(app))
	rootCmd.AddCommand(commands.GenerateAvailabilityCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up config, logger, database, slot locker, metrics and matcher
func initApp() error {
	var err error
	app.Ctx = context.Background()

	if err := config.LoadDotEnv(".env."+env, ".env"); err != nil {
		return err
	}

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger, err = logging.InitLogger(env, app.Cfg.LogsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Connecting to database")
	database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = database
	app.Migrator = database
	app.Logger.Debug("Database connected successfully")

	if app.Cfg.RedisAddr != "" {
		app.Logger.Info("Connecting to redis", zap.String("addr", app.Cfg.RedisAddr))
		redisClient = redis.NewClient(&redis.Options{
			Addr:     app.Cfg.RedisAddr,
			Password: app.Cfg.RedisPassword,
		})
		if err := redisClient.Ping(app.Ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Locker = redislock.New(redisClient, app.Cfg.SlotLockTTL)
	} else {
		app.Logger.Warn("No redis address configured, bookings rely on database locking only")
	}

	app.Metrics = metrics.NewMatchMetrics(nil)
	app.Matcher = matcher.New(database, database, database, criteria.Default(database, app.Cfg.Weights()), app.Logger)

	app.Logger.Debug("Application initialized",
		zap.String("unassigned_policy", string(app.Cfg.UnassignedPolicy)),
		zap.Int("shift_patterns", len(app.Cfg.ShiftPatterns)))
	return nil
}

func shutdown() {
	if redisClient != nil {
		redisClient.Close()
		redisClient = nil
	}
	if database != nil {
		database.Close()
		database = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
