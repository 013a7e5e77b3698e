package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"shenanigigs/common/database"
	"shenanigigs/common/database/schema"
	"shenanigigs/common/database/schema/migrations"
	"shenanigigs/services/starschema/internal/config"
	"shenanigigs/services/starschema/internal/errors"
	"shenanigigs/services/starschema/internal/events"
	"shenanigigs/services/starschema/internal/processor"
	"shenanigigs/services/starschema/internal/report"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "starschema",
		Short:        "Build a job-posting star schema from raw postings",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd(), newMigrateCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var input, format, output, rulesFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transform one input file and load every configured sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if rulesFile != "" {
				cfg.RulesFile = rulesFile
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, cfg.RunTimeout)
			defer cancelTimeout()

			var pipeline *processor.Pipeline
			app := fx.New(pipelineModule(cfg), fx.Populate(&pipeline))
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Stop(context.Background())

			result, err := pipeline.Run(ctx, processor.Request{
				InputPath:   input,
				InputFormat: format,
				OutputDir:   output,
			})
			if err != nil {
				return err
			}

			report.Render(cmd.OutOrStdout(), result.Summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file (overrides INPUT_PATH)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: csv or jsonl (default: from extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory for CSV exports (overrides OUTPUT_DIR)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rule tables (overrides RULES_FILE)")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the star schema whenever a run request arrives over NATS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.NATSURL == "" {
				return fmt.Errorf("serve requires NATS_URL")
			}

			app := fx.New(
				pipelineModule(cfg),
				fx.Provide(
					func(p *processor.Pipeline) events.Runner { return p },
					events.NewHandler,
				),
				fx.Invoke(
					func(handler *events.Handler, lc fx.Lifecycle) error {
						return handler.RegisterSubscriptions(lc)
					},
				),
			)

			if err := app.Start(cmd.Context()); err != nil {
				return err
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c

			return app.Stop(context.Background())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or roll back the star schema tables in ClickHouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.ClickHouseAddr == "" {
				return fmt.Errorf("migrate requires CLICKHOUSE_ADDR")
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			db, err := database.New(ctx, database.Options{
				Addr:     cfg.ClickHouseAddr,
				Database: cfg.ClickHouseDatabase,
				Username: cfg.ClickHouseUsername,
				Password: cfg.ClickHousePassword,
			}, logger)
			if err != nil {
				logger.Error("Failed to connect to ClickHouse", zap.Error(err))
				return err
			}
			defer db.Close()

			if down {
				return rollbackLatest(ctx, db.Conn(), logger)
			}

			applied, err := schema.NewMigrator(db.Conn(), logger).Up(ctx, migrations.All())
			if err != nil {
				logger.Error("Failed to apply migrations", zap.Int("applied", applied), zap.Error(err))
				return err
			}
			logger.Info("All migrations completed successfully", zap.Int("applied", applied))
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recently applied migration")
	return cmd
}

func rollbackLatest(ctx context.Context, conn clickhouse.Conn, logger *zap.Logger) error {
	migrator := schema.NewMigrator(conn, logger)
	if err := migrator.CreateMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	all := migrations.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, ok := applied[all[i].Version]; !ok {
			continue
		}
		logger.Info("Rolling back migration",
			zap.Int("version", all[i].Version),
			zap.String("description", all[i].Description),
		)
		return migrator.RollbackMigration(ctx, all[i])
	}

	logger.Info("No applied migrations to roll back")
	return nil
}
