package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brightleaf-retail/hybrid-join-etl/internal/config"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/db"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/orchestrator"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/sink"
	"github.com/brightleaf-retail/hybrid-join-etl/internal/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "hybrid-join-etl",
		Short: "Streaming hybrid-join ETL engine for the sales data warehouse",
	}
	root.PersistentFlags().String("hs", "", "hash slot cap (env HS)")
	root.PersistentFlags().String("vp", "", "partition size (env VP)")
	root.PersistentFlags().String("partition-cache-size", "", "decoded partitions held at once, 0 = all (env PARTITION_CACHE_SIZE)")
	root.PersistentFlags().String("commit-batch", "", "facts per commit (env COMMIT_BATCH)")
	root.PersistentFlags().String("database-url", "", "sink connection string (env DATABASE_URL)")
	root.PersistentFlags().String("nats-url", "", "progress publisher URL (env NATS_URL)")
	root.PersistentFlags().String("log-level", "", "zerolog level (env LOG_LEVEL)")
	_ = v.BindPFlag("HS", root.PersistentFlags().Lookup("hs"))
	_ = v.BindPFlag("VP", root.PersistentFlags().Lookup("vp"))
	_ = v.BindPFlag("PARTITION_CACHE_SIZE", root.PersistentFlags().Lookup("partition-cache-size"))
	_ = v.BindPFlag("COMMIT_BATCH", root.PersistentFlags().Lookup("commit-batch"))
	_ = v.BindPFlag("DATABASE_URL", root.PersistentFlags().Lookup("database-url"))
	_ = v.BindPFlag("NATS_URL", root.PersistentFlags().Lookup("nats-url"))
	_ = v.BindPFlag("LOG_LEVEL", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newMigrateCmd(v))
	return root
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the hybrid-join ETL engine to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintln(os.Stderr, "no .env file found, using environment variables")
			}

			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			log := telemetry.New(cfg.LogLevel)

			snk, err := sink.Open(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("opening sink: %w", err)
			}

			return orchestrator.Run(context.Background(), cfg, snk, log)
		},
	}
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending warehouse schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintln(os.Stderr, "no .env file found, using environment variables")
			}

			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return db.RunMigrations(cfg.DatabaseURL, "migrations")
		},
	}
}
