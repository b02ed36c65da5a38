package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suteetoe/ekklesia/pkg/config"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"github.com/suteetoe/ekklesia/prometheus"
)

var (
	configPath string
	conf       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ekklesia",
	Short: "Church tree and metrics API",
	Long: `Ekklesia serves a per-user tree of churches, the metric definitions counted
on every church and a free-form settings object.

COMMANDS:

  serve     Run the HTTP API (default)
  migrate   Create or update the database schema
  export    Write a JSON backup of every table

CONFIGURATION:

  Settings come from an optional YAML file (--config or CONFIG_FILE), then
  from the environment (DB_DRIVER, DB_HOST, SERVER_PORT, JWT_SIGNING_KEY, ...).
  A .env file in the working directory is loaded when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		if err := logger.InitLogger(&logger.LogConfig{
			Level:       conf.Log.Level,
			Environment: conf.Server.Env,
			ServiceName: conf.ServiceName,
		}); err != nil {
			return fmt.Errorf("error initializing logger: %w", err)
		}

		prometheus.InitMetrics(conf)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.GetLogger().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: $CONFIG_FILE)")
}
