package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blockedby/channel-stats/internal/config"
	"github.com/blockedby/channel-stats/internal/logger"
)

var (
	logLevel string
	cfg      *config.Config
	log      *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "statsctl",
	Short: "statsctl - operate the channel stats store",
	Long: `statsctl runs one-off ingestions, lists stored channels,
manages the postgres schema and tails ingestion events from NATS.
Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		// stdout carries command output
		log, err = logger.NewWithWriter(level, cfg.LogFile, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: LOG_LEVEL or info)")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
