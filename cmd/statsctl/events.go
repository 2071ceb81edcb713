package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blockedby/channel-stats/internal/nats"
)

var eventsConsumer string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail ingestion events from NATS",
	Long: `Events prints every channels.* message published by the ingestion
service until interrupted. A durable consumer keeps the read position.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsConsumer, "consumer", "statsctl", "Durable consumer name")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if cfg.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nc, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	if err := nc.EnsureChannelsStream(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err = nc.Subscribe(ctx, nats.StreamChannels, eventsConsumer, nats.SubjectChannelsPattern, func(subject string, data []byte) error {
		_, err := fmt.Fprintf(out, "%s %s\n", subject, data)
		return err
	})
	if err != nil {
		return err
	}

	log.Info().Str("consumer", eventsConsumer).Msg("listening for ingestion events")
	<-ctx.Done()
	return nil
}
