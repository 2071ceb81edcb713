package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockedby/channel-stats/internal/app"
)

var ingestLimit int

var ingestCmd = &cobra.Command{
	Use:   "ingest [identifier...]",
	Short: "Ingest channels once and print the results",
	Long: `Ingest fetches each channel, upserts it and appends a stats snapshot.
Identifiers may be usernames, @usernames or t.me links.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestLimit, "limit", "l", 0, "Number of recent messages to fetch (default: INGEST_DEFAULT_LIMIT)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	manager, client := app.NewTelegram(ctx, cfg, store, log)
	defer manager.Stop()

	sink, closeSink := app.NewEventSink(ctx, cfg, log)
	defer closeSink()

	svc, err := app.NewIngestService(cfg, client, store.Channels, sink)
	if err != nil {
		return err
	}

	var failed int
	for _, id := range args {
		res, err := svc.Ingest(ctx, id, ingestLimit)
		if err != nil {
			failed++
			log.Error().Err(err).Str("identifier", id).Msg("ingest failed")
			continue
		}
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d ingestions failed", failed, len(args))
	}
	return nil
}
