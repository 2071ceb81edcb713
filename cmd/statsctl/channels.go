package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blockedby/channel-stats/internal/api"
	"github.com/blockedby/channel-stats/internal/app"
)

var (
	channelsLimit  int
	channelsOffset int
	statsLimit     int
)

var channelsCmd = &cobra.Command{
	Use:   "channels [channel-id]",
	Short: "List stored channels or show one with its stats history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChannels,
}

func init() {
	channelsCmd.Flags().IntVar(&channelsLimit, "limit", 50, "Channels per page")
	channelsCmd.Flags().IntVar(&channelsOffset, "offset", 0, "Channels to skip")
	channelsCmd.Flags().IntVar(&statsLimit, "stats", 30, "Stats snapshots to show for a single channel")
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		channels, total, err := store.Channels.ListChannels(ctx, channelsLimit, channelsOffset)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), api.ChannelsListResponse{
			Channels: api.ChannelsFromModels(channels),
			Total:    total,
			Limit:    channelsLimit,
			Offset:   channelsOffset,
		})
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid channel id %q", args[0])
	}

	ch, err := store.Channels.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	if ch == nil {
		return fmt.Errorf("channel %d not found", id)
	}

	stats, err := store.Channels.ListStats(ctx, id, statsLimit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), api.ChannelDetailFromModel(ch, stats))
}
