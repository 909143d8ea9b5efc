package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:     "channels",
	Aliases: []string{"ch"},
	Short:   "Moderate catalog channels",
}

var channelsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List channels",
	Long: `List catalog channels, optionally filtered by moderation status.

Examples:
  catalogctl channels list
  catalogctl channels list --status pending`,
	Args: cobra.NoArgs,
	RunE: runChannelsList,
}

var channelsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show channel counts per status",
	Args:  cobra.NoArgs,
	RunE:  runChannelsSummary,
}

var channelsApproveCmd = &cobra.Command{
	Use:   "approve ID",
	Short: "Approve a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  moderate("approved", channelCatalog.Approve),
}

var channelsRejectCmd = &cobra.Command{
	Use:   "reject ID",
	Short: "Reject a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  moderate("rejected", channelCatalog.Reject),
}

var channelsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a channel with its posts and history",
	Args:  cobra.ExactArgs(1),
	RunE:  moderate("deleted", channelCatalog.Delete),
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.AddCommand(channelsListCmd, channelsSummaryCmd, channelsApproveCmd, channelsRejectCmd, channelsDeleteCmd)

	channelsListCmd.Flags().String("status", "", "filter by status (pending, approved, rejected)")
}

func runChannelsList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")

	c, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	channels, err := c.List(cmd.Context(), models.Status(status))
	if err != nil {
		return err
	}

	if len(channels) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No channels")
		return nil
	}
	return renderChannels(cmd.OutOrStdout(), channels)
}

func runChannelsSummary(cmd *cobra.Command, args []string) error {
	c, cleanup, err := openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	counts, err := c.Summary(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total:    %d\n", counts.Total)
	fmt.Fprintf(out, "Pending:  %d\n", counts.Pending)
	fmt.Fprintf(out, "Approved: %d\n", counts.Approved)
	fmt.Fprintf(out, "Rejected: %d\n", counts.Rejected)
	return nil
}

func moderate(verb string, action func(channelCatalog, context.Context, int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseChannelID(args[0])
		if err != nil {
			return err
		}

		c, cleanup, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := action(c, cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Channel %d %s\n", id, verb)
		return nil
	}
}

func parseChannelID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid channel id %q", raw)
	}
	return id, nil
}

func renderChannels(w io.Writer, channels []*models.Channel) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)

	table.Header([]string{"ID", "Handle", "Title", "Status", "Subscribers", "Growth 7d", "Growth 30d"})
	rows := make([][]string, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, []string{
			strconv.FormatInt(ch.ID, 10),
			ch.Handle,
			ch.Title,
			string(ch.Status),
			strconv.FormatInt(ch.Subscribers, 10),
			strconv.FormatFloat(ch.Growth7d, 'f', 1, 64) + "%",
			strconv.FormatFloat(ch.Growth30d, 'f', 1, 64) + "%",
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
