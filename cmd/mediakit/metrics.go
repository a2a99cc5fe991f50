package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mediakit/pkg/monitor"
)

func newMetricsCmd(jsonOutput *bool) *cobra.Command {
	var userID, teamID int64

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Report storage usage metrics",
		Long:  "Without flags, reports the media-root breakdown by category. With --user or --team, reports per-scope usage against the quota.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			metrics, err := newMetricsCollector(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch {
			case userID != 0:
				usage, err := metrics.UserUsage(ctx, userID)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return printJSON(out, usage)
				}
				fmt.Fprintf(out, "User %d: %s in %d files (%.1f%% of quota)\n",
					usage.UserID, formatBytes(usage.SizeBytes), usage.FileCount, usage.PercentOfQuota)
				for ext, es := range usage.FileTypes {
					fmt.Fprintf(out, "  %-8s %4d files  %s\n", ext, es.Count, formatBytes(es.SizeBytes))
				}
				return nil

			case teamID != 0:
				usage, err := metrics.TeamUsage(ctx, teamID)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return printJSON(out, usage)
				}
				fmt.Fprintf(out, "Team %d: %s in %d files (%.1f%% of quota)\n",
					usage.TeamID, formatBytes(usage.SizeBytes), usage.FileCount, usage.PercentOfQuota)
				for folder, ps := range usage.Projects {
					fmt.Fprintf(out, "  %-24s %4d files  %s\n", folder, ps.FileCount, formatBytes(ps.SizeBytes))
				}
				return nil

			default:
				snap, err := metrics.Snapshot(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return printJSON(out, snap)
				}
				printBreakdown(cmd, snap)
				return nil
			}
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "report usage for one user")
	cmd.Flags().Int64Var(&teamID, "team", 0, "report usage for one team")
	cmd.MarkFlagsMutuallyExclusive("user", "team")
	return cmd
}

func printBreakdown(cmd *cobra.Command, snap monitor.Snapshot) {
	out := cmd.OutOrStdout()
	b := snap.Breakdown
	fmt.Fprintf(out, "Snapshot at %s\n", snap.Timestamp.Format("2006-01-02 15:04:05"))
	rows := []struct {
		name  string
		stats monitor.DirectoryStats
	}{
		{"users", b.Users},
		{"teams", b.Teams},
		{"temp", b.Temp},
		{"backups", b.Backups},
		{"total", b.Total},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-8s %6d files  %s\n", r.name, r.stats.FileCount, formatBytes(r.stats.SizeBytes))
	}
	fmt.Fprintf(out, "Disk: %.1f%% used, %s free\n", b.Disk.PercentUsed, formatBytes(b.Disk.FreeBytes))
}
