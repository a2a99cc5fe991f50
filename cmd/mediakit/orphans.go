package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mediakit/pkg/config"
	"github.com/dmitrymomot/mediakit/pkg/monitor"
	"github.com/dmitrymomot/mediakit/pkg/pg"
	"github.com/dmitrymomot/mediakit/pkg/records"
)

func newOrphansCmd(jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Find and clean files with no matching database record",
	}
	cmd.AddCommand(newOrphansScanCmd(jsonOutput), newOrphansCleanupCmd(jsonOutput))
	return cmd
}

func newOrphansScanCmd(jsonOutput *bool) *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List orphaned files and directories without deleting anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner, cleanup, err := newScanner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report := scanner.Scan(cmd.Context(), toScanKinds(kinds)...)
			out := cmd.OutOrStdout()
			if *jsonOutput {
				return printJSON(out, report)
			}

			if len(report.Orphans) == 0 {
				fmt.Fprintln(out, "No orphans found.")
			}
			for _, o := range report.Orphans {
				fmt.Fprintf(out, "%-18s %-48s %10s  %s\n", o.Type, o.Path, formatBytes(o.SizeBytes), o.Reason)
			}
			fmt.Fprintf(out, "Found %d orphans, %s total.\n", len(report.Orphans), formatBytes(report.TotalBytes))
			for _, e := range report.Errors {
				fmt.Fprintf(out, "Error: %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "scan categories: user, team, project, image, temporary (default all)")
	return cmd
}

func newOrphansCleanupCmd(jsonOutput *bool) *cobra.Command {
	var (
		kinds  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete orphaned files and directories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner, cleanup, err := newScanner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report := scanner.Cleanup(cmd.Context(), dryRun, toScanKinds(kinds)...)
			out := cmd.OutOrStdout()
			if *jsonOutput {
				return printJSON(out, report)
			}

			for _, e := range report.Entries {
				status := "would delete"
				if e.Deleted {
					status = "deleted"
				} else if !report.DryRun {
					status = "failed"
				}
				fmt.Fprintf(out, "%-12s %-18s %s\n", status, e.Orphan.Type, e.Orphan.Path)
			}
			if report.DryRun {
				fmt.Fprintf(out, "Dry run: %d orphans found, nothing deleted.\n", report.Found)
			} else {
				fmt.Fprintf(out, "Deleted %d of %d orphans, freed %s.\n",
					report.Deleted, report.Found, formatBytes(report.BytesFreed))
			}
			for _, e := range report.Errors {
				fmt.Fprintf(out, "Error: %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "scan categories: user, team, project, image, temporary (default all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "report without deleting (disable with --dry-run=false)")
	return cmd
}

// newScanner wires a scanner over the configured storage tree and the
// application database. The returned cleanup closes the database pool.
func newScanner(ctx context.Context) (*monitor.Scanner, func(), error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return nil, nil, err
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, nil, fmt.Errorf("load database configuration: %w", err)
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := newStorageManager(cfg)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	scanner := monitor.NewScanner(store, records.NewPostgresSource(pool),
		monitor.WithScannerLogger(newAppLogger(cfg)),
		monitor.WithTempMaxAge(cfg.TempMaxAge),
	)
	return scanner, pool.Close, nil
}

func toScanKinds(kinds []string) []monitor.ScanKind {
	out := make([]monitor.ScanKind, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, monitor.ScanKind(k))
	}
	return out
}
