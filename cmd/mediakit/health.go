package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mediakit/pkg/config"
	"github.com/dmitrymomot/mediakit/pkg/monitor"
	"github.com/dmitrymomot/mediakit/pkg/pg"
	"github.com/dmitrymomot/mediakit/pkg/redis"
)

// healthReport extends the storage health snapshot with reachability of
// the backing services the CLI depends on.
type healthReport struct {
	monitor.Health
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func newHealthCmd(jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report storage health and backing service reachability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			metrics, err := newMetricsCollector(cfg)
			if err != nil {
				return err
			}

			report := healthReport{
				Health:   metrics.HealthCheck(cmd.Context()),
				Database: checkDatabase(cmd.Context()),
				Redis:    checkRedis(cmd.Context()),
			}
			if *jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:     %s\n", report.Status)
			fmt.Fprintf(out, "Disk used:  %.1f%% (%s of %s)\n",
				report.Disk.PercentUsed, formatBytes(report.Disk.UsedBytes), formatBytes(report.Disk.TotalBytes))
			fmt.Fprintf(out, "Disk free:  %s\n", formatBytes(report.Disk.FreeBytes))
			fmt.Fprintf(out, "Temp size:  %s\n", formatBytes(report.TempBytes))
			fmt.Fprintf(out, "Database:   %s\n", report.Database)
			fmt.Fprintf(out, "Redis:      %s\n", report.Redis)
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "Warning:    %s\n", w)
			}
			if report.Status == monitor.HealthOK {
				fmt.Fprintln(out, "No issues detected.")
			}
			return nil
		},
	}
}

// checkDatabase reports database reachability. A missing PG_CONN_URL is
// reported as not configured rather than failing the command: the
// storage checks are useful on their own.
func checkDatabase(ctx context.Context) string {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return "not configured"
	}

	// Single attempt: a health probe should fail fast, not retry.
	cfg.RetryAttempts = 1
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("unreachable: %v", err)
	}
	defer pool.Close()

	if err := pg.Healthcheck(pool)(ctx); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "ok"
}

func checkRedis(ctx context.Context) string {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return "not configured"
	}

	cfg.RetryAttempts = 1
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("unreachable: %v", err)
	}
	defer client.Close()

	if err := redis.Healthcheck(client)(ctx); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "ok"
}
