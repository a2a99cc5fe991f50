package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mediakit/pkg/config"
	"github.com/dmitrymomot/mediakit/pkg/monitor"
	"github.com/dmitrymomot/mediakit/pkg/redis"
)

func newStatsCmd(jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report operation and error counters from the shared store",
		Long:  "Reads the running file operation counters persisted in Redis by services running with a Redis-backed stats store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var redisCfg redis.Config
			if err := config.Load(&redisCfg); err != nil {
				return fmt.Errorf("load redis configuration: %w", err)
			}

			ctx := cmd.Context()
			client, err := redis.Connect(ctx, redisCfg)
			if err != nil {
				return err
			}
			defer client.Close()

			store := monitor.NewRedisStore(client)
			ops, err := store.OperationCounts(ctx)
			if err != nil {
				return err
			}
			errCounts, err := store.ErrorCounts(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if *jsonOutput {
				return printJSON(out, map[string]any{
					"operations": ops,
					"errors":     errCounts,
				})
			}

			if len(ops) == 0 && len(errCounts) == 0 {
				fmt.Fprintln(out, "No counters recorded.")
				return nil
			}
			for op, c := range ops {
				fmt.Fprintf(out, "%-24s total=%d success=%d failed=%d bytes=%s\n",
					op, c.Total, c.Success, c.Failed, formatBytes(c.TotalSizeBytes))
			}
			for et, n := range errCounts {
				fmt.Fprintf(out, "error %-18s count=%d\n", et, n)
			}
			return nil
		},
	}
}
