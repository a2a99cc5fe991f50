package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mediakit/pkg/config"
	"github.com/dmitrymomot/mediakit/pkg/logger"
	"github.com/dmitrymomot/mediakit/pkg/monitor"
	"github.com/dmitrymomot/mediakit/pkg/storage"
)

// appConfig holds the settings every command needs. Database and
// Redis settings are loaded separately by the commands that use them.
type appConfig struct {
	Environment  string        `env:"APP_ENV" envDefault:"development"`
	StorageDir   string        `env:"MEDIA_STORAGE_DIR" envDefault:"./media"`
	MinFreeBytes int64         `env:"MEDIA_MIN_FREE_BYTES" envDefault:"104857600"`
	TempMaxAge   time.Duration `env:"MEDIA_TEMP_MAX_AGE" envDefault:"24h"`
}

func newRootCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:           "mediakit",
		Short:         "Inspect and maintain the file storage tree",
		Long:          "Reports storage health and usage metrics, finds and cleans orphaned files, and validates file-to-record consistency.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print reports as JSON")

	cmd.AddCommand(
		newHealthCmd(&jsonOutput),
		newMetricsCmd(&jsonOutput),
		newStatsCmd(&jsonOutput),
		newOrphansCmd(&jsonOutput),
		newValidateCmd(&jsonOutput),
	)
	return cmd
}

func loadAppConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func newAppLogger(cfg appConfig) *slog.Logger {
	return logger.New(logger.WithEnvironment(cfg.Environment, "mediakit"))
}

func newStorageManager(cfg appConfig) (*storage.Manager, error) {
	return storage.NewManager(cfg.StorageDir, storage.WithMinFreeBytes(cfg.MinFreeBytes))
}

func newMetricsCollector(cfg appConfig) (*monitor.Metrics, error) {
	store, err := newStorageManager(cfg)
	if err != nil {
		return nil, err
	}
	return monitor.NewMetrics(store), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
