package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/cli"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/config"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
	"github.com/willibrandon/gomigrator/observability"
)

// loadConfig loads the file named by --config, or the first one found.
func loadConfig(cmd *cobra.Command, console *output.Console) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, used, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if used != "" {
		console.Debug("Using config file %s", used)
	}
	return cfg, nil
}

// newLogger picks the log level from log_level, or from the console
// verbosity when unset. Normal and quiet runs log nothing; diagnostics are
// reported by the commands themselves.
func newLogger(console *output.Console, cfg *config.Config) observability.Logger {
	if cfg.LogLevel != "" {
		return observability.NewLogger(console.ErrOutput(), observability.ParseLogLevel(cfg.LogLevel))
	}
	switch console.GetVerbosity() {
	case output.VerbosityDiagnostic:
		return observability.NewLogger(console.ErrOutput(), observability.DebugLevel)
	case output.VerbosityDetailed:
		return observability.NewLogger(console.ErrOutput(), observability.InfoLevel)
	default:
		return observability.NewNullLogger()
	}
}

// setupTracing starts the configured span exporter. The returned function
// flushes and stops it.
func setupTracing(ctx context.Context, console *output.Console, cfg *config.Config) func() {
	if cfg.Tracing == nil || cfg.Tracing.Exporter == "" || cfg.Tracing.Exporter == "none" {
		return func() {}
	}
	tp, err := observability.SetupTracing(ctx, cfg.TracerConfig(cli.GetVersion()))
	if err != nil {
		console.Warning("Tracing disabled: %v", err)
		return func() {}
	}
	return func() {
		if err := observability.ShutdownTracing(context.Background(), tp); err != nil {
			console.Warning("Failed to flush traces: %v", err)
		}
	}
}
