// Command gomigrator converts qmake projects to CMake.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/cli"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/commands"
)

// Version information (set via ldflags during build)
var (
	version = "0.0.0-dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date
	cli.BuiltBy = builtBy
	cli.SetupVersion()

	cli.AddCommand(commands.NewMigrateCommand(cli.Console))
	cli.AddCommand(commands.NewExtractCommand(cli.Console))
	cli.AddCommand(commands.NewParseCommand(cli.Console))
	cli.AddCommand(commands.NewConfigCommand(cli.Console))
	cli.AddCommand(commands.NewVersionCommand(cli.Console))
	cli.AddCommand(commands.NewCompletionCommand())

	// Canceling the context stops the extractor between lines and the
	// generator between entries.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Root().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
