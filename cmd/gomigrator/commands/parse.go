package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/pathctx"
	"github.com/willibrandon/gomigrator/qmakepro"
)

// NewParseCommand creates the parse command.
func NewParseCommand(console *output.Console) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "parse <PROJECT_FILE>",
		Short: "Print the condition tree of a .pro or .pri file",
		Long: `Parses a qmake project file and prints its top-level variables,
conditional scopes and include() targets as JSON.

Examples:
  gomigrator parse app.pro
  gomigrator parse common.pri --output common.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, console)
			if err != nil {
				return err
			}
			logger := newLogger(console, cfg)

			file, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}
			file = filepath.ToSlash(file)
			dir := filepath.Dir(file)
			reader := pathctx.NewFileReader(pathctx.New(dir, dir), pathctx.WithLogger(logger))
			if !reader.Exists(file) {
				return fmt.Errorf("project file not found: %s", args[0])
			}

			start := time.Now()
			diags := diagnostic.NewCollector(logger)
			parser := qmakepro.New(qmakepro.Options{Reader: reader, Logger: logger, Diagnostics: diags})
			res := parser.Parse(file)

			return writeJSONTo(console, outFile, output.NewParseOutput(res, diags.Items(), start))
		},
	}

	cmd.Flags().StringVar(&outFile, "output", "", "Write the JSON to this file instead of stdout")

	return cmd
}
