package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
	"github.com/willibrandon/gomigrator/migrate"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand(console *output.Console) *cobra.Command {
	opts := &migrate.Options{}
	var outFile string

	cmd := &cobra.Command{
		Use:   "extract <TRACE_LOG>",
		Short: "Print the Build Object Model extracted from a qmake trace",
		Long: `Runs only the trace extractor and prints the resulting Build Object
Model as JSON. Nothing is written to the source tree.

Examples:
  gomigrator extract qmake.log --source-dir ~/src/app
  gomigrator extract qmake.log -s . -b build --output model.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, console)
			if err != nil {
				return err
			}
			if opts.SourceDir == "" {
				if opts.SourceDir, err = os.Getwd(); err != nil {
					return fmt.Errorf("failed to determine source directory: %w", err)
				}
			}
			if !cmd.Flags().Changed("qt-lib-dir") {
				opts.QtLibDir = cfg.QtLibDir
			}
			if !cmd.Flags().Changed("qt-include-dir") {
				opts.QtIncludeDirs = cfg.QtIncludeDirs
			}
			opts.Logger = newLogger(console, cfg)

			start := time.Now()
			m, err := migrate.New(opts)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open trace: %w", err)
			}
			defer f.Close()

			mdl, projectFiles, err := m.Extract(cmd.Context(), f, args[0])
			if err != nil {
				return err
			}
			return writeJSONTo(console, outFile,
				output.NewExtractOutput(args[0], mdl, projectFiles, m.Diagnostics().Items(), start))
		},
	}

	cmd.Flags().StringVarP(&opts.SourceDir, "source-dir", "s", "", "Project source tree the trace was produced from (default: current directory)")
	cmd.Flags().StringVarP(&opts.BuildDir, "build-dir", "b", "", "Directory qmake ran in (default: source directory)")
	cmd.Flags().StringVar(&opts.QtLibDir, "qt-lib-dir", "", "Directory holding the Qt libraries")
	cmd.Flags().StringSliceVar(&opts.QtIncludeDirs, "qt-include-dir", nil, "Qt include directories")
	cmd.Flags().StringVar(&outFile, "output", "", "Write the JSON to this file instead of stdout")

	return cmd
}

// writeJSONTo writes v to name, or to the console output when name is empty.
func writeJSONTo(console *output.Console, name string, v any) error {
	if name == "" {
		return output.WriteJSON(console.Output(), v)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := output.WriteJSON(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	console.Detail("Wrote %s", name)
	return nil
}
