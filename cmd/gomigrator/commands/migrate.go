package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/config"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
	"github.com/willibrandon/gomigrator/migrate"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(console *output.Console) *cobra.Command {
	opts := &migrate.Options{}
	var noConditions bool

	cmd := &cobra.Command{
		Use:   "migrate <TRACE_LOG>",
		Short: "Convert a qmake trace into a CMake project",
		Long: `Reads the debug trace of a qmake run and writes CMakeLists.txt, one
.cmake fragment per included .pri file, and a copy of every source file
into the output directory.

Produce the trace from the build directory with:
  qmake -d -d /path/to/app.pro 2> qmake.log

Examples:
  gomigrator migrate qmake.log --source-dir ~/src/app --out cmake
  gomigrator migrate qmake.log -s . -b build -o cmake --qt-version 6
  gomigrator migrate qmake.log -s . -o cmake --no-conditions --dump-model model.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, console)
			if err != nil {
				return err
			}
			applyConfig(cmd, cfg, opts)
			if cmd.Flags().Changed("no-conditions") {
				opts.RecoverConditions = !noConditions
			}
			if opts.SourceDir == "" {
				if opts.SourceDir, err = os.Getwd(); err != nil {
					return fmt.Errorf("failed to determine source directory: %w", err)
				}
			}

			opts.Verbosity = console.GetVerbosity().String()
			opts.NoColor = !console.Colors()
			opts.Logger = newLogger(console, cfg)

			stop := setupTracing(cmd.Context(), console, cfg)
			defer stop()

			return migrate.Run(cmd.Context(), args[0], opts, console)
		},
	}

	cmd.Flags().StringVarP(&opts.SourceDir, "source-dir", "s", "", "Project source tree the trace was produced from (default: current directory)")
	cmd.Flags().StringVarP(&opts.BuildDir, "build-dir", "b", "", "Directory qmake ran in (default: source directory)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "Output directory")
	cmd.Flags().StringVar(&opts.SourceSubdir, "source-subdir", "", "Subdirectory of the output that receives copied sources (default: src)")
	cmd.Flags().StringVar(&opts.ProjectName, "project-name", "", "CMake project name (default: first target)")
	cmd.Flags().StringVar(&opts.MinimumVersion, "cmake-minimum-version", "", "cmake_minimum_required version (at least 3.16)")
	cmd.Flags().StringVar(&opts.QtVersion, "qt-version", "", "Qt major version: 5 or 6")
	cmd.Flags().StringSliceVar(&opts.QtComponents, "qt-components", nil, "Additional Qt components to find")
	cmd.Flags().StringVar(&opts.CXXStandard, "cxx-standard", "", "C++ standard when the project names none (default: 17)")
	cmd.Flags().BoolVar(&opts.CXXExtensions, "cxx-extensions", false, "Enable compiler extensions for the default standard")
	cmd.Flags().BoolVar(&opts.AbsolutePaths, "absolute-paths", false, "Write absolute paths instead of CMAKE_CURRENT_* references")
	cmd.Flags().StringVar(&opts.QtLibDir, "qt-lib-dir", "", "Directory holding the Qt libraries")
	cmd.Flags().StringSliceVar(&opts.QtIncludeDirs, "qt-include-dir", nil, "Qt include directories")
	cmd.Flags().BoolVar(&noConditions, "no-conditions", false, "Do not recover conditional scopes from the project files")
	cmd.Flags().StringVar(&opts.DumpModel, "dump-model", "", "Write the Build Object Model as JSON to this file")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// applyConfig copies config file values onto opts for every flag the user
// did not set.
func applyConfig(cmd *cobra.Command, cfg *config.Config, opts *migrate.Options) {
	flags := cmd.Flags()
	str := func(flag string, dst *string, v string) {
		if !flags.Changed(flag) && v != "" {
			*dst = v
		}
	}
	list := func(flag string, dst *[]string, v []string) {
		if !flags.Changed(flag) && len(v) > 0 {
			*dst = v
		}
	}
	boolean := func(flag string, dst *bool, v bool) {
		if !flags.Changed(flag) {
			*dst = v
		}
	}

	str("source-subdir", &opts.SourceSubdir, cfg.SourceSubdir)
	str("project-name", &opts.ProjectName, cfg.ProjectName)
	str("cmake-minimum-version", &opts.MinimumVersion, cfg.CMakeMinimumVersion)
	str("qt-version", &opts.QtVersion, cfg.QtVersion)
	list("qt-components", &opts.QtComponents, cfg.QtComponents)
	str("cxx-standard", &opts.CXXStandard, cfg.CXXStandard)
	boolean("cxx-extensions", &opts.CXXExtensions, cfg.CXXExtensions)
	boolean("absolute-paths", &opts.AbsolutePaths, cfg.AbsolutePaths)
	str("qt-lib-dir", &opts.QtLibDir, cfg.QtLibDir)
	list("qt-include-dir", &opts.QtIncludeDirs, cfg.QtIncludeDirs)
	opts.RecoverConditions = cfg.ShouldRecoverConditions()
}
