package migrate

import (
	"fmt"

	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
)

// DefaultSourceSubdir is where project sources are copied inside OutDir.
const DefaultSourceSubdir = "src"

// Options holds migration configuration.
type Options struct {
	// SourceDir is the project tree the trace was produced from.
	SourceDir string
	// BuildDir is the directory qmake ran in. Defaults to SourceDir.
	BuildDir string
	// OutDir receives CMakeLists.txt, include fragments and copied sources.
	// Only Generate and Run require it.
	OutDir       string
	SourceSubdir string

	ProjectName    string
	MinimumVersion string
	QtVersion      string
	QtComponents   []string
	CXXStandard    string
	CXXExtensions  bool
	AbsolutePaths  bool
	QtLibDir       string
	QtIncludeDirs  []string

	// RecoverConditions parses the project files named in the trace and
	// renders their scopes as conditional blocks.
	RecoverConditions bool
	// DumpModel writes the Build Object Model as JSON to this path.
	DumpModel string
	// MetricsFile writes the metrics registry to this path after the run.
	MetricsFile string

	Verbosity string
	NoColor   bool

	Logger observability.Logger
	// Reader overrides the file-system reader.
	Reader pathctx.Reader
}

// withDefaults returns a copy of o with empty fields defaulted.
func (o *Options) withDefaults() (*Options, error) {
	if o == nil {
		return nil, fmt.Errorf("options are required")
	}
	opts := *o
	if opts.SourceDir == "" {
		return nil, fmt.Errorf("source directory is required")
	}
	if opts.BuildDir == "" {
		opts.BuildDir = opts.SourceDir
	}
	if opts.SourceSubdir == "" {
		opts.SourceSubdir = DefaultSourceSubdir
	}
	if opts.Verbosity == "" {
		opts.Verbosity = "normal"
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewNullLogger()
	}
	return &opts, nil
}

func (o *Options) isQuiet() bool {
	return o.Verbosity == "quiet" || o.Verbosity == "q"
}

func (o *Options) isDetailed() bool {
	switch o.Verbosity {
	case "detailed", "d", "diagnostic", "diag":
		return true
	}
	return false
}
