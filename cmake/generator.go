// Package cmake renders a Build Object Model as CMake listfiles.
//
// The Generator visits model entries in order. Every rendered entry is
// registered in an index keyed by its output path, name or identifier, so
// later entries can refer to it; references to entries that come later in
// the model are never resolved.
package cmake

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
)

// Defaults applied by New
const (
	DefaultMinimumVersion = "3.16"
	DefaultQtVersion      = "5"
	DefaultCXXStandard    = "17"
	DefaultOutputDir      = pathctx.BuildDirPlaceholder + "/_build"
)

// Output file naming
const (
	ListFileName      = "CMakeLists.txt"
	FragmentExtension = ".cmake"
)

// Options configures a Generator.
type Options struct {
	// OutDir receives CMakeLists.txt and the include fragments.
	OutDir string
	// SourceSubdir is where @source_dir@ files are materialized, relative to OutDir.
	SourceSubdir string
	// BuildDir replaces @build_dir@.
	BuildDir string
	// ProjectName is used in project(). Defaults to the first module name.
	ProjectName string
	// MinimumVersion is raised to DefaultMinimumVersion when lower.
	MinimumVersion string
	// QtVersion is the Qt major version of find_package and imported targets.
	QtVersion string
	// QtComponents are always requested, in addition to detected ones.
	QtComponents []string
	// CXXStandard and CXXExtensions apply when no module requests a standard.
	CXXStandard   string
	CXXExtensions bool
	// DefaultOutputDir is the module output directory that needs no override.
	DefaultOutputDir string
	// RelativePaths emits ${CMAKE_CURRENT_SOURCE_DIR}/${CMAKE_CURRENT_BINARY_DIR}
	// references instead of absolute paths.
	RelativePaths bool
	// Context maps concrete paths found in condition values back to placeholders.
	Context *pathctx.Context
	// Logger receives progress messages.
	Logger observability.Logger
	// Diagnostics collects unresolved references and skipped entries.
	Diagnostics *diagnostic.Collector
}

type refKind int

const (
	refPath refKind = iota
	refOutput
	refTarget
	refSubproject
)

// reference is what an index key resolves to in the listfile.
type reference struct {
	kind   refKind
	values []string
}

type fragment struct {
	name string
	buf  strings.Builder
}

// Generator renders model entries into CMake listfiles.
// It is not safe for concurrent use.
type Generator struct {
	opts   Options
	logger observability.Logger
	diags  *diagnostic.Collector

	// target maps placeholders to the materialized tree.
	target *pathctx.Context

	listfile  strings.Builder
	fragments map[string]*fragment
	fragOrder []string
	index     map[string]reference
	written   []string

	project    string
	standard   string
	extensions bool
	qtEnabled  bool
	packages   *packageSet
	config     *model.OrderedSet[string]
	testing    bool
}

// New creates a Generator.
func New(opts Options) *Generator {
	if opts.Logger == nil {
		opts.Logger = observability.NewNullLogger()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostic.NewCollector(opts.Logger)
	}
	if opts.MinimumVersion == "" {
		opts.MinimumVersion = DefaultMinimumVersion
	}
	if opts.QtVersion == "" {
		opts.QtVersion = DefaultQtVersion
	}
	if opts.CXXStandard == "" {
		opts.CXXStandard = DefaultCXXStandard
	}
	if opts.DefaultOutputDir == "" {
		opts.DefaultOutputDir = DefaultOutputDir
	}

	g := &Generator{
		opts:   opts,
		logger: opts.Logger.ForContext("Stage", "generate"),
		diags:  opts.Diagnostics,
		target: &pathctx.Context{
			SourceDir: filepath.ToSlash(filepath.Join(opts.OutDir, opts.SourceSubdir)),
			BuildDir:  filepath.ToSlash(opts.BuildDir),
		},
	}
	g.reset()
	return g
}

func (g *Generator) reset() {
	g.listfile.Reset()
	g.fragments = make(map[string]*fragment)
	g.fragOrder = nil
	g.index = make(map[string]reference)
	g.written = nil
	g.project = g.projectName(nil)
	g.standard = g.opts.CXXStandard
	g.extensions = g.opts.CXXExtensions
	g.qtEnabled = len(g.opts.QtComponents) > 0
	g.packages = newPackageSet(g.opts.QtVersion)
	for _, c := range g.opts.QtComponents {
		g.packages.addQt(c)
	}
	g.config = model.NewOrderedSet[string]()
	g.testing = false
}

// Diagnostics returns the collector findings are reported to.
func (g *Generator) Diagnostics() *diagnostic.Collector {
	return g.diags
}

// Listfile returns the CMakeLists.txt content rendered so far.
func (g *Generator) Listfile() string {
	return g.listfile.String()
}

// Fragment returns the content rendered so far for the include fragment
// named stem, and whether such a fragment exists.
func (g *Generator) Fragment(stem string) (string, bool) {
	for _, key := range g.fragOrder {
		if f := g.fragments[key]; f.name == stem {
			return f.buf.String(), true
		}
	}
	return "", false
}

// Written returns the files written by the last Generate, in write order.
func (g *Generator) Written() []string {
	return append([]string(nil), g.written...)
}

// CXXStandard reports the project-wide language standard selected by the
// last Generate and whether compiler extensions are on.
func (g *Generator) CXXStandard() (string, bool) {
	return g.standard, g.extensions
}

// Generate renders every entry of m in order and writes CMakeLists.txt and
// the include fragments to OutDir. Only I/O failures are returned; problems
// with individual entries are reported as diagnostics.
func (g *Generator) Generate(ctx context.Context, m *model.Model) (err error) {
	entries := m.Entries()
	ctx, span := observability.StartGenerateSpan(ctx, g.opts.OutDir, len(entries))
	defer func() { observability.EndSpanWithError(span, err) }()

	g.reset()
	g.prepare(entries)
	g.writePreamble()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.render(entry); err != nil {
			return err
		}
	}

	if err := g.flush(); err != nil {
		return err
	}
	observability.RecordPhaseResult(ctx, len(entries), g.diags.Len())
	g.logger.Info("Generated {Path} from {Count} entries", filepath.Join(g.opts.OutDir, ListFileName), len(entries))
	return nil
}

func (g *Generator) render(entry model.Entry) error {
	switch e := entry.(type) {
	case *model.File:
		return g.RenderFile(e)
	case *model.Directory:
		return g.RenderDirectory(e)
	case *model.Module:
		g.RenderModule(e)
	case *model.CustomCommand:
		g.RenderCustomCommand(e)
	case *model.CustomTarget:
		g.RenderCustomTarget(e)
	case *model.Subproject:
		g.RenderSubproject(e)
	case *model.Conditions:
		g.RenderConditions(e)
	case *model.Include:
		g.RenderInclude(e)
	}
	return nil
}

// flush writes the listfile and every fragment.
func (g *Generator) flush() error {
	if err := os.MkdirAll(g.opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", g.opts.OutDir, err)
	}
	if err := g.writeFile(filepath.Join(g.opts.OutDir, ListFileName), g.listfile.String(), "listfile"); err != nil {
		return err
	}
	for _, key := range g.fragOrder {
		f := g.fragments[key]
		name := filepath.Join(g.opts.OutDir, f.name+FragmentExtension)
		if err := g.writeFile(name, f.buf.String(), "fragment"); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeFile(name, content, kind string) error {
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	g.written = append(g.written, name)
	observability.FilesWrittenTotal.WithLabelValues(kind).Inc()
	g.logger.Debug("Wrote {Path}", name)
	return nil
}

// fsPath returns the concrete location of a placeholder-rooted path.
func (g *Generator) fsPath(p string) string {
	return g.target.Resolve(p)
}

// ref returns how a placeholder-rooted path is written in the listfile.
func (g *Generator) ref(p string) string {
	if !g.opts.RelativePaths {
		return g.fsPath(p)
	}
	switch {
	case p == pathctx.SourceDirPlaceholder || strings.HasPrefix(p, pathctx.SourceDirPlaceholder+"/"):
		return path.Join("${CMAKE_CURRENT_SOURCE_DIR}", g.opts.SourceSubdir, strings.TrimPrefix(p, pathctx.SourceDirPlaceholder))
	case p == pathctx.BuildDirPlaceholder || strings.HasPrefix(p, pathctx.BuildDirPlaceholder+"/"):
		return path.Join("${CMAKE_CURRENT_BINARY_DIR}", strings.TrimPrefix(p, pathctx.BuildDirPlaceholder))
	default:
		return p
	}
}

func (g *Generator) register(key string, kind refKind, values ...string) {
	if key == "" {
		return
	}
	g.index[key] = reference{kind: kind, values: values}
}

// resolve looks dep up in the index. Unknown dependencies pass through as
// literal paths.
func (g *Generator) resolve(dep string) []string {
	if r, ok := g.index[dep]; ok {
		return r.values
	}
	g.logger.Verbose("Dependency {Dependency} not indexed, passing through", dep)
	return []string{g.ref(dep)}
}

func (g *Generator) resolveAll(deps []string) []string {
	out := model.NewOrderedSet[string]()
	for _, d := range deps {
		out.Add(g.resolve(d)...)
	}
	return out.Values()
}

var generatedArtifactRe = regexp.MustCompile(`^(?:moc_.+\.cpp|ui_.+\.h|qrc_.+\.cpp)$`)

// isGeneratedArtifact reports whether p is a moc/uic/rcc output under the
// build root. Those are produced by CMake's Qt automation instead.
func isGeneratedArtifact(p string) bool {
	if !strings.HasPrefix(p, pathctx.BuildDirPlaceholder+"/") {
		return false
	}
	return generatedArtifactRe.MatchString(pathctx.Base(p))
}

var invalidTargetChars = regexp.MustCompile(`[^A-Za-z0-9_.+-]`)

// targetName turns a qmake name into a valid CMake target name.
func targetName(name string) string {
	name = invalidTargetChars.ReplaceAllString(name, "_")
	if name == "" {
		return "_"
	}
	return name
}

// quote returns a CMake argument for s, quoting it when needed.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n;\"()#\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = quote(v)
	}
	return out
}

// writeList writes "head\n    item\n...)\n". Nothing is written for no items.
func writeList(w *strings.Builder, indent, head string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s%s\n", indent, head)
	for _, item := range items {
		fmt.Fprintf(w, "%s    %s\n", indent, item)
	}
	fmt.Fprintf(w, "%s)\n", indent)
}
