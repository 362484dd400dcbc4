// Package qmakelog turns the debug trace of "qmake -d" into a Build Object Model.
//
// The trace is fed one line at a time through Process and closed with
// Finish. qmake re-evaluates project lines many times, so lines are
// de-duplicated after whitespace collapsing before they touch any state.
package qmakelog

import (
	"bytes"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
)

// Default locations of the Qt installation the trace was produced against.
const DefaultQtLibDir = "/usr/lib/x86_64-linux-gnu"

// DefaultQtIncludeDirs are added to every translation unit of a Qt project.
var DefaultQtIncludeDirs = []string{
	"/usr/include",
	"/usr/include/x86_64-linux-gnu/qt5",
	"/usr/include/x86_64-linux-gnu/qt5/QtGui",
	"/usr/include/x86_64-linux-gnu/qt5/QtCore",
	"/usr/lib/x86_64-linux-gnu/qt5/mkspecs/linux-g++",
}

// Canonical build locations
const (
	BuildOutputDir = pathctx.BuildDirPlaceholder + "/_build"
	defaultMocDir  = pathctx.BuildDirPlaceholder + "/moc"
	defaultUIDir   = pathctx.BuildDirPlaceholder + "/uic"
	defaultRCCDir  = pathctx.BuildDirPlaceholder + "/rcc"
)

// Options configures an Extractor.
type Options struct {
	// Context maps concrete paths to placeholders. Required.
	Context *pathctx.Context
	// Reader fetches project file content. Defaults to a FileReader over Context.
	Reader pathctx.Reader
	// Logger receives progress messages.
	Logger observability.Logger
	// Diagnostics collects non-fatal findings.
	Diagnostics *diagnostic.Collector
	// QtLibDir is where libQt5*.so live.
	QtLibDir string
	// QtIncludeDirs replaces DefaultQtIncludeDirs when non-nil.
	QtIncludeDirs []string
}

// Extractor accumulates one project's trace into a Build Object Model.
// It is not safe for concurrent use.
type Extractor struct {
	ctx    *pathctx.Context
	reader pathctx.Reader
	logger observability.Logger
	diags  *diagnostic.Collector

	qtLibDir      string
	qtIncludeDirs []string

	seen         map[string]struct{}
	projectFiles *model.OrderedSet[string]
	vars         map[string][]string

	acc   *accumulator
	model *model.Model

	consumed int
	skipped  int
	finished bool
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Context == nil {
		opts.Context = pathctx.New("", "")
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewNullLogger()
	}
	if opts.Reader == nil {
		opts.Reader = pathctx.NewFileReader(opts.Context, pathctx.WithLogger(opts.Logger))
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostic.NewCollector(opts.Logger)
	}
	if opts.QtLibDir == "" {
		opts.QtLibDir = DefaultQtLibDir
	}
	if opts.QtIncludeDirs == nil {
		opts.QtIncludeDirs = DefaultQtIncludeDirs
	}

	return &Extractor{
		ctx:           opts.Context,
		reader:        opts.Reader,
		logger:        opts.Logger.ForContext("Stage", "extract"),
		diags:         opts.Diagnostics,
		qtLibDir:      strings.TrimSuffix(opts.QtLibDir, "/"),
		qtIncludeDirs: opts.QtIncludeDirs,
		seen:          make(map[string]struct{}),
		projectFiles:  model.NewOrderedSet[string](),
		vars:          make(map[string][]string),
		acc:           newAccumulator(),
		model:         model.New(),
	}
}

// Diagnostics returns the collector findings are reported to.
func (e *Extractor) Diagnostics() *diagnostic.Collector {
	return e.diags
}

// ProjectFiles returns the absolute project files named by trace lines, in
// first-seen order.
func (e *Extractor) ProjectFiles() []string {
	return e.projectFiles.Values()
}

// Stats reports how many distinct lines were consumed and skipped.
func (e *Extractor) Stats() (consumed, skipped int) {
	return e.consumed, e.skipped
}

// Process feeds one trace line. It returns "" when the line was consumed
// or was a repeat of an earlier line, and the line unchanged otherwise.
func (e *Extractor) Process(line string) string {
	normalized := strings.Join(strings.Fields(line), " ")
	if normalized == "" {
		return line
	}
	if _, dup := e.seen[normalized]; dup {
		observability.TraceLinesTotal.WithLabelValues("duplicate").Inc()
		e.logger.Verbose("Skipping already processed line: {Line}", normalized)
		return ""
	}
	e.seen[normalized] = struct{}{}

	if m := projectFileRe.FindStringSubmatch(line); m != nil {
		e.projectFiles.Add(m[1])
	}

	for _, p := range declPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if !e.apply(p.kind, m) {
			e.logger.Debug("Empty value for {Declaration} in line: {Line}", p.kind.String(), normalized)
		}
		e.consumed++
		observability.TraceLinesTotal.WithLabelValues("consumed").Inc()
		return ""
	}

	if m := genericAssignRe.FindStringSubmatch(line); m != nil {
		e.vars[m[1]] = strings.Fields(m[2])
	}
	e.skipped++
	observability.TraceLinesTotal.WithLabelValues("skipped").Inc()
	return line
}

// apply dispatches one matched declaration. It reports false when the
// declaration carried no value.
func (e *Extractor) apply(kind declKind, m []string) bool {
	switch kind {
	case declBuildTypeBlock:
		e.applyBuildTypeBlock(m[1], m[2])
		return true
	case declPlatformBlock:
		e.applyPlatformBlock(m[1], m[2])
		return true
	case declTestcase:
		e.acc.testcase = true
		e.logger.Debug("Enabled testcase: module type set to {ModuleType}", model.TestExecutable)
		return true
	case declCompilerInput, declCompilerOutput, declCompilerVariable,
		declTargetTarget, declTargetDepends, declCommands:
		name, value := m[1], strings.TrimSpace(m[2])
		if value == "" {
			return false
		}
		e.applyCustomField(kind, name, value)
		return true
	}

	value := strings.TrimSpace(m[1])
	if value == "" {
		return false
	}
	values := strings.Fields(value)

	switch kind {
	case declSources:
		e.addSources(values)
	case declHeaders:
		e.addHeaders(values)
	case declForms:
		e.addForms(values)
	case declResources:
		e.addResources(values)
	case declDistFiles:
		for _, v := range values {
			p := e.ctx.Normalize(v)
			e.acc.distfiles.Add(p)
			e.trackFile(p, "")
		}
	case declIncludePath:
		e.addPaths(e.acc.includes, values, "INCLUDEPATH")
	case declDependPath:
		e.addPaths(e.acc.dependPath, values, "DEPENDPATH")
	case declLibs:
		e.addLibs(values)
	case declTarget:
		e.acc.target = value
		e.logger.Debug("Set TARGET: {Target}", value)
	case declTemplate:
		e.acc.template = value
		e.logger.Debug("Set TEMPLATE: {Template}", value)
	case declCXX:
		e.acc.cxx = value
	case declCC:
		e.acc.cc = value
	case declCXXFlags:
		addFiltered(e.acc.cxxFlags, values)
	case declCFlags:
		addFiltered(e.acc.cFlags, values)
	case declCXXFlagsRelease:
		addFiltered(e.acc.bundles[buildRelease].compile, values)
	case declCXXFlagsDebug:
		addFiltered(e.acc.bundles[buildDebug].compile, values)
	case declDefines:
		e.addDefines(e.acc.defines, values)
	case declLFlags:
		addFiltered(e.acc.linkFlags, values)
	case declConfig:
		e.applyConfig(values)
	case declQt:
		e.applyQt(values)
	case declMocDir:
		e.acc.mocDir = e.buildRelative(value)
	case declUIDir:
		e.acc.uiDir = e.buildRelative(value)
	case declRCCDir:
		e.acc.rccDir = e.buildRelative(value)
	case declDestDir:
		e.acc.destDir = e.buildRelative(value)
		e.logger.Debug("Set DESTDIR: {DestDir}", e.acc.destDir)
	case declSubdirs:
		for _, v := range values {
			e.acc.subdirs.Add(e.ctx.Normalize(v))
		}
	case declPrecompiledHeader:
		p := e.ctx.Normalize(value)
		e.acc.precompiledHeader = p
		e.acc.headers.Add(p)
	case declVersion:
		e.acc.version = value
	case declExtraCompilers:
		for _, name := range values {
			e.acc.compilers.get(name)
		}
	case declExtraTargets:
		for _, name := range values {
			e.acc.targets.get(name)
		}
	case declPreTargetDeps:
		for _, dep := range values {
			e.acc.preTargetDeps.Add(e.ctx.NormalizePath(dep, "", true))
		}
	case declPostTargetDeps:
		e.applyPostTargetDeps(values)
	}
	return true
}

// buildRelative normalizes output directories, which qmake resolves
// against the build directory.
func (e *Extractor) buildRelative(value string) string {
	return e.ctx.NormalizePath(value, e.ctx.BuildDir, false)
}

// trackFile appends a File entry for p unless p is already tracked.
// Unreadable files are reported and left out of the model.
// The content is returned even when p was tracked earlier.
func (e *Extractor) trackFile(p, extension string) []byte {
	first := e.acc.tracked.Add(p)
	content, err := e.reader.ReadFile(p)
	if err != nil {
		if first {
			e.diags.Warn(diagnostic.CodeMissingResource, p, "cannot read file: %v", err)
		}
		return nil
	}
	if first {
		e.append(&model.File{Output: p, Content: content, Extension: extension})
	}
	return content
}

func (e *Extractor) append(entries ...model.Entry) {
	for _, entry := range entries {
		observability.ModelEntriesTotal.WithLabelValues(string(entry.Type())).Inc()
	}
	e.model.Append(entries...)
}

func (e *Extractor) addSources(values []string) {
	for _, v := range values {
		if _, ok := sourceLanguage(v); !ok {
			continue
		}
		p := e.ctx.Normalize(v)
		if !e.acc.sources.Add(p) {
			e.logger.Verbose("Skipping already processed source: {Path}", p)
			continue
		}
		e.trackFile(p, "")
		e.logger.Debug("Added source: {Path}", p)
	}
}

func (e *Extractor) addHeaders(values []string) {
	for _, v := range values {
		if !isHeader(v) {
			continue
		}
		p := e.ctx.Normalize(v)
		if !e.acc.headers.Add(p) {
			e.logger.Verbose("Skipping already processed header: {Path}", p)
			continue
		}
		content := e.trackFile(p, "")
		if bytes.Contains(content, []byte("Q_OBJECT")) {
			e.acc.qtProject = true
			e.acc.mocHeaders.Add(p)
			e.logger.Debug("Scheduled moc for header: {Path}", p)
		}
		e.logger.Debug("Added header: {Path}", p)
	}
}

func (e *Extractor) addForms(values []string) {
	for _, v := range values {
		if !strings.HasSuffix(v, ".ui") {
			e.diags.Warn(diagnostic.CodeInvalidValue, v, "invalid FORMS file")
			continue
		}
		e.acc.qtProject = true
		p := e.ctx.Normalize(v)
		if !e.acc.forms.Add(p) {
			continue
		}
		e.trackFile(p, ".ui")
		e.logger.Debug("Added form: {Path}", p)
	}
}

func (e *Extractor) addResources(values []string) {
	for _, v := range values {
		if !strings.HasSuffix(v, ".qrc") {
			e.diags.Warn(diagnostic.CodeInvalidValue, v, "invalid RESOURCES file")
			continue
		}
		e.acc.qtProject = true
		p := e.ctx.Normalize(v)
		if !e.acc.resources.Add(p) {
			continue
		}
		e.trackFile(p, ".qrc")
		e.logger.Debug("Added resource: {Path}", p)
	}
}

func (e *Extractor) addPaths(set *model.OrderedSet[string], values []string, name string) {
	for _, v := range values {
		if isNoise(v) {
			continue
		}
		p := e.ctx.Normalize(v)
		if isNoise(p) {
			continue
		}
		if set.Add(p) {
			e.logger.Debug("Added {Variable}: {Path}", name, p)
		}
	}
}

func (e *Extractor) addDefines(set *model.OrderedSet[string], values []string) {
	for _, v := range values {
		if v == "" || isNoise(v) {
			continue
		}
		set.Add("-D" + v)
	}
}

// addLibs classifies LIBS entries: -l names a library, -L a search path,
// anything else must be an existing library file.
func (e *Extractor) addLibs(values []string) {
	for _, v := range values {
		switch {
		case strings.HasPrefix(v, "-l"):
			name := v[2:]
			if name != "" && !isNoise(name) {
				e.acc.libs.Add(name)
			}
		case strings.HasPrefix(v, "-L"):
			dir := e.ctx.Normalize(v[2:])
			if dir != "" && !isNoise(dir) {
				e.acc.linkFlags.Add("-L" + dir)
			}
		default:
			if isNoise(v) {
				continue
			}
			p := e.ctx.Normalize(v)
			if !e.reader.Exists(p) {
				e.diags.Warn(diagnostic.CodeLibraryNotFound, p, "library file not found, dropped from LIBS")
				continue
			}
			e.acc.libs.Add(p)
		}
	}
}

// applyBuildTypeBlock handles "CONFIG(debug, debug|release) { ... }".
// The block's assignments go to that build type's bundle; the later block wins.
func (e *Extractor) applyBuildTypeBlock(kind, body string) {
	bt := buildRelease
	if kind == "debug" {
		bt = buildDebug
	}
	e.acc.buildType = bt
	bundle := e.acc.bundles[bt]
	for _, a := range splitBlockAssignments(body) {
		switch a.name {
		case "DEFINES":
			e.addDefines(bundle.compile, a.values)
		case "QMAKE_CXXFLAGS", "QMAKE_CFLAGS":
			addFiltered(bundle.compile, a.values)
		case "QMAKE_LFLAGS":
			addFiltered(bundle.link, a.values)
		case "LIBS":
			e.addLibs(a.values)
		case "INCLUDEPATH":
			e.addPaths(e.acc.includes, a.values, "INCLUDEPATH")
		}
	}
	e.logger.Debug("Activated {BuildType} mode via block", bt.String())
}

// applyPlatformBlock merges a "win32 { ... }" style block unconditionally:
// the trace only shows blocks that were active on the host that produced it.
func (e *Extractor) applyPlatformBlock(platform, body string) {
	for _, a := range splitBlockAssignments(body) {
		switch a.name {
		case "DEFINES":
			e.addDefines(e.acc.defines, a.values)
		case "QMAKE_CXXFLAGS":
			addFiltered(e.acc.cxxFlags, a.values)
		case "QMAKE_CFLAGS":
			addFiltered(e.acc.cFlags, a.values)
		case "QMAKE_LFLAGS":
			addFiltered(e.acc.linkFlags, a.values)
		case "LIBS":
			e.addLibs(a.values)
		case "INCLUDEPATH":
			e.addPaths(e.acc.includes, a.values, "INCLUDEPATH")
		}
	}
	e.logger.Debug("Merged {Platform} block", platform)
}

type blockAssignment struct {
	name   string
	values []string
}

// splitBlockAssignments finds every "NAME += values" inside a block body.
// Each value list runs up to the next recognized assignment.
func splitBlockAssignments(body string) []blockAssignment {
	locs := blockAssignRe.FindAllStringSubmatchIndex(body, -1)
	out := make([]blockAssignment, 0, len(locs))
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, blockAssignment{
			name:   body[loc[2]:loc[3]],
			values: strings.Fields(body[loc[1]:end]),
		})
	}
	return out
}

// isNoise filters values that leak from qmake's own feature machinery.
func isNoise(v string) bool {
	return v == "prf" || v == "pro" || strings.HasSuffix(v, ".pro") || strings.HasSuffix(v, ".prf")
}

func addFiltered(set *model.OrderedSet[string], values []string) {
	for _, v := range values {
		if !isNoise(v) {
			set.Add(v)
		}
	}
}

// sourceLanguage reports the language of a compilable translation unit.
func sourceLanguage(p string) (string, bool) {
	switch pathctx.Ext(p) {
	case ".cpp", ".cc", ".cxx", ".c++":
		return "C++", true
	case ".c":
		return "C", true
	default:
		return "", false
	}
}

func isHeader(p string) bool {
	switch pathctx.Ext(p) {
	case ".h", ".hpp", ".hh", ".hxx":
		return true
	default:
		return false
	}
}
