// Package migrate runs the qmake to CMake migration pipeline: it extracts a
// Build Object Model from a "qmake -d" trace, optionally recovers the
// conditional scopes of the project files the trace names, and renders the
// model as CMake listfiles.
package migrate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/willibrandon/gomigrator/cmake"
	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
	"github.com/willibrandon/gomigrator/qmakelog"
	"github.com/willibrandon/gomigrator/qmakepro"
)

var errNoOutDir = errors.New("output directory is required")

// maxTraceLine bounds a single trace line. qmake prints whole SOURCES lists on one line.
const maxTraceLine = 4 << 20

// Migrator owns one migration run. It is not safe for concurrent use.
type Migrator struct {
	opts   *Options
	ctx    *pathctx.Context
	reader pathctx.Reader
	logger observability.Logger
	diags  *diagnostic.Collector

	consumed int
	skipped  int
}

// New creates a Migrator.
func New(opts *Options) (*Migrator, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	pctx := pathctx.New(o.SourceDir, o.BuildDir)
	reader := o.Reader
	if reader == nil {
		reader = pathctx.NewFileReader(pctx, pathctx.WithLogger(o.Logger))
	}
	return &Migrator{
		opts:   o,
		ctx:    pctx,
		reader: reader,
		logger: o.Logger,
		diags:  diagnostic.NewCollector(o.Logger),
	}, nil
}

// Diagnostics returns everything reported during the run.
func (m *Migrator) Diagnostics() *diagnostic.Collector {
	return m.diags
}

// Stats reports how many distinct trace lines were consumed and skipped.
func (m *Migrator) Stats() (consumed, skipped int) {
	return m.consumed, m.skipped
}

// Extract feeds every line of trace to a new Extractor and returns the
// finished model together with the project files the trace names.
func (m *Migrator) Extract(ctx context.Context, trace io.Reader, name string) (mdl *model.Model, projectFiles []string, err error) {
	ctx, span := observability.StartExtractSpan(ctx, name)
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	e := qmakelog.New(qmakelog.Options{
		Context:       m.ctx,
		Reader:        m.reader,
		Logger:        m.logger,
		Diagnostics:   m.diags,
		QtLibDir:      m.opts.QtLibDir,
		QtIncludeDirs: m.opts.QtIncludeDirs,
	})

	scanner := bufio.NewScanner(trace)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTraceLine)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		e.Process(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read trace %s: %w", name, err)
	}

	mdl = e.Finish()
	m.consumed, m.skipped = e.Stats()
	observability.PhaseDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	observability.RecordPhaseResult(ctx, mdl.Len(), m.diags.Len())
	observability.RecordTraceLines(ctx, m.consumed, m.skipped)
	m.logger.Info("Extracted {Count} entries from {Path} ({Consumed} lines consumed, {Skipped} skipped)",
		mdl.Len(), name, m.consumed, m.skipped)
	return mdl, e.ProjectFiles(), nil
}

// RecoverConditions parses the project files of the source tree and appends
// their scopes to mdl as Conditions entries for the module. Every include()
// found is appended as an Include entry followed by the Conditions parsed
// from the included file. Files already visited are not parsed again.
func (m *Migrator) RecoverConditions(ctx context.Context, mdl *model.Model, projectFiles []string) error {
	modules := mdl.Modules()
	if len(modules) == 0 {
		m.logger.Debug("No module to attach conditions to")
		return nil
	}
	target := modules[0].Name

	parser := qmakepro.New(qmakepro.Options{
		Reader:      m.reader,
		Logger:      m.logger,
		Diagnostics: m.diags,
	})

	tracked := make(map[string]struct{})
	for _, f := range mdl.Files() {
		tracked[f.Output] = struct{}{}
	}

	visited := make(map[string]struct{})
	queue := make([]string, 0, len(projectFiles))
	for _, p := range projectFiles {
		normalized := m.ctx.Normalize(p)
		if pathctx.Ext(normalized) != ".pro" || !isSourceRooted(normalized) {
			continue
		}
		queue = append(queue, p)
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		file := queue[0]
		queue = queue[1:]
		if _, ok := visited[file]; ok {
			continue
		}
		visited[file] = struct{}{}

		res := m.parse(ctx, parser, file)
		if len(res.Conditions) > 0 {
			source := m.ctx.Normalize(file)
			m.trackScopedFiles(mdl, tracked, path.Dir(source), res.Conditions)
			mdl.Append(&model.Conditions{Target: target, Source: source, Nodes: res.Conditions})
		}
		for _, inc := range res.Includes {
			included := inc
			if !path.IsAbs(included) && !pathctx.IsPlaceholder(included) {
				included = path.Join(path.Dir(file), included)
			}
			if _, ok := visited[included]; ok {
				continue
			}
			mdl.Append(&model.Include{Path: m.ctx.Normalize(included)})
			queue = append(queue, included)
		}
	}
	return nil
}

// scopedFileKeys are the variables whose values name files the target compiles or embeds.
var scopedFileKeys = []string{"sources", "headers", "forms", "resources"}

// trackScopedFiles appends a File entry for every readable file named only
// inside a scope, so the generator copies it next to the trace-tracked ones.
// Values still holding an unexpanded variable are left alone.
func (m *Migrator) trackScopedFiles(mdl *model.Model, tracked map[string]struct{}, base string, nodes []*model.ConditionNode) {
	for _, n := range nodes {
		for _, key := range scopedFileKeys {
			values, _ := n.Variables.Get(key)
			for _, v := range values {
				if strings.Contains(v, "$") {
					continue
				}
				p := m.scopedPath(base, v)
				if _, ok := tracked[p]; ok {
					continue
				}
				tracked[p] = struct{}{}
				content, err := m.reader.ReadFile(p)
				if err != nil {
					m.diags.Warn(diagnostic.CodeMissingResource, p, "scoped file cannot be read: %v", err)
					continue
				}
				f := &model.File{Output: p, Content: content}
				if ext := pathctx.Ext(p); ext == ".ui" || ext == ".qrc" {
					f.Extension = ext
				}
				mdl.Append(f)
			}
		}
		m.trackScopedFiles(mdl, tracked, base, n.Children)
	}
}

func (m *Migrator) scopedPath(base, v string) string {
	switch {
	case pathctx.IsPlaceholder(v):
		return path.Clean(v)
	case path.IsAbs(v):
		return m.ctx.Normalize(v)
	default:
		return path.Join(base, v)
	}
}

func (m *Migrator) parse(ctx context.Context, parser *qmakepro.Parser, file string) *qmakepro.Result {
	_, span := observability.StartParseSpan(ctx, file)
	defer span.End()
	start := time.Now()
	res := parser.Parse(file)
	observability.PhaseDuration.WithLabelValues("parse").Observe(time.Since(start).Seconds())
	return res
}

func isSourceRooted(p string) bool {
	return p == pathctx.SourceDirPlaceholder || strings.HasPrefix(p, pathctx.SourceDirPlaceholder+"/")
}

// Generate renders mdl into OutDir and returns the files written.
func (m *Migrator) Generate(ctx context.Context, mdl *model.Model) ([]string, error) {
	if m.opts.OutDir == "" {
		return nil, errNoOutDir
	}
	start := time.Now()
	gen := cmake.New(cmake.Options{
		OutDir:         m.opts.OutDir,
		SourceSubdir:   m.opts.SourceSubdir,
		BuildDir:       m.opts.BuildDir,
		ProjectName:    m.opts.ProjectName,
		MinimumVersion: m.opts.MinimumVersion,
		QtVersion:      m.opts.QtVersion,
		QtComponents:   m.opts.QtComponents,
		CXXStandard:    m.opts.CXXStandard,
		CXXExtensions:  m.opts.CXXExtensions,
		RelativePaths:  !m.opts.AbsolutePaths,
		Context:        m.ctx,
		Logger:         m.logger,
		Diagnostics:    m.diags,
	})
	if err := gen.Generate(ctx, mdl); err != nil {
		return nil, fmt.Errorf("failed to generate CMake files: %w", err)
	}
	observability.PhaseDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	return gen.Written(), nil
}

// DumpModel writes mdl as indented JSON.
func DumpModel(w io.Writer, mdl *model.Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mdl); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

func dumpModelFile(name string, mdl *model.Model) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := DumpModel(f, mdl); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Run executes the migration (entry point called from CLI).
func Run(ctx context.Context, tracePath string, opts *Options, console Console) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	o := m.opts
	if o.OutDir == "" {
		return errNoOutDir
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	status := newPhaseStatus(console.Output())
	defer status.Stop()

	status.SetPhase("Extract")
	mdl, projectFiles, err := m.Extract(ctx, f, tracePath)
	if err != nil {
		return err
	}

	if o.RecoverConditions {
		status.SetPhase("Parse")
		if err := m.RecoverConditions(ctx, mdl, projectFiles); err != nil {
			return err
		}
	}

	if o.DumpModel != "" {
		if err := dumpModelFile(o.DumpModel, mdl); err != nil {
			return err
		}
	}

	status.SetPhase("Generate")
	written, err := m.Generate(ctx, mdl)
	status.Stop()
	if err != nil {
		return err
	}

	report(console, o, m.diags.Items(), status.IsTTY() && !o.NoColor)

	if o.MetricsFile != "" {
		if err := observability.WriteMetricsFile(o.MetricsFile); err != nil {
			console.Warning("Failed to write metrics file: %v", err)
		}
	}

	if !o.isQuiet() {
		if o.isDetailed() {
			for _, w := range written {
				console.Printf("  %s\n", w)
			}
		}
		errs, warnings := summarize(m.diags.Items())
		console.Success("Migrated %d entries into %s (%d files, %d warning(s), %d error(s)) in %.1fs",
			mdl.Len(), o.OutDir, len(written), warnings, errs, status.Elapsed().Seconds())
	}
	return nil
}
