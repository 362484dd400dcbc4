package qmakelog

import (
	"slices"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
	"github.com/willibrandon/gomigrator/version"
)

// Finish closes the trace and returns the completed model.
//
// Complete extra compilers and targets are realized first, then the
// canonical build output directory, then either one Subproject per SUBDIRS
// entry or a single Module. Calling Finish again returns the same model.
func (e *Extractor) Finish() *model.Model {
	if e.finished {
		return e.model
	}
	e.finished = true
	acc := e.acc

	outputs, targetNames := e.realizeCustom()

	if e.model.EnsureDirectory(BuildOutputDir) {
		observability.ModelEntriesTotal.WithLabelValues(string(model.TypeDirectory)).Inc()
	}

	if acc.template == "subdirs" {
		for _, subdir := range acc.subdirs.Values() {
			p := e.ctx.Normalize(pathctx.Join(subdir, pathctx.Base(subdir)+".pro"))
			e.append(&model.Subproject{
				Output:       p,
				ModuleType:   model.Subdirs,
				Dependencies: []string{},
			})
			e.logger.Info("Added subproject: {Path}", p)
		}
		return e.model
	}

	generated := e.scheduleGenerated()

	switch {
	case acc.target == "":
		e.diags.Warn(diagnostic.CodeMissingTarget, "", "skipped final target: TARGET not specified in trace")
		return e.model
	case acc.sources.Len() == 0:
		e.diags.Warn(diagnostic.CodeMissingSources, acc.target, "skipped final target: no sources")
		return e.model
	}

	deps := model.NewOrderedSet(BuildOutputDir)
	deps.Add(acc.sources.Values()...)
	deps.Add(acc.headers.Values()...)
	deps.Add(acc.forms.Values()...)
	deps.Add(acc.resources.Values()...)
	deps.Add(generated...)
	deps.Add(outputs...)
	deps.Add(targetNames...)
	deps.Add(acc.preTargetDeps.Values()...)
	if acc.precompiledHeader != "" {
		deps.Add(acc.precompiledHeader)
	}

	cxxFlags, cFlags := e.sourceFlags()
	includeDirs := e.includeDirs()

	sources := make([]model.Source, 0, acc.sources.Len())
	for _, p := range model.Sorted(acc.sources) {
		src := model.Source{
			Path:         p,
			CompileFlags: []string{},
			IncludeDirs:  []string{},
			Dependencies: []string{},
		}
		if lang, ok := sourceLanguage(p); ok {
			src.Language = lang
			src.IncludeDirs = includeDirs
			src.CompileFlags = cxxFlags
			if lang == "C" {
				src.CompileFlags = cFlags
			}
		}
		sources = append(sources, src)
	}

	linkFlags := model.NewOrderedSet(acc.linkFlags.Values()...)
	if bundle, ok := acc.bundles[acc.buildType]; ok {
		linkFlags.Add(bundle.link.Values()...)
	}

	mod := &model.Module{
		Name:                 acc.target,
		ModuleType:           e.moduleType(),
		Output:               e.ctx.NormalizePath(pathctx.Join(acc.destDir, acc.target), "", true),
		Version:              acc.version,
		CompatibilityVersion: version.MajorString(acc.version),
		Sources:              sources,
		Dependencies:         model.Sorted(deps),
		Libs:                 model.Sorted(acc.libs),
		LinkFlags:            model.Sorted(linkFlags),
		CompileFlags:         []string{},
		IncludeDirs:          []string{},
		Config:               acc.config.Values(),
		CXX:                  acc.cxx,
		CC:                   acc.cc,
	}
	e.append(mod)
	e.logger.Info("Added target: {Name} (type: {ModuleType})", mod.Name, mod.ModuleType)
	return e.model
}

// scheduleGenerated derives every moc/uic/rcc artifact from its input's
// base name and the configured output directory, or adds the input itself
// as a source when the matching automatic mode is on.
func (e *Extractor) scheduleGenerated() []string {
	acc := e.acc
	var generated []string

	artifact := func(dir, prefix, input, ext string) string {
		return e.ctx.NormalizePath(pathctx.Join(dir, prefix+pathctx.Stem(input)+ext), "", true)
	}

	for _, h := range acc.mocHeaders.Values() {
		if acc.automoc {
			acc.sources.Add(h)
			continue
		}
		moc := artifact(acc.mocDir, "moc_", h, ".cpp")
		acc.sources.Add(moc)
		generated = append(generated, moc)
	}
	for _, f := range acc.forms.Values() {
		if acc.autouic {
			acc.sources.Add(f)
			continue
		}
		generated = append(generated, artifact(acc.uiDir, "ui_", f, ".h"))
	}
	for _, r := range acc.resources.Values() {
		if acc.autorcc {
			acc.sources.Add(r)
			continue
		}
		qrc := artifact(acc.rccDir, "qrc_", r, ".cpp")
		acc.sources.Add(qrc)
		generated = append(generated, qrc)
	}
	return generated
}

// sourceFlags returns the sorted compile flags for C++ and C translation units.
func (e *Extractor) sourceFlags() (cxx, c []string) {
	acc := e.acc

	common := model.NewOrderedSet(acc.defines.Values()...)
	common.Add(acc.flags.Values()...)
	if bundle, ok := acc.bundles[acc.buildType]; ok {
		common.Add(bundle.compile.Values()...)
	}
	if acc.qtProject && acc.buildType != buildDebug {
		common.Add("-DQT_NO_DEBUG")
	}

	cxxSet := model.NewOrderedSet(common.Values()...)
	cxxSet.Add(acc.cxxFlags.Values()...)
	if std := acc.standardFlag(); std != "" {
		cxxSet.Add(std)
	}

	cSet := model.NewOrderedSet[string]()
	for _, f := range common.Values() {
		if !strings.HasPrefix(f, "-std=") {
			cSet.Add(f)
		}
	}
	cSet.Add(acc.cFlags.Values()...)

	return model.Sorted(cxxSet), model.Sorted(cSet)
}

func (e *Extractor) includeDirs() []string {
	acc := e.acc
	dirs := model.NewOrderedSet(
		pathctx.SourceDirPlaceholder,
		BuildOutputDir,
		pathctx.SourceDirPlaceholder+"/include",
	)
	dirs.Add(acc.includes.Values()...)
	dirs.Add(acc.dependPath.Values()...)
	dirs.Add(acc.rccDir, acc.uiDir)
	if acc.qtProject {
		dirs.Add(e.qtIncludeDirs...)
	}

	out := model.Sorted(dirs)
	return slices.DeleteFunc(out, func(d string) bool { return d == "" || isNoise(d) })
}

func (e *Extractor) moduleType() model.ModuleType {
	acc := e.acc
	switch {
	case acc.testcase:
		return model.TestExecutable
	case acc.template == "lib" && acc.staticlib:
		return model.StaticLibrary
	case acc.template == "lib":
		return model.SharedLibrary
	default:
		return model.Executable
	}
}
