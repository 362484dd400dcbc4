package cmake

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/pathctx"
)

// moduleSource is one source as it is listed in the target.
type moduleSource struct {
	path       string
	ref        string
	compilable bool
	flags      []string
	includes   []string
}

// RenderModule emits the target definition of a module and its usage requirements.
func (g *Generator) RenderModule(mod *model.Module) {
	name := targetName(mod.Name)
	sources := g.moduleSources(mod)
	w := &g.listfile

	refs := make([]string, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, s.ref)
	}
	head := fmt.Sprintf("add_executable(%s", name)
	switch mod.ModuleType {
	case model.SharedLibrary:
		head = fmt.Sprintf("add_library(%s SHARED", name)
	case model.StaticLibrary:
		head = fmt.Sprintf("add_library(%s STATIC", name)
	}
	if len(refs) == 0 {
		fmt.Fprintf(w, "%s)\n", head)
	} else {
		writeList(w, "", head, refs)
	}

	common, perSource, includes := splitFlags(sources, mod)
	var definitions, options []string
	for _, f := range common {
		if d, ok := strings.CutPrefix(f, "-D"); ok {
			definitions = append(definitions, quote(d))
		} else {
			options = append(options, quote(f))
		}
	}

	includeRefs := make([]string, 0, len(includes))
	for _, dir := range includes {
		includeRefs = append(includeRefs, g.ref(dir))
	}
	writeList(w, "", fmt.Sprintf("target_include_directories(%s PRIVATE", name), includeRefs)
	writeList(w, "", fmt.Sprintf("target_compile_definitions(%s PRIVATE", name), definitions)
	writeList(w, "", fmt.Sprintf("target_compile_options(%s PRIVATE", name), options)
	for _, s := range sources {
		if extra := perSource[s.ref]; len(extra) > 0 {
			fmt.Fprintf(w, "set_source_files_properties(%s PROPERTIES COMPILE_OPTIONS %s)\n", s.ref, quote(strings.Join(extra, ";")))
		}
	}

	libs := model.NewOrderedSet[string]()
	for _, lib := range mod.Libs {
		libs.Add(g.classifyLib(lib))
	}
	qtPrefix := "Qt" + g.opts.QtVersion + "::"
	if hasGeneratedSource(mod) && !slices.ContainsFunc(libs.Values(), func(l string) bool { return strings.HasPrefix(l, qtPrefix) }) {
		libs.Add(g.packages.addQt("Core"))
	}
	writeList(w, "", fmt.Sprintf("target_link_libraries(%s PRIVATE", name), quoteAll(libs.Values()))

	var linkDirs, linkOptions []string
	for _, f := range mod.LinkFlags {
		if dir, ok := strings.CutPrefix(f, "-L"); ok {
			linkDirs = append(linkDirs, g.ref(dir))
			continue
		}
		linkOptions = append(linkOptions, quote(f))
	}
	writeList(w, "", fmt.Sprintf("target_link_directories(%s PRIVATE", name), linkDirs)
	writeList(w, "", fmt.Sprintf("target_link_options(%s PRIVATE", name), linkOptions)

	var after []string
	for _, dep := range mod.Dependencies {
		if r, ok := g.index[dep]; ok && r.kind == refTarget {
			for _, v := range r.values {
				if v != name && !slices.Contains(after, v) {
					after = append(after, v)
				}
			}
		}
	}
	if len(after) > 0 {
		fmt.Fprintf(w, "add_dependencies(%s %s)\n", name, strings.Join(after, " "))
	}

	if mod.ModuleType == model.SharedLibrary && mod.Version != "" {
		if mod.CompatibilityVersion != "" {
			fmt.Fprintf(w, "set_target_properties(%s PROPERTIES VERSION %s SOVERSION %s)\n", name, mod.Version, mod.CompatibilityVersion)
		} else {
			fmt.Fprintf(w, "set_target_properties(%s PROPERTIES VERSION %s)\n", name, mod.Version)
		}
	}

	if dir := path.Dir(mod.Output); mod.Output != "" && dir != "." && dir != g.opts.DefaultOutputDir {
		w.WriteString(g.formatTargetOutputSubdir(name, mod.ModuleType, dir))
	}

	if mod.ModuleType == model.TestExecutable {
		fmt.Fprintf(w, "add_test(NAME %s COMMAND %s)\n", name, name)
	}
	w.WriteString("\n")

	g.register(mod.Name, refTarget, name)
	g.register(mod.Output, refTarget, name)
	g.logger.Debug("Rendered {ModuleType} {Name} with {Count} sources", mod.ModuleType, name, len(sources))
}

// formatTargetOutputSubdir returns the directive that moves a target's
// output away from the default directory.
func (g *Generator) formatTargetOutputSubdir(name string, moduleType model.ModuleType, dir string) string {
	kind := "RUNTIME_OUTPUT_DIRECTORY"
	switch moduleType {
	case model.SharedLibrary:
		kind = "LIBRARY_OUTPUT_DIRECTORY"
	case model.StaticLibrary:
		kind = "ARCHIVE_OUTPUT_DIRECTORY"
	}
	return fmt.Sprintf("set_target_output_subdir(%s %s %s)\n", name, kind, g.ref(dir))
}

// moduleSources lists the sources of a module as the target sees them.
//
// With Qt automation on, moc/uic/rcc outputs are replaced by the inputs
// they are generated from, .ui and .qrc inputs found among the
// dependencies are added, and Qt's own defines and include directories are
// dropped since the imported Qt targets supply them. Outputs of earlier
// custom commands that the module depends on are listed so they get built.
func (g *Generator) moduleSources(mod *model.Module) []moduleSource {
	var out []moduleSource
	seen := make(map[string]struct{})
	add := func(s moduleSource) {
		if _, dup := seen[s.ref]; dup {
			return
		}
		seen[s.ref] = struct{}{}
		out = append(out, s)
	}
	plain := func(p string) moduleSource {
		return moduleSource{path: p, ref: g.ref(p)}
	}

	for _, src := range mod.Sources {
		if g.qtEnabled && isGeneratedArtifact(src.Path) {
			if input := generatedInput(src.Path, mod.Dependencies); input != "" {
				add(plain(input))
			} else {
				g.logger.Verbose("Dropping generated source {Path} with no known input", src.Path)
			}
			continue
		}
		s := plain(src.Path)
		if src.Language != "" {
			s.compilable = true
			s.flags = g.filterFlags(src.CompileFlags)
			s.includes = g.filterIncludes(src.IncludeDirs)
		}
		add(s)
	}

	for _, dep := range mod.Dependencies {
		if ext := pathctx.Ext(dep); g.qtEnabled && (ext == ".ui" || ext == ".qrc") {
			add(plain(dep))
			continue
		}
		if r, ok := g.index[dep]; ok && r.kind == refOutput {
			for _, v := range r.values {
				add(moduleSource{path: dep, ref: v})
			}
		}
	}
	return out
}

func hasGeneratedSource(mod *model.Module) bool {
	return slices.ContainsFunc(mod.Sources, func(s model.Source) bool { return isGeneratedArtifact(s.Path) })
}

// generatedInput finds the dependency a moc_/ui_/qrc_ artifact is generated from.
func generatedInput(artifact string, deps []string) string {
	base := pathctx.Base(artifact)
	var stem string
	var exts []string
	switch {
	case strings.HasPrefix(base, "moc_"):
		stem, exts = strings.TrimSuffix(strings.TrimPrefix(base, "moc_"), ".cpp"), []string{".h", ".hpp", ".hh", ".hxx"}
	case strings.HasPrefix(base, "ui_"):
		stem, exts = strings.TrimSuffix(strings.TrimPrefix(base, "ui_"), ".h"), []string{".ui"}
	case strings.HasPrefix(base, "qrc_"):
		stem, exts = strings.TrimSuffix(strings.TrimPrefix(base, "qrc_"), ".cpp"), []string{".qrc"}
	}
	for _, d := range deps {
		if pathctx.Stem(d) == stem && slices.Contains(exts, pathctx.Ext(d)) {
			return d
		}
	}
	return ""
}

// filterFlags drops flags the project-wide directives already provide.
func (g *Generator) filterFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if strings.HasPrefix(f, "-std=") {
			continue
		}
		if g.qtEnabled && strings.HasPrefix(f, "-DQT_") && strings.HasSuffix(f, "_LIB") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// filterIncludes drops system and Qt include directories.
func (g *Generator) filterIncludes(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "/usr/include" {
			continue
		}
		if g.qtEnabled && (strings.Contains(d, "/qt5") || strings.Contains(d, "/qt6")) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// splitFlags returns the flags shared by every compilable source, the
// remaining flags per source reference, and the union of include directories.
func splitFlags(sources []moduleSource, mod *model.Module) (common []string, perSource map[string][]string, includes []string) {
	perSource = make(map[string][]string)
	incs := model.NewOrderedSet[string]()

	var compilable []moduleSource
	for _, s := range sources {
		if s.compilable {
			compilable = append(compilable, s)
			incs.Add(s.includes...)
		}
	}
	incs.Add(mod.IncludeDirs...)

	shared := model.NewOrderedSet(mod.CompileFlags...)
	if len(compilable) > 0 {
		for _, f := range compilable[0].flags {
			inAll := true
			for _, s := range compilable[1:] {
				if !slices.Contains(s.flags, f) {
					inAll = false
					break
				}
			}
			if inAll {
				shared.Add(f)
			}
		}
	}
	for _, s := range compilable {
		for _, f := range s.flags {
			if !shared.Contains(f) {
				perSource[s.ref] = append(perSource[s.ref], f)
			}
		}
	}
	return shared.Values(), perSource, incs.Values()
}
