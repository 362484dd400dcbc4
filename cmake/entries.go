package cmake

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
)

// RenderFile materializes a tracked file in the output tree.
// moc/uic/rcc outputs under the build root are left to CMake's Qt automation,
// and files outside both placeholder roots are only indexed.
func (g *Generator) RenderFile(f *model.File) error {
	dest := g.fsPath(f.Output)
	g.register(f.Output, refPath, g.ref(f.Output))

	if isGeneratedArtifact(f.Output) {
		g.logger.Verbose("Skipping generated artifact {Path}", f.Output)
		return nil
	}
	if !pathctx.IsPlaceholder(f.Output) {
		g.logger.Debug("Not materializing {Path} outside the project tree", f.Output)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, f.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	g.written = append(g.written, dest)
	observability.FilesWrittenTotal.WithLabelValues("source").Inc()
	g.logger.Verbose("Materialized {Path}", dest)
	return nil
}

// RenderDirectory makes sure a directory exists.
func (g *Generator) RenderDirectory(d *model.Directory) error {
	dest := g.fsPath(d.Output)
	g.register(d.Output, refPath, g.ref(d.Output))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dest, err)
	}
	observability.FilesWrittenTotal.WithLabelValues("directory").Inc()
	return nil
}

// qmakeFileVars are the per-input variables of an extra compiler's output and commands.
var qmakeFileVars = []string{
	"${QMAKE_FILE_BASE}",
	"${QMAKE_FILE_NAME}",
	"${QMAKE_FILE_IN}",
	"${QMAKE_FILE_PATH}",
	"${QMAKE_FILE_EXT}",
	"${QMAKE_FILE_OUT}",
}

func hasFileVars(s string) bool {
	for _, v := range qmakeFileVars {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}

// expandFileVars substitutes the per-input variables for one input.
func expandFileVars(s, input, output string) string {
	return strings.NewReplacer(
		"${QMAKE_FILE_BASE}", pathctx.Stem(input),
		"${QMAKE_FILE_NAME}", input,
		"${QMAKE_FILE_IN}", input,
		"${QMAKE_FILE_PATH}", path.Dir(input),
		"${QMAKE_FILE_EXT}", pathctx.Ext(input),
		"${QMAKE_FILE_OUT}", output,
	).Replace(s)
}

// RenderCustomCommand emits add_custom_command. An output naming
// ${QMAKE_FILE_BASE} and friends yields one command per input.
func (g *Generator) RenderCustomCommand(c *model.CustomCommand) {
	if !hasFileVars(c.Output) {
		out := g.ref(c.Output)
		g.writeCustomCommand(out, c.Command, g.resolveAll(c.Dependencies))
		g.register(c.Output, refOutput, out)
		g.register(c.ID, refOutput, out)
		return
	}

	var outputs []string
	for _, input := range c.Dependencies {
		output := expandFileVars(c.Output, input, "")
		in := g.resolve(input)
		out := g.ref(output)
		command := expandFileVars(c.Command, strings.Join(in, " "), out)
		g.writeCustomCommand(out, command, in)
		g.register(output, refOutput, out)
		outputs = append(outputs, out)
	}
	g.register(c.Output, refOutput, outputs...)
	g.register(c.ID, refOutput, outputs...)
}

func (g *Generator) writeCustomCommand(output, command string, deps []string) {
	w := &g.listfile
	fmt.Fprintf(w, "add_custom_command(OUTPUT %s\n", output)
	fmt.Fprintf(w, "    COMMAND %s\n", command)
	if len(deps) > 0 {
		fmt.Fprintf(w, "    DEPENDS %s\n", strings.Join(deps, " "))
	}
	w.WriteString("    VERBATIM\n)\n\n")
}

// RenderCustomTarget emits add_custom_target with one COMMAND per command.
func (g *Generator) RenderCustomTarget(t *model.CustomTarget) {
	name := targetName(t.Name)
	deps := g.resolveAll(t.Dependencies)

	w := &g.listfile
	fmt.Fprintf(w, "add_custom_target(%s\n", name)
	for _, command := range t.Commands {
		fmt.Fprintf(w, "    COMMAND %s\n", command)
	}
	if len(deps) > 0 {
		fmt.Fprintf(w, "    DEPENDS %s\n", strings.Join(deps, " "))
	}
	w.WriteString("    VERBATIM\n)\n\n")

	g.register(t.Name, refTarget, name)
	g.register(t.ID, refTarget, name)
}

// subprojectID derives a stable identifier from a subproject's project file.
func subprojectID(output string) string {
	return "subproject_" + targetName(pathctx.Stem(output))
}

// RenderSubproject emits add_subdirectory for a "subdirs" subproject.
// Its dependencies must already be indexed; the rest are reported and dropped.
func (g *Generator) RenderSubproject(s *model.Subproject) {
	if s.ModuleType != model.Subdirs {
		g.diags.Warn(diagnostic.CodeInvalidEntry, s.Output, "subproject has module type %q, expected %q", s.ModuleType, model.Subdirs)
		return
	}

	id := subprojectID(s.Output)
	var after []string
	for _, dep := range s.Dependencies {
		r, ok := g.index[dep]
		if !ok {
			g.diags.Warn(diagnostic.CodeUnresolvedDependency, s.Output, "dependency %q of subproject is not defined before it", dep)
			continue
		}
		after = append(after, r.values...)
	}

	w := &g.listfile
	if len(after) > 0 {
		fmt.Fprintf(w, "# %s follows: %s\n", id, strings.Join(after, " "))
	}
	fmt.Fprintf(w, "add_subdirectory(%s)\n\n", g.ref(path.Dir(s.Output)))

	g.register(s.Output, refSubproject, id)
	g.register(path.Dir(s.Output), refSubproject, id)
}

// RenderInclude emits an include of the fragment named after the included
// file, and opens that fragment for Conditions parsed from it.
func (g *Generator) RenderInclude(inc *model.Include) {
	name := targetName(pathctx.Stem(inc.Path))
	if _, ok := g.fragments[inc.Path]; !ok {
		f := &fragment{name: name}
		fmt.Fprintf(&f.buf, "# Recovered from %s\n\n", pathctx.Base(inc.Path))
		g.fragments[inc.Path] = f
		g.fragOrder = append(g.fragOrder, inc.Path)
	}
	fmt.Fprintf(&g.listfile, "include(${CMAKE_CURRENT_LIST_DIR}/%s%s)\n\n", name, FragmentExtension)
}

// writerFor returns the fragment opened for source, or the listfile.
func (g *Generator) writerFor(source string) *strings.Builder {
	if f, ok := g.fragments[source]; ok {
		return &f.buf
	}
	for _, key := range g.fragOrder {
		if pathctx.Base(key) == pathctx.Base(source) {
			return &g.fragments[key].buf
		}
	}
	return &g.listfile
}
