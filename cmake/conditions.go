package cmake

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/pathctx"
)

// platformPredicates translates scope names that identify the host.
var platformPredicates = map[string]string{
	"win32":   `CMAKE_SYSTEM_NAME STREQUAL "Windows"`,
	"unix":    `UNIX`,
	"macx":    `CMAKE_SYSTEM_NAME STREQUAL "Darwin"`,
	"macos":   `CMAKE_SYSTEM_NAME STREQUAL "Darwin"`,
	"linux":   `CMAKE_SYSTEM_NAME STREQUAL "Linux"`,
	"android": `CMAKE_SYSTEM_NAME STREQUAL "Android"`,
	"ios":     `CMAKE_SYSTEM_NAME STREQUAL "iOS"`,
	"freebsd": `CMAKE_SYSTEM_NAME STREQUAL "FreeBSD"`,
	"msvc":    `MSVC`,
	"mingw":   `MINGW`,
	"gcc":     `CMAKE_CXX_COMPILER_ID STREQUAL "GNU"`,
	"g++":     `CMAKE_CXX_COMPILER_ID STREQUAL "GNU"`,
	"clang":   `CMAKE_CXX_COMPILER_ID MATCHES "Clang"`,
	"debug":   `CMAKE_BUILD_TYPE STREQUAL "Debug"`,
	"release": `CMAKE_BUILD_TYPE STREQUAL "Release"`,
}

var predicateCallRe = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// RenderConditions emits the recovered condition tree of a target as
// if()/elseif()/else() blocks. Trees parsed from an included file go to
// that file's fragment.
func (g *Generator) RenderConditions(c *model.Conditions) {
	r, ok := g.index[c.Target]
	if !ok || r.kind != refTarget || len(r.values) == 0 {
		g.diags.Warn(diagnostic.CodeUnresolvedDependency, c.Source, "conditions refer to unknown target %q", c.Target)
		return
	}
	w := g.writerFor(c.Source)
	scope := conditionScope{target: r.values[0], source: c.Source, base: path.Dir(c.Source)}
	g.renderNodes(w, scope, c.Nodes, "")
	w.WriteString("\n")
}

// conditionScope is what every frame of one tree renders against.
type conditionScope struct {
	target string
	source string
	base   string
}

func (g *Generator) renderNodes(w *strings.Builder, scope conditionScope, nodes []*model.ConditionNode, indent string) {
	open := false
	for _, n := range nodes {
		switch {
		case n.IsElse():
			if !open {
				g.renderBody(w, scope, n, indent)
				continue
			}
			fmt.Fprintf(w, "%selse()\n", indent)
			g.renderBody(w, scope, n, indent+"    ")
			fmt.Fprintf(w, "%sendif()\n", indent)
			open = false
		case len(n.Predicates) > 1 && n.Predicates[0] == "else" && open:
			fmt.Fprintf(w, "%selseif(%s)\n", indent, g.condition(scope, n.Predicates[1:]))
			g.renderBody(w, scope, n, indent+"    ")
		default:
			if open {
				fmt.Fprintf(w, "%sendif()\n", indent)
			}
			preds := n.Predicates
			if len(preds) > 1 && preds[0] == "else" {
				preds = preds[1:]
			}
			fmt.Fprintf(w, "%sif(%s)\n", indent, g.condition(scope, preds))
			g.renderBody(w, scope, n, indent+"    ")
			open = true
		}
	}
	if open {
		fmt.Fprintf(w, "%sendif()\n", indent)
	}
}

func (g *Generator) renderBody(w *strings.Builder, scope conditionScope, n *model.ConditionNode, indent string) {
	g.renderVariables(w, scope, n.Variables, indent)
	g.renderNodes(w, scope, n.Children, indent)
}

// condition joins the translated predicates of one frame with AND.
func (g *Generator) condition(scope conditionScope, predicates []string) string {
	parts := make([]string, 0, len(predicates))
	for _, p := range predicates {
		parts = append(parts, g.predicate(scope, p))
	}
	if len(parts) == 0 {
		return "TRUE"
	}
	return strings.Join(parts, " AND ")
}

// predicate translates one scope expression.
func (g *Generator) predicate(scope conditionScope, p string) string {
	p = strings.TrimSpace(p)
	if alts := splitTopLevel(p, '|'); len(alts) > 1 {
		out := make([]string, 0, len(alts))
		for _, a := range alts {
			out = append(out, g.predicate(scope, a))
		}
		return "(" + strings.Join(out, " OR ") + ")"
	}
	if rest, ok := strings.CutPrefix(p, "!"); ok {
		return "NOT (" + g.predicate(scope, rest) + ")"
	}
	if m := predicateCallRe.FindStringSubmatch(p); m != nil {
		if expr, ok := g.callPredicate(scope, m[1], splitArgs(m[2])); ok {
			return expr
		}
	}
	if expr, ok := platformPredicates[p]; ok {
		return expr
	}
	// mkspec names such as linux-g++ or win32-msvc
	if platform, compiler, ok := strings.Cut(p, "-"); ok {
		if pe, ok := platformPredicates[platform]; ok {
			if ce, ok := platformPredicates[compiler]; ok {
				return pe + " AND " + ce
			}
			return pe
		}
	}
	return fmt.Sprintf("%s IN_LIST QMAKE_CONFIG", quoteAlways(p))
}

func (g *Generator) callPredicate(scope conditionScope, name string, args []string) (string, bool) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	switch name {
	case "isEmpty":
		return fmt.Sprintf(`"${%s}" STREQUAL ""`, cmakeVariable(arg(0))), true
	case "exists":
		return fmt.Sprintf("EXISTS %s", quoteAlways(g.conditionPath(scope, arg(0)))), true
	case "equals", "isEqual":
		return fmt.Sprintf(`"${%s}" STREQUAL %s`, cmakeVariable(arg(0)), quoteAlways(arg(1))), true
	case "contains":
		return fmt.Sprintf("%s IN_LIST %s", quoteAlways(arg(1)), cmakeVariable(arg(0))), true
	case "greaterThan":
		return fmt.Sprintf("%s GREATER %s", cmakeVariable(arg(0)), arg(1)), true
	case "lessThan":
		return fmt.Sprintf("%s LESS %s", cmakeVariable(arg(0)), arg(1)), true
	case "versionAtLeast":
		return fmt.Sprintf("%s VERSION_GREATER_EQUAL %s", cmakeVariable(arg(0)), arg(1)), true
	case "qtHaveModule":
		return fmt.Sprintf("TARGET Qt%s::%s", g.opts.QtVersion, qtComponentName(arg(0))), true
	case "CONFIG":
		if expr, ok := platformPredicates[arg(0)]; ok && (arg(0) == "debug" || arg(0) == "release") {
			return expr, true
		}
		return fmt.Sprintf("%s IN_LIST QMAKE_CONFIG", quoteAlways(arg(0))), true
	}
	return "", false
}

// cmakeVariable names the list variable that mirrors a qmake variable.
func cmakeVariable(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "$$")
	switch strings.ToUpper(name) {
	case "CONFIG":
		return "QMAKE_CONFIG"
	case "QT":
		return "QMAKE_QT"
	}
	return name
}

func quoteAlways(s string) string {
	q := quote(s)
	if strings.HasPrefix(q, `"`) {
		return q
	}
	return `"` + q + `"`
}

// splitArgs splits function arguments on commas outside parentheses.
func splitArgs(s string) []string {
	parts := splitTopLevel(s, ',')
	for i := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
	}
	return parts
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// qtComponentName returns the CMake component for a QT variable value.
func qtComponentName(module string) string {
	switch module = strings.ToLower(module); module {
	case "testlib":
		return "Test"
	case "opengl":
		return "OpenGL"
	case "printsupport":
		return "PrintSupport"
	case "dbus":
		return "DBus"
	case "":
		return ""
	}
	return strings.ToUpper(module[:1]) + module[1:]
}

// conditionPath maps a path value of a project file to a listfile reference.
// Relative values are relative to the project file; concrete paths under the
// original tree are mapped back to their placeholder first.
func (g *Generator) conditionPath(scope conditionScope, v string) string {
	return g.ref(g.placeholderPath(scope, v))
}

func (g *Generator) placeholderPath(scope conditionScope, v string) string {
	switch {
	case pathctx.IsPlaceholder(v):
		return path.Clean(v)
	case path.IsAbs(v):
		if g.opts.Context != nil {
			return g.opts.Context.Normalize(v)
		}
		return path.Clean(v)
	default:
		return path.Join(scope.base, v)
	}
}

// renderVariables dispatches the variables of one frame by key.
func (g *Generator) renderVariables(w *strings.Builder, scope conditionScope, vars *model.Vars, indent string) {
	if vars == nil {
		return
	}
	keys := vars.Keys()
	for _, key := range keys {
		values, _ := vars.Get(key)
		switch {
		case key == "sources" || key == "headers" || key == "forms" || key == "resources":
			refs := make([]string, 0, len(values))
			for _, v := range values {
				refs = append(refs, g.conditionPath(scope, v))
			}
			writeList(w, indent, fmt.Sprintf("target_sources(%s PRIVATE", scope.target), refs)
		case key == "libs":
			g.renderLibs(w, scope, values, indent)
		case key == "defines" || strings.HasSuffix(key, ".defines"):
			defs := make([]string, 0, len(values))
			for _, v := range values {
				defs = append(defs, quote(strings.TrimPrefix(v, "-D")))
			}
			writeList(w, indent, fmt.Sprintf("target_compile_definitions(%s PRIVATE", scope.target), defs)
		case key == "includepath" || strings.HasSuffix(key, ".includepath"):
			dirs := make([]string, 0, len(values))
			for _, v := range values {
				dirs = append(dirs, g.conditionPath(scope, v))
			}
			writeList(w, indent, fmt.Sprintf("target_include_directories(%s PRIVATE", scope.target), dirs)
		case key == "config":
			fmt.Fprintf(w, "%slist(APPEND QMAKE_CONFIG %s)\n", indent, strings.Join(quoteAll(values), " "))
		case key == "qt":
			var libs []string
			for _, v := range values {
				if c := qtComponentName(v); c != "" {
					libs = append(libs, g.packages.addQt(c))
				}
			}
			fmt.Fprintf(w, "%slist(APPEND QMAKE_QT %s)\n", indent, strings.Join(quoteAll(values), " "))
			writeList(w, indent, fmt.Sprintf("target_link_libraries(%s PRIVATE", scope.target), libs)
		case strings.HasSuffix(key, ".path"):
			g.renderInstall(w, scope, vars, strings.TrimSuffix(key, ".path"), values, indent)
		case strings.HasSuffix(key, ".files"):
			if _, ok := vars.Get(strings.TrimSuffix(key, ".files") + ".path"); ok {
				continue
			}
			g.diags.Info(diagnostic.CodeUnsupportedVariable, scope.source, "%s has no matching .path", key)
		default:
			g.diags.Info(diagnostic.CodeUnsupportedVariable, scope.source, "variable %q has no translation", key)
		}
	}
}

// renderLibs classifies LIBS entries into link directives.
func (g *Generator) renderLibs(w *strings.Builder, scope conditionScope, values []string, indent string) {
	var dirs, libs, options []string
	for i := 0; i < len(values); i++ {
		v := values[i]
		switch {
		case v == "-framework" && i+1 < len(values):
			libs = append(libs, quote("-framework "+values[i+1]))
			i++
		case strings.HasPrefix(v, "-L"):
			dirs = append(dirs, g.conditionPath(scope, strings.TrimPrefix(v, "-L")))
		case strings.HasPrefix(v, "-l"):
			libs = append(libs, quote(g.classifyLib(strings.TrimPrefix(v, "-l"))))
		case strings.HasPrefix(v, "-"):
			options = append(options, quote(v))
		default:
			if lib := g.classifyLib(v); lib != v {
				libs = append(libs, quote(lib))
			} else {
				libs = append(libs, g.conditionPath(scope, v))
			}
		}
	}
	writeList(w, indent, fmt.Sprintf("target_link_directories(%s PRIVATE", scope.target), dirs)
	writeList(w, indent, fmt.Sprintf("target_link_libraries(%s PRIVATE", scope.target), libs)
	writeList(w, indent, fmt.Sprintf("target_link_options(%s PRIVATE", scope.target), options)
}

// renderInstall emits install() for a "<name>.path" key: the listed files of
// "<name>.files", or the target itself for target.path.
func (g *Generator) renderInstall(w *strings.Builder, scope conditionScope, vars *model.Vars, name string, dest []string, indent string) {
	if len(dest) == 0 {
		return
	}
	destination := quote(dest[0])
	files, ok := vars.Get(name + ".files")
	if !ok {
		if name == "target" {
			fmt.Fprintf(w, "%sinstall(TARGETS %s DESTINATION %s)\n", indent, scope.target, destination)
			return
		}
		g.diags.Info(diagnostic.CodeUnsupportedVariable, scope.source, "%s.path has no matching .files", name)
		return
	}

	var refs []string
	for _, f := range files {
		refs = append(refs, g.installFiles(scope, f)...)
	}
	if len(refs) == 0 {
		return
	}
	fmt.Fprintf(w, "%sinstall(FILES %s DESTINATION %s)\n", indent, strings.Join(refs, " "), destination)
}

// installFiles resolves one .files entry, first as a path and then as a
// glob pattern against the original tree.
func (g *Generator) installFiles(scope conditionScope, entry string) []string {
	p := g.placeholderPath(scope, entry)
	concrete := g.concretePath(p)
	if _, err := os.Stat(concrete); err == nil {
		return []string{g.ref(p)}
	}
	matches, err := filepath.Glob(filepath.FromSlash(concrete))
	if err != nil || len(matches) == 0 {
		g.logger.Verbose("Install entry {Entry} matched nothing, passing through", entry)
		return []string{g.ref(p)}
	}
	slices.Sort(matches)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = filepath.ToSlash(m)
		if g.opts.Context != nil {
			m = g.opts.Context.Normalize(m)
		} else {
			m = g.target.NormalizePath(m, "", true)
		}
		out = append(out, g.ref(m))
	}
	return out
}

// concretePath locates a placeholder path in the original tree when it is
// known, else in the materialized one.
func (g *Generator) concretePath(p string) string {
	if g.opts.Context != nil {
		return g.opts.Context.Resolve(p)
	}
	return g.fsPath(p)
}
