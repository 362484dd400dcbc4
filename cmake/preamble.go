package cmake

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/pathctx"
	"github.com/willibrandon/gomigrator/version"
)

// cxxStandard is one -std= spelling or CONFIG selector.
type cxxStandard struct {
	rank  int
	value string
}

// cxxStandards maps the year part of -std=c++NN and CONFIG c++NN to the
// CMAKE_CXX_STANDARD value.
var cxxStandards = map[string]cxxStandard{
	"98": {1998, "98"},
	"03": {2003, "98"},
	"0x": {2011, "11"},
	"11": {2011, "11"},
	"1y": {2014, "14"},
	"14": {2014, "14"},
	"1z": {2017, "17"},
	"17": {2017, "17"},
	"2a": {2020, "20"},
	"20": {2020, "20"},
	"2b": {2023, "23"},
	"23": {2023, "23"},
	"2c": {2026, "26"},
	"26": {2026, "26"},
}

var (
	stdFlagRe   = regexp.MustCompile(`^-std=(c|gnu)\+\+(\w+)$`)
	stdConfigRe = regexp.MustCompile(`^c\+\+(\w+)$`)
)

// prepare scans the whole model before anything is rendered: the language
// standard is chosen project-wide and find_package needs every component up front.
func (g *Generator) prepare(entries []model.Entry) {
	g.project = g.projectName(entries)
	best := cxxStandard{}
	gnu := false
	consider := func(year string, nonStrict bool) {
		std, ok := cxxStandards[year]
		if !ok {
			return
		}
		if nonStrict {
			gnu = true
		}
		if std.rank > best.rank {
			best = std
		}
	}

	for _, entry := range entries {
		switch e := entry.(type) {
		case *model.Module:
			flags := slices.Clone(e.CompileFlags)
			for _, src := range e.Sources {
				flags = append(flags, src.CompileFlags...)
			}
			for _, f := range flags {
				if m := stdFlagRe.FindStringSubmatch(f); m != nil {
					consider(m[2], m[1] == "gnu")
				}
			}
			for _, c := range e.Config {
				if m := stdConfigRe.FindStringSubmatch(c); m != nil {
					consider(m[1], false)
				}
			}
			g.config.Add(e.Config...)
			for _, lib := range e.Libs {
				g.classifyLib(lib)
			}
			if e.ModuleType == model.TestExecutable {
				g.testing = true
			}
			// moc/uic/rcc outputs are left to CMake's Qt automation, which
			// needs QtCore even when the trace named no Qt library.
			if hasGeneratedSource(e) {
				g.qtEnabled = true
				g.packages.addQt("Core")
			}
		case *model.File:
			if ext := pathctx.Ext(e.Output); ext == ".ui" || ext == ".qrc" {
				g.qtEnabled = true
			}
		case *model.Conditions:
			g.prepareConditions(e.Nodes)
		}
	}

	if best.value != "" {
		g.standard = best.value
		g.extensions = gnu
	}
	if g.packages.hasQt() {
		g.qtEnabled = true
	}
	g.logger.Debug("Selected C++ standard {Standard} (extensions: {Extensions})", g.standard, g.extensions)
}

func (g *Generator) prepareConditions(nodes []*model.ConditionNode) {
	for _, n := range nodes {
		if libs, ok := n.Variables.Get("libs"); ok {
			for _, lib := range libs {
				if name, ok := strings.CutPrefix(lib, "-l"); ok {
					g.classifyLib(name)
				} else if !strings.HasPrefix(lib, "-") {
					g.classifyLib(lib)
				}
			}
		}
		if modules, ok := n.Variables.Get("qt"); ok {
			for _, m := range modules {
				if c := qtComponentName(m); c != "" {
					g.packages.addQt(c)
				}
			}
		}
		g.prepareConditions(n.Children)
	}
}

var (
	qtLibFileRe = regexp.MustCompile(`^lib(Qt[56])(\w+?)(?:\.so|\.a|\.dylib)(?:\.[\d.]+)?$`)
	qtLibNameRe = regexp.MustCompile(`^(Qt[56])(\w+)$`)
)

// classifyLib returns the link reference for a library and schedules the
// package that provides it.
func (g *Generator) classifyLib(lib string) string {
	base := pathctx.Base(lib)
	if m := qtLibFileRe.FindStringSubmatch(base); m != nil {
		return g.packages.addQt(m[2])
	}
	if m := qtLibNameRe.FindStringSubmatch(lib); m != nil {
		return g.packages.addQt(m[2])
	}
	switch base {
	case "GL", "OpenGL", "opengl32", "libGL.so":
		g.packages.openGL = true
		return "OpenGL::GL"
	case "pthread", "Threads", "libpthread.so":
		g.packages.threads = true
		return "Threads::Threads"
	}
	if pathctx.IsPlaceholder(lib) {
		return g.ref(lib)
	}
	return lib
}

// packageSet is the find_package directives of one run.
type packageSet struct {
	qtVersion string
	qt        *model.OrderedSet[string]
	openGL    bool
	threads   bool
}

func newPackageSet(qtVersion string) *packageSet {
	return &packageSet{qtVersion: qtVersion, qt: model.NewOrderedSet[string]()}
}

// addQt schedules a Qt component and returns its imported target.
func (p *packageSet) addQt(component string) string {
	if component == "Testlib" || component == "TestLib" {
		component = "Test"
	}
	p.qt.Add(component)
	return "Qt" + p.qtVersion + "::" + component
}

func (p *packageSet) hasQt() bool {
	return p.qt.Len() > 0
}

// qtComponentRank orders components so that dependents come before the
// modules they build on, as in "Widgets Gui Core".
var qtComponentRank = map[string]int{
	"Core":         0,
	"Gui":          1,
	"Network":      1,
	"Sql":          1,
	"Xml":          1,
	"Concurrent":   1,
	"DBus":         1,
	"Test":         1,
	"Widgets":      2,
	"OpenGL":       3,
	"PrintSupport": 3,
	"Svg":          3,
}

func (p *packageSet) qtComponents() []string {
	out := p.qt.Values()
	slices.SortStableFunc(out, func(a, b string) int {
		ra, rb := qtComponentRank[a], qtComponentRank[b]
		if ra != rb {
			return rb - ra
		}
		return strings.Compare(a, b)
	})
	return out
}

// qmakeModuleName returns the QT variable spelling of a Qt component.
func qmakeModuleName(component string) string {
	if component == "Test" {
		return "testlib"
	}
	return strings.ToLower(component)
}

func (g *Generator) minimumVersion() string {
	floor := version.MustParse(DefaultMinimumVersion)
	requested, err := version.Parse(g.opts.MinimumVersion)
	if err != nil {
		g.logger.Warn("Invalid cmake minimum version {Version}, using {Default}", g.opts.MinimumVersion, DefaultMinimumVersion)
		return floor.String()
	}
	return version.Max(requested, floor).String()
}

func (g *Generator) projectName(entries []model.Entry) string {
	if g.opts.ProjectName != "" {
		return targetName(g.opts.ProjectName)
	}
	for _, e := range entries {
		if m, ok := e.(*model.Module); ok {
			return targetName(m.Name)
		}
	}
	return "project"
}

// writePreamble writes everything that precedes the first entry.
func (g *Generator) writePreamble() {
	w := &g.listfile
	fmt.Fprintf(w, "cmake_minimum_required(VERSION %s)\n", g.minimumVersion())
	fmt.Fprintf(w, "project(%s LANGUAGES C CXX)\n", g.project)

	fmt.Fprintf(w, "\nset(CMAKE_CXX_STANDARD %s)\n", g.standard)
	w.WriteString("set(CMAKE_CXX_STANDARD_REQUIRED ON)\n")
	fmt.Fprintf(w, "set(CMAKE_CXX_EXTENSIONS %s)\n", onOff(g.extensions))

	if g.qtEnabled {
		w.WriteString("\nset(CMAKE_AUTOMOC ON)\n")
		w.WriteString("set(CMAKE_AUTOUIC ON)\n")
		w.WriteString("set(CMAKE_AUTORCC ON)\n")
		w.WriteString("set(CMAKE_INCLUDE_CURRENT_DIR ON)\n")
	}

	var packages, variables []string
	if g.qtEnabled && g.packages.hasQt() {
		packages = append(packages, fmt.Sprintf("find_package(Qt%s COMPONENTS %s REQUIRED)", g.opts.QtVersion, strings.Join(g.packages.qtComponents(), " ")))
	}
	if g.packages.openGL {
		packages = append(packages, "find_package(OpenGL REQUIRED)")
	}
	if g.packages.threads {
		packages = append(packages, "find_package(Threads REQUIRED)")
	}
	if g.qtEnabled {
		variables = append(variables, fmt.Sprintf("set(QT_MAJOR_VERSION %s)", g.opts.QtVersion))
		var modules []string
		for _, c := range g.packages.qtComponents() {
			modules = append(modules, qmakeModuleName(c))
		}
		if len(modules) > 0 {
			variables = append(variables, fmt.Sprintf("set(QMAKE_QT %s)", strings.Join(modules, " ")))
		}
	}
	if g.config.Len() > 0 {
		variables = append(variables, fmt.Sprintf("set(QMAKE_CONFIG %s)", strings.Join(quoteAll(g.config.Values()), " ")))
	}
	for _, section := range [][]string{packages, variables} {
		if len(section) > 0 {
			fmt.Fprintf(w, "\n%s\n", strings.Join(section, "\n"))
		}
	}
	if g.testing {
		w.WriteString("\nenable_testing()\n")
	}

	w.WriteString("\nfunction(set_target_output_subdir target kind dir)\n")
	w.WriteString("    set_target_properties(${target} PROPERTIES ${kind} ${dir})\n")
	w.WriteString("endfunction()\n\n")
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
