package qmakelog

import (
	"slices"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
)

// qtModuleLibs maps the QT allow-list to the library name suffix of libQt5<Name>.so.
var qtModuleLibs = map[string]string{
	"core":         "Core",
	"gui":          "Gui",
	"widgets":      "Widgets",
	"network":      "Network",
	"sql":          "Sql",
	"testlib":      "Test",
	"xml":          "Xml",
	"concurrent":   "Concurrent",
	"printsupport": "PrintSupport",
	"opengl":       "OpenGL",
	"svg":          "Svg",
	"dbus":         "DBus",
}

// standardSelectors maps CONFIG language selectors to a standard year.
var standardSelectors = map[string]int{
	"c++11": 11,
	"c++14": 14,
	"c++1y": 14,
	"c++17": 17,
	"c++1z": 17,
	"c++20": 20,
	"c++2a": 20,
	"c++23": 23,
	"c++2b": 23,
}

// standardSpellings is the -std= suffix qmake's mkspecs use per year.
var standardSpellings = map[int]string{
	11: "11",
	14: "1y",
	17: "1z",
	20: "20",
	23: "2b",
}

// applyConfig runs the CONFIG decision table over one resolved CONFIG value list.
func (e *Extractor) applyConfig(values []string) {
	acc := e.acc
	acc.config.Add(values...)

	has := func(v string) bool { return slices.Contains(values, v) }

	if has("gcc") {
		acc.cxx = "g++"
		acc.cc = "gcc"
	}
	for _, v := range values {
		if year, ok := standardSelectors[v]; ok {
			acc.standards.Add(standardSpellings[year])
		}
	}
	if has("strict_c++") {
		acc.strictCxx = true
	}
	// The later of debug and release on one line wins, as across lines.
	for _, v := range slices.Backward(values) {
		if v == "debug" {
			acc.buildType = buildDebug
			e.logger.Debug("Activated debug mode via CONFIG")
			break
		}
		if v == "release" {
			acc.buildType = buildRelease
			e.logger.Debug("Activated release mode via CONFIG")
			break
		}
	}
	if has("qt") {
		acc.qtProject = true
		acc.flags.Add("-D_REENTRANT")
		if acc.qtModules.Len() == 0 {
			e.addQtModule("core")
			e.addQtModule("gui")
			acc.libs.Add("GL", "pthread")
		}
	}
	if has("automoc") {
		acc.automoc = true
	}
	if has("autouic") {
		acc.autouic = true
	}
	if has("autorcc") {
		acc.autorcc = true
	}
	if has("warn_on") {
		acc.flags.Add("-Wall", "-Wextra")
	}
	if has("staticlib") || has("static") {
		acc.staticlib = true
	}
	if has("testcase") {
		acc.testcase = true
	}
	e.logger.Debug("Processed CONFIG: {Values}", values)
}

// applyQt handles the QT module list. Unknown modules are reported and skipped.
func (e *Extractor) applyQt(values []string) {
	for _, v := range values {
		name := strings.TrimSpace(strings.TrimPrefix(v, "+="))
		if name == "" {
			continue
		}
		if _, ok := qtModuleLibs[name]; !ok {
			e.diags.Warn(diagnostic.CodeInvalidValue, name, "skipping invalid Qt module")
			continue
		}
		e.addQtModule(name)
	}
	if e.acc.qtModules.Len() > 0 {
		e.acc.qtProject = true
		e.acc.libs.Add("GL", "pthread")
	}
}

func (e *Extractor) addQtModule(name string) {
	if !e.acc.qtModules.Add(name) {
		return
	}
	e.acc.libs.Add(e.qtLibDir + "/libQt5" + qtModuleLibs[name] + ".so")
	e.acc.defines.Add("-DQT_" + strings.ToUpper(name) + "_LIB")
	e.logger.Debug("Added Qt module {Module}", name)
}

// standardFlag returns the -std= flag for the highest requested selector.
func (a *accumulator) standardFlag() string {
	best, bestSpelling := 0, ""
	for _, spelling := range a.standards.Values() {
		for year, s := range standardSpellings {
			if s == spelling && year > best {
				best, bestSpelling = year, s
			}
		}
	}
	if bestSpelling == "" {
		return ""
	}
	if a.strictCxx {
		return "-std=c++" + bestSpelling
	}
	return "-std=gnu++" + bestSpelling
}
