package qmakelog

import "regexp"

// declKind is a recognized trace declaration.
type declKind int

const (
	declSources declKind = iota
	declHeaders
	declForms
	declResources
	declDistFiles
	declIncludePath
	declDependPath
	declLibs
	declTarget
	declTemplate
	declCXX
	declCC
	declCXXFlags
	declCFlags
	declCXXFlagsRelease
	declCXXFlagsDebug
	declDefines
	declLFlags
	declConfig
	declTestcase
	declQt
	declMocDir
	declUIDir
	declRCCDir
	declDestDir
	declSubdirs
	declBuildTypeBlock
	declPlatformBlock
	declPrecompiledHeader
	declVersion
	declExtraCompilers
	declCompilerInput
	declCompilerOutput
	declCompilerVariable
	declExtraTargets
	declTargetTarget
	declTargetDepends
	declCommands
	declPreTargetDeps
	declPostTargetDeps
)

var declNames = [...]string{
	declSources:           "SOURCES",
	declHeaders:           "HEADERS",
	declForms:             "FORMS",
	declResources:         "RESOURCES",
	declDistFiles:         "DISTFILES",
	declIncludePath:       "INCLUDEPATH",
	declDependPath:        "DEPENDPATH",
	declLibs:              "LIBS",
	declTarget:            "TARGET",
	declTemplate:          "TEMPLATE",
	declCXX:               "QMAKE_CXX",
	declCC:                "QMAKE_CC",
	declCXXFlags:          "QMAKE_CXXFLAGS",
	declCFlags:            "QMAKE_CFLAGS",
	declCXXFlagsRelease:   "QMAKE_CXXFLAGS_RELEASE",
	declCXXFlagsDebug:     "QMAKE_CXXFLAGS_DEBUG",
	declDefines:           "DEFINES",
	declLFlags:            "QMAKE_LFLAGS",
	declConfig:            "CONFIG",
	declTestcase:          "CONFIG+=testcase",
	declQt:                "QT",
	declMocDir:            "MOC_DIR",
	declUIDir:             "UI_DIR",
	declRCCDir:            "RCC_DIR",
	declDestDir:           "DESTDIR",
	declSubdirs:           "SUBDIRS",
	declBuildTypeBlock:    "CONFIG(build type)",
	declPlatformBlock:     "platform block",
	declPrecompiledHeader: "PRECOMPILED_HEADER",
	declVersion:           "VERSION",
	declExtraCompilers:    "QMAKE_EXTRA_COMPILERS",
	declCompilerInput:     "<compiler>.input",
	declCompilerOutput:    "<compiler>.output",
	declCompilerVariable:  "<compiler>.variable",
	declExtraTargets:      "QMAKE_EXTRA_TARGETS",
	declTargetTarget:      "<target>.target",
	declTargetDepends:     "<target>.depends",
	declCommands:          "<name>.commands",
	declPreTargetDeps:     "PRE_TARGETDEPS",
	declPostTargetDeps:    "QMAKE_POST_TARGETDEPS",
}

func (k declKind) String() string {
	if int(k) < len(declNames) {
		return declNames[k]
	}
	return "unknown"
}

// Trace lines look like "DEBUG 1: /abs/path/app.pro:12: SOURCES := main.cpp".
// Some declarations are only honored in the project file itself, others
// also when a feature file (.prf) sets them.
const (
	proPrefix    = `DEBUG 1: .+?\.pro:\d+: `
	proPrfPrefix = `DEBUG 1: .+?\.(?:pro|prf):\d+: `
)

type declPattern struct {
	kind declKind
	re   *regexp.Regexp
}

func proAssign(name string) *regexp.Regexp {
	return regexp.MustCompile(proPrefix + name + ` := (.+)`)
}

func prfAssign(name string) *regexp.Regexp {
	return regexp.MustCompile(proPrfPrefix + name + ` := (.+)`)
}

// declPatterns is tested in order; the first match decides the line.
// Block forms and dotted sub-fields come before plain assignments.
var declPatterns = []declPattern{
	{declBuildTypeBlock, regexp.MustCompile(proPrfPrefix + `CONFIG\((debug|release), debug\|release\)\s*\{(.+?)\}`)},
	{declPlatformBlock, regexp.MustCompile(proPrfPrefix + `(win32|unix|macx)\s*\{(.+?)\}`)},
	{declTestcase, regexp.MustCompile(proPrfPrefix + `CONFIG\s*\+=\s*testcase`)},

	{declExtraCompilers, regexp.MustCompile(proPrefix + `QMAKE_EXTRA_COMPILERS\s*:=\s*(.+)`)},
	{declExtraTargets, regexp.MustCompile(proPrefix + `QMAKE_EXTRA_TARGETS\s*:=\s*(.+)`)},
	{declPreTargetDeps, regexp.MustCompile(proPrefix + `PRE_TARGETDEPS\s*:=\s*(.+)`)},
	{declPostTargetDeps, regexp.MustCompile(proPrefix + `QMAKE_POST_TARGETDEPS\s*:=\s*(.+)`)},
	{declCompilerInput, regexp.MustCompile(proPrefix + `(\w+)\.input\s*:=\s*(.+)`)},
	{declCompilerOutput, regexp.MustCompile(proPrefix + `(\w+)\.output\s*:=\s*(.+)`)},
	{declCompilerVariable, regexp.MustCompile(proPrefix + `(\w+)\.variable\s*:=\s*(.+)`)},
	{declTargetTarget, regexp.MustCompile(proPrefix + `(\w+)\.target\s*:=\s*(.+)`)},
	{declTargetDepends, regexp.MustCompile(proPrefix + `(\w+)\.depends\s*:=\s*(.+)`)},
	{declCommands, regexp.MustCompile(proPrefix + `(\w+)\.commands\s*:=\s*(.+)`)},

	{declSources, proAssign("SOURCES")},
	{declHeaders, proAssign("HEADERS")},
	{declForms, proAssign("FORMS")},
	{declResources, proAssign("RESOURCES")},
	{declDistFiles, prfAssign("DISTFILES")},
	{declIncludePath, prfAssign("INCLUDEPATH")},
	{declDependPath, prfAssign("DEPENDPATH")},
	{declLibs, prfAssign("LIBS")},
	{declTarget, proAssign("TARGET")},
	{declTemplate, proAssign("TEMPLATE")},
	{declCXX, prfAssign("QMAKE_CXX")},
	{declCC, prfAssign("QMAKE_CC")},
	{declCXXFlagsRelease, prfAssign("QMAKE_CXXFLAGS_RELEASE")},
	{declCXXFlagsDebug, prfAssign("QMAKE_CXXFLAGS_DEBUG")},
	{declCXXFlags, prfAssign("QMAKE_CXXFLAGS")},
	{declCFlags, prfAssign("QMAKE_CFLAGS")},
	{declDefines, prfAssign("DEFINES")},
	{declLFlags, prfAssign("QMAKE_LFLAGS")},
	{declConfig, prfAssign("CONFIG")},
	{declQt, prfAssign("QT")},
	{declMocDir, proAssign("MOC_DIR")},
	{declUIDir, proAssign("UI_DIR")},
	{declRCCDir, proAssign("RCC_DIR")},
	{declDestDir, proAssign("DESTDIR")},
	{declSubdirs, proAssign("SUBDIRS")},
	{declPrecompiledHeader, prfAssign("PRECOMPILED_HEADER")},
	{declVersion, prfAssign("VERSION")},
}

var (
	// projectFileRe captures the absolute project file a trace line comes from.
	projectFileRe = regexp.MustCompile(`DEBUG 1: (/.+?\.pro):\d+:`)

	// genericAssignRe captures any other resolved assignment. Such lines are
	// not consumed, but their values are remembered so that a custom
	// compiler's .input can name a variable.
	genericAssignRe = regexp.MustCompile(proPrfPrefix + `(\w+) := (.*)`)

	// blockAssignRe finds the assignments inside a single-line block body.
	blockAssignRe = regexp.MustCompile(`\b(LIBS|DEFINES|QMAKE_CXXFLAGS|QMAKE_CFLAGS|QMAKE_LFLAGS|INCLUDEPATH)\s*[+*]?=\s*`)
)
