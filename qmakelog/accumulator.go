package qmakelog

import "github.com/willibrandon/gomigrator/model"

// buildType is the winning debug/release selection.
type buildType int

const (
	buildNone buildType = iota
	buildDebug
	buildRelease
)

func (b buildType) String() string {
	switch b {
	case buildDebug:
		return "debug"
	case buildRelease:
		return "release"
	default:
		return "none"
	}
}

// flagBundle holds flags that only apply under one build type.
type flagBundle struct {
	compile *model.OrderedSet[string]
	link    *model.OrderedSet[string]
}

// accumulator is the per-project state of one extraction run.
type accumulator struct {
	target   string
	template string
	cxx      string
	cc       string
	version  string

	testcase  bool
	staticlib bool
	strictCxx bool
	qtProject bool
	automoc   bool
	autouic   bool
	autorcc   bool

	buildType buildType
	bundles   map[buildType]*flagBundle

	// tracked holds every path that already has a File entry.
	tracked *model.OrderedSet[string]

	sources    *model.OrderedSet[string]
	headers    *model.OrderedSet[string]
	forms      *model.OrderedSet[string]
	resources  *model.OrderedSet[string]
	distfiles  *model.OrderedSet[string]
	mocHeaders *model.OrderedSet[string]

	includes   *model.OrderedSet[string]
	dependPath *model.OrderedSet[string]
	libs       *model.OrderedSet[string]
	defines    *model.OrderedSet[string]
	flags      *model.OrderedSet[string]
	cxxFlags   *model.OrderedSet[string]
	cFlags     *model.OrderedSet[string]
	linkFlags  *model.OrderedSet[string]
	standards  *model.OrderedSet[string]
	qtModules  *model.OrderedSet[string]
	config     *model.OrderedSet[string]
	subdirs    *model.OrderedSet[string]

	mocDir  string
	uiDir   string
	rccDir  string
	destDir string

	precompiledHeader string

	compilers     *records[compilerRecord]
	targets       *records[targetRecord]
	postTargets   *records[targetRecord]
	commands      map[string]string
	preTargetDeps *model.OrderedSet[string]
}

func newAccumulator() *accumulator {
	set := model.NewOrderedSet[string]
	return &accumulator{
		template: "app",
		cxx:      "g++",
		cc:       "gcc",
		bundles: map[buildType]*flagBundle{
			buildDebug:   {compile: set("-g"), link: set()},
			buildRelease: {compile: set("-O2", "-fPIC", "-Wall", "-Wextra"), link: set("-Wl,-O1")},
		},
		tracked:       set(),
		sources:       set(),
		headers:       set(),
		forms:         set(),
		resources:     set(),
		distfiles:     set(),
		mocHeaders:    set(),
		includes:      set(),
		dependPath:    set(),
		libs:          set(),
		defines:       set(),
		flags:         set(),
		cxxFlags:      set(),
		cFlags:        set(),
		linkFlags:     set(),
		standards:     set(),
		qtModules:     set(),
		config:        set(),
		subdirs:       set(),
		mocDir:        defaultMocDir,
		uiDir:         defaultUIDir,
		rccDir:        defaultRCCDir,
		destDir:       BuildOutputDir,
		compilers:     newRecords[compilerRecord](),
		targets:       newRecords[targetRecord](),
		postTargets:   newRecords[targetRecord](),
		commands:      make(map[string]string),
		preTargetDeps: set(),
	}
}

// compilerRecord is a QMAKE_EXTRA_COMPILERS entry filled across lines.
type compilerRecord struct {
	inputs   []string
	output   string
	variable string
	target   string
	depends  []string
}

// targetRecord is a QMAKE_EXTRA_TARGETS entry filled across lines.
type targetRecord struct {
	target  string
	depends []string
}

// records keeps named partial records in declaration order.
type records[T any] struct {
	names []string
	items map[string]*T
}

func newRecords[T any]() *records[T] {
	return &records[T]{items: make(map[string]*T)}
}

// get returns the record for name, creating an empty one.
func (r *records[T]) get(name string) *T {
	if rec, ok := r.items[name]; ok {
		return rec
	}
	rec := new(T)
	r.names = append(r.names, name)
	r.items[name] = rec
	return rec
}

func (r *records[T]) has(name string) bool {
	_, ok := r.items[name]
	return ok
}

func (r *records[T]) lookup(name string) (*T, bool) {
	rec, ok := r.items[name]
	return rec, ok
}
