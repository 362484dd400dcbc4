// Package model defines the Build Object Model: the ordered, tool-agnostic
// description of what a project builds.
//
// Paths inside the model are rooted at one of two placeholders,
// @source_dir@ or @build_dir@, until the generator resolves them.
// Entries are appended and never mutated afterwards; order matters because
// the generator resolves dependencies against entries seen earlier.
package model

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// EntryType discriminates Build Object Model entries.
type EntryType string

// Entry variants
const (
	TypeFile          EntryType = "file"
	TypeDirectory     EntryType = "directory"
	TypeModule        EntryType = "module"
	TypeCustomCommand EntryType = "custom_command"
	TypeCustomTarget  EntryType = "custom_target"
	TypeSubproject    EntryType = "subproject"
	TypeConditions    EntryType = "conditions"
	TypeInclude       EntryType = "include"
)

// ModuleType is the kind of build target.
type ModuleType string

// Module types
const (
	Executable     ModuleType = "executable"
	SharedLibrary  ModuleType = "shared_library"
	StaticLibrary  ModuleType = "static_library"
	TestExecutable ModuleType = "test_executable"
	Subdirs        ModuleType = "subdirs"
)

// Entry is one element of the Build Object Model.
// The set of implementations is closed to this package.
type Entry interface {
	Type() EntryType
	isEntry()
}

// File is a tracked project file whose content is copied to Output.
type File struct {
	Output string `json:"output"`
	// Extension is ".ui" or ".qrc" for UI-toolchain inputs, empty otherwise.
	Extension string `json:"extension,omitempty"`
	Content   []byte `json:"-"`
}

// Directory is a directory that must exist in the build tree.
type Directory struct {
	Output string `json:"output"`
}

// Source is one translation unit of a Module with its own flags.
type Source struct {
	Path         string   `json:"path"`
	CompileFlags []string `json:"compile_flags"`
	IncludeDirs  []string `json:"include_dirs"`
	Language     string   `json:"language,omitempty"`
	Dependencies []string `json:"dependencies"`
}

// Module is a compiled and linked build target.
type Module struct {
	Name                 string     `json:"name"`
	ModuleType           ModuleType `json:"module_type"`
	Output               string     `json:"output"`
	Version              string     `json:"version,omitempty"`
	CompatibilityVersion string     `json:"compatibility_version,omitempty"`
	Sources              []Source   `json:"sources"`
	Dependencies         []string   `json:"dependencies"`
	Libs                 []string   `json:"libs"`
	LinkFlags            []string   `json:"link_flags"`
	CompileFlags         []string   `json:"compile_flags"`
	IncludeDirs          []string   `json:"include_dirs"`
	// Config holds the CONFIG values observed while extracting the module.
	Config []string `json:"config,omitempty"`
	CXX    string   `json:"cxx,omitempty"`
	CC     string   `json:"cc,omitempty"`
}

// CustomCommand produces a single output file by running Command.
type CustomCommand struct {
	ID           string   `json:"id"`
	Output       string   `json:"output"`
	Command      string   `json:"command"`
	Dependencies []string `json:"dependencies"`
}

// CustomTarget is a named target that always runs Commands.
type CustomTarget struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Commands     []string `json:"commands"`
	Dependencies []string `json:"dependencies"`
}

// Subproject points at a child project file.
type Subproject struct {
	Output       string     `json:"output"`
	ModuleType   ModuleType `json:"module_type"`
	Dependencies []string   `json:"dependencies"`
}

// Conditions attaches a recovered condition tree to a target.
type Conditions struct {
	Target string `json:"target"`
	// Source is the project file the tree was parsed from.
	Source string           `json:"source"`
	Nodes  []*ConditionNode `json:"conditions"`
}

// Include records a project file included by another.
type Include struct {
	Path string `json:"path"`
}

func (*File) Type() EntryType          { return TypeFile }
func (*Directory) Type() EntryType     { return TypeDirectory }
func (*Module) Type() EntryType        { return TypeModule }
func (*CustomCommand) Type() EntryType { return TypeCustomCommand }
func (*CustomTarget) Type() EntryType  { return TypeCustomTarget }
func (*Subproject) Type() EntryType    { return TypeSubproject }
func (*Conditions) Type() EntryType    { return TypeConditions }
func (*Include) Type() EntryType       { return TypeInclude }

func (*File) isEntry()          {}
func (*Directory) isEntry()     {}
func (*Module) isEntry()        {}
func (*CustomCommand) isEntry() {}
func (*CustomTarget) isEntry()  {}
func (*Subproject) isEntry()    {}
func (*Conditions) isEntry()    {}
func (*Include) isEntry()       {}

// ConditionNode is one parsed conditional block.
// A node whose only predicate is "else" is the fallback arm of the
// sibling that precedes it.
type ConditionNode struct {
	Predicates []string         `json:"condition"`
	Variables  *Vars            `json:"variables"`
	Children   []*ConditionNode `json:"conditions"`
}

// NewConditionNode creates a node with empty variables and no children.
func NewConditionNode(predicates ...string) *ConditionNode {
	return &ConditionNode{
		Predicates: predicates,
		Variables:  NewVars(),
		Children:   []*ConditionNode{},
	}
}

// IsElse reports whether the node is a fallback arm.
func (n *ConditionNode) IsElse() bool {
	return len(n.Predicates) == 1 && n.Predicates[0] == "else"
}

// Depth returns the number of nested levels, counting n itself.
func (n *ConditionNode) Depth() int {
	deepest := 0
	for _, child := range n.Children {
		deepest = max(deepest, child.Depth())
	}
	return deepest + 1
}

// Model is the ordered sequence of entries.
type Model struct {
	entries     []Entry
	directories map[string]struct{}
}

// New creates an empty model.
func New() *Model {
	return &Model{directories: make(map[string]struct{})}
}

// Append adds entries to the end of the model.
func (m *Model) Append(entries ...Entry) {
	if m.directories == nil {
		m.directories = make(map[string]struct{})
	}
	for _, e := range entries {
		if d, ok := e.(*Directory); ok {
			m.directories[d.Output] = struct{}{}
		}
		m.entries = append(m.entries, e)
	}
}

// EnsureDirectory appends a Directory entry unless one with the same output exists.
// It reports whether an entry was added.
func (m *Model) EnsureDirectory(output string) bool {
	if m.HasDirectory(output) {
		return false
	}
	m.Append(&Directory{Output: output})
	return true
}

// HasDirectory reports whether a Directory entry for output exists.
func (m *Model) HasDirectory(output string) bool {
	_, ok := m.directories[output]
	return ok
}

// Entries returns the entries in model order.
func (m *Model) Entries() []Entry {
	return slices.Clone(m.entries)
}

// Len returns the number of entries.
func (m *Model) Len() int {
	return len(m.entries)
}

// Modules returns every Module entry in model order.
func (m *Model) Modules() []*Module {
	var out []*Module
	for _, e := range m.entries {
		if mod, ok := e.(*Module); ok {
			out = append(out, mod)
		}
	}
	return out
}

// Files returns every File entry in model order.
func (m *Model) Files() []*File {
	var out []*File
	for _, e := range m.entries {
		if f, ok := e.(*File); ok {
			out = append(out, f)
		}
	}
	return out
}

// CountByType tallies entries per variant.
func (m *Model) CountByType() map[EntryType]int {
	counts := make(map[EntryType]int)
	for _, e := range m.entries {
		counts[e.Type()]++
	}
	return counts
}

// NewID derives a stable identifier for a custom command or target, so two
// runs over the same trace produce identical output.
func NewID(kind EntryType, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("gomigrator:%s:%s", kind, name))).String()
}

// MarshalJSON writes the entries as an array of objects tagged with "type".
func (m *Model) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(m.entries))
	for _, e := range m.entries {
		raw, err := marshalEntry(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s entry: %w", e.Type(), err)
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

func marshalEntry(e Entry) ([]byte, error) {
	switch v := e.(type) {
	case *File:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*File
			Content string `json:"content"`
		}{e.Type(), v, string(v.Content)})
	case *Directory:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*Directory
		}{e.Type(), v})
	case *Module:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*Module
		}{e.Type(), v})
	case *CustomCommand:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*CustomCommand
		}{e.Type(), v})
	case *CustomTarget:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*CustomTarget
		}{e.Type(), v})
	case *Subproject:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*Subproject
		}{e.Type(), v})
	case *Conditions:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*Conditions
		}{e.Type(), v})
	case *Include:
		return json.Marshal(struct {
			Type EntryType `json:"type"`
			*Include
		}{e.Type(), v})
	default:
		return nil, fmt.Errorf("unknown entry type %T", e)
	}
}
