package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet("b", "a")
	assert.True(t, s.Add("c"))
	assert.False(t, s.Add("a"), "duplicates are not added")
	assert.True(t, s.Add("a", "d"))

	assert.Equal(t, []string{"b", "a", "c", "d"}, s.Values())
	assert.Equal(t, []string{"a", "b", "c", "d"}, Sorted(s))
	assert.True(t, s.Contains("c"))
	assert.Equal(t, 4, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("a"))
}

func TestOrderedSet_ZeroValue(t *testing.T) {
	var s OrderedSet[int]
	s.Add(3, 1, 3)
	assert.Equal(t, []int{3, 1}, s.Values())
}

func TestVars_AppendSuppressesDuplicates(t *testing.T) {
	v := NewVars()
	v.Append("libs", []string{"-lX11", "-lGL"})
	v.Append("libs", []string{"-lGL", "-lm"})
	v.Set("target", []string{"app"})

	libs, ok := v.Get("libs")
	require.True(t, ok)
	assert.Equal(t, []string{"-lX11", "-lGL", "-lm"}, libs)
	assert.Equal(t, []string{"libs", "target"}, v.Keys())

	first, ok := v.First("target")
	require.True(t, ok)
	assert.Equal(t, "app", first)

	v.Set("libs", []string{"-lz"})
	libs, _ = v.Get("libs")
	assert.Equal(t, []string{"-lz"}, libs)
	assert.Equal(t, []string{"libs", "target"}, v.Keys(), "replacing keeps key order")
}

func TestVars_MarshalJSONKeepsOrder(t *testing.T) {
	v := NewVars()
	v.Set("z", []string{"1"})
	v.Set("a", nil)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":["1"],"a":[]}`, string(data))
}

func TestConditionNode(t *testing.T) {
	root := NewConditionNode("unix")
	child := NewConditionNode("debug")
	child.Children = append(child.Children, NewConditionNode("gcc"))
	root.Children = append(root.Children, child)

	assert.Equal(t, 3, root.Depth())
	assert.False(t, root.IsElse())
	assert.True(t, NewConditionNode("else").IsElse())
	assert.False(t, NewConditionNode("else", "unix").IsElse())
}

func TestModel_AppendAndQuery(t *testing.T) {
	m := New()
	m.Append(
		&File{Output: "@source_dir@/main.cpp", Content: []byte("int main(){}")},
		&Module{Name: "app", ModuleType: Executable},
	)
	assert.True(t, m.EnsureDirectory("@build_dir@/_build"))
	assert.False(t, m.EnsureDirectory("@build_dir@/_build"), "directory entries are idempotent")

	assert.Equal(t, 3, m.Len())
	require.Len(t, m.Modules(), 1)
	assert.Equal(t, "app", m.Modules()[0].Name)
	require.Len(t, m.Files(), 1)

	counts := m.CountByType()
	assert.Equal(t, 1, counts[TypeFile])
	assert.Equal(t, 1, counts[TypeDirectory])
	assert.Equal(t, 1, counts[TypeModule])
}

func TestModel_EntriesIsACopy(t *testing.T) {
	m := New()
	m.Append(&Include{Path: "@source_dir@/common.pri"})

	entries := m.Entries()
	entries[0] = &Include{Path: "changed"}

	assert.Equal(t, "@source_dir@/common.pri", m.Entries()[0].(*Include).Path)
}

func TestNewID_Deterministic(t *testing.T) {
	a := NewID(TypeCustomCommand, "protoc")
	b := NewID(TypeCustomCommand, "protoc")
	c := NewID(TypeCustomTarget, "protoc")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestModel_MarshalJSON(t *testing.T) {
	node := NewConditionNode("win32")
	node.Variables.Append("libs", []string{"-luser32"})

	m := New()
	m.Append(
		&File{Output: "@source_dir@/form.ui", Extension: ".ui", Content: []byte("<ui/>")},
		&Directory{Output: "@build_dir@/_build"},
		&CustomTarget{ID: "id", Name: "docs", Commands: []string{"doxygen"}, Dependencies: []string{}},
		&Conditions{Target: "app", Source: "@source_dir@/app.pro", Nodes: []*ConditionNode{node}},
	)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 4)

	want := []map[string]any{
		{"type": "file", "output": "@source_dir@/form.ui", "extension": ".ui", "content": "<ui/>"},
		{"type": "directory", "output": "@build_dir@/_build"},
		{"type": "custom_target", "id": "id", "name": "docs", "commands": []any{"doxygen"}, "dependencies": []any{}},
		{
			"type":   "conditions",
			"target": "app",
			"source": "@source_dir@/app.pro",
			"conditions": []any{
				map[string]any{
					"condition":  []any{"win32"},
					"variables":  map[string]any{"libs": []any{"-luser32"}},
					"conditions": []any{},
				},
			},
		},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("model JSON mismatch (-want +got):\n%s", diff)
	}
}
