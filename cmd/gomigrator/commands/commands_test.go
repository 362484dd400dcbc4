package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/cli"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
)

type harness struct {
	dir     string
	src     string
	out     string
	trace   string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	console *output.Console
}

// newHarness isolates the working directory and home so no real config
// file is picked up, and lays out a one-target project with its trace.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	t.Chdir(h.dir)
	t.Setenv("HOME", t.TempDir())

	h.src = filepath.Join(h.dir, "src")
	h.out = filepath.Join(h.dir, "out")
	h.trace = filepath.Join(h.dir, "qmake.log")
	require.NoError(t, os.MkdirAll(h.src, 0o755))
	h.write(t, filepath.Join(h.src, "main.cpp"), "int main() { return 0; }\n")
	h.write(t, filepath.Join(h.src, "app.pro"), "TARGET = app\nSOURCES += main.cpp\nunix:DEFINES += ON_UNIX\n")

	pro := filepath.ToSlash(filepath.Join(h.src, "app.pro"))
	h.write(t, h.trace, "DEBUG 1: "+pro+":1: TARGET := app\nDEBUG 1: "+pro+":2: SOURCES := main.cpp\n")

	h.console = output.NewConsole(&h.stdout, &h.stderr, output.VerbosityNormal)
	return h
}

func (h *harness) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func (h *harness) run(args ...string) error {
	root := &cobra.Command{
		Use:           "gomigrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.ApplyGlobalFlags(cmd, h.console)
		},
	}
	cli.AddGlobalFlags(root)
	root.AddCommand(
		NewMigrateCommand(h.console),
		NewExtractCommand(h.console),
		NewParseCommand(h.console),
		NewConfigCommand(h.console),
		NewVersionCommand(h.console),
		NewCompletionCommand(),
	)
	root.SetOut(&h.stdout)
	root.SetErr(&h.stderr)
	root.SetArgs(args)
	return root.Execute()
}

func (h *harness) listfile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.out, "CMakeLists.txt"))
	require.NoError(t, err)
	return string(data)
}

func TestMigrate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("migrate", h.trace, "-s", h.src, "-o", h.out))

	got := h.listfile(t)
	assert.Contains(t, got, "project(app LANGUAGES C CXX)\n")
	assert.Contains(t, got, "add_executable(app\n    ${CMAKE_CURRENT_SOURCE_DIR}/src/main.cpp\n)\n")
	assert.Contains(t, got, "if(UNIX)\n    target_compile_definitions(app PRIVATE\n        ON_UNIX\n    )\nendif()\n")
	assert.FileExists(t, filepath.Join(h.out, "src", "main.cpp"))
	assert.Contains(t, h.stdout.String(), "Migrated 4 entries into "+h.out)
}

func TestMigrate_NoConditionsAndQuiet(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("migrate", h.trace, "-s", h.src, "-o", h.out, "--no-conditions", "--verbosity", "quiet"))

	assert.NotContains(t, h.listfile(t), "if(UNIX)")
	assert.Empty(t, h.stdout.String())
}

func TestMigrate_ConfigFile(t *testing.T) {
	h := newHarness(t)
	h.write(t, filepath.Join(h.dir, "gomigrator.yaml"), strings.Join([]string{
		"project_name: configured",
		"absolute_paths: true",
		"recover_conditions: false",
		"cxx_standard: \"20\"",
		"",
	}, "\n"))

	require.NoError(t, h.run("migrate", h.trace, "-s", h.src, "-o", h.out))
	got := h.listfile(t)
	assert.Contains(t, got, "project(configured LANGUAGES C CXX)\n")
	assert.Contains(t, got, "set(CMAKE_CXX_STANDARD 20)\n")
	assert.Contains(t, got, "    "+filepath.ToSlash(filepath.Join(h.out, "src", "main.cpp"))+"\n")
	assert.NotContains(t, got, "if(UNIX)")
}

func TestMigrate_FlagsOverrideConfig(t *testing.T) {
	h := newHarness(t)
	cfgPath := filepath.Join(h.dir, "custom.hcl")
	h.write(t, cfgPath, "project_name = \"configured\"\nrecover_conditions = false\n")

	require.NoError(t, h.run("migrate", h.trace, "--config", cfgPath, "-s", h.src, "-o", h.out,
		"--project-name", "flagged", "--no-conditions=false"))
	got := h.listfile(t)
	assert.Contains(t, got, "project(flagged LANGUAGES C CXX)\n")
	assert.Contains(t, got, "if(UNIX)\n")
}

func TestMigrate_Errors(t *testing.T) {
	h := newHarness(t)

	err := h.run("migrate", h.trace, "-s", h.src)
	assert.ErrorContains(t, err, `required flag(s) "out" not set`)

	err = h.run("migrate", filepath.Join(h.dir, "missing.log"), "-s", h.src, "-o", h.out)
	assert.ErrorContains(t, err, "failed to open trace")

	h.write(t, filepath.Join(h.dir, "bad.yaml"), "qt_version: \"4\"\n")
	err = h.run("migrate", h.trace, "--config", filepath.Join(h.dir, "bad.yaml"), "-s", h.src, "-o", h.out)
	assert.ErrorContains(t, err, "qt_version")
}

func TestExtract(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("extract", h.trace, "-s", h.src))

	var got struct {
		SchemaVersion string           `json:"schemaVersion"`
		ProjectFiles  []string         `json:"projectFiles"`
		Entries       []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, output.CurrentSchemaVersion, got.SchemaVersion)
	assert.Equal(t, []string{filepath.ToSlash(filepath.Join(h.src, "app.pro"))}, got.ProjectFiles)

	var types []string
	for _, e := range got.Entries {
		types = append(types, e["type"].(string))
	}
	assert.Equal(t, []string{"file", "directory", "module"}, types)
	assert.Equal(t, "app", got.Entries[2]["name"])
}

func TestExtract_OutputFile(t *testing.T) {
	h := newHarness(t)
	dest := filepath.Join(h.dir, "model.json")
	require.NoError(t, h.run("extract", h.trace, "-s", h.src, "--output", dest))

	assert.Empty(t, h.stdout.String())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	h.stdout.Reset()
	require.NoError(t, h.run("extract", h.trace, "-s", h.src, "--output", dest, "--verbosity", "detailed"))
	assert.Equal(t, "Wrote "+dest+"\n", h.stdout.String())
}

func TestParse(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("parse", filepath.Join(h.src, "app.pro")))

	var got struct {
		Variables  map[string][]string `json:"variables"`
		Conditions []struct {
			Condition []string `json:"condition"`
		} `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, []string{"app"}, got.Variables["target"])
	require.Len(t, got.Conditions, 1)
	assert.Equal(t, []string{"unix"}, got.Conditions[0].Condition)

	err := h.run("parse", filepath.Join(h.src, "missing.pro"))
	assert.ErrorContains(t, err, "project file not found")
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("config"))
	assert.Contains(t, h.stdout.String(), "# no config file found, showing defaults\n")
	assert.Contains(t, h.stdout.String(), "recover_conditions: true\n")

	h.stdout.Reset()
	h.write(t, filepath.Join(h.dir, "gomigrator.hcl"), "qt_version = \"6\"\n")
	require.NoError(t, h.run("config"))
	assert.Contains(t, h.stdout.String(), "gomigrator.hcl\n")
	assert.Contains(t, h.stdout.String(), "qt_version: \"6\"\n")
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("version"))
	assert.Contains(t, h.stdout.String(), "gomigrator version "+cli.Version)
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.run("completion", shell))
			assert.Contains(t, h.stdout.String(), "gomigrator")
		})
	}

	h := newHarness(t)
	assert.Error(t, h.run("completion", "tcsh"))
}
