package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `project_name: demo
cmake_minimum_version: "3.20"
qt_version: "6"
qt_components: [Widgets, Network]
cxx_standard: "20"
cxx_extensions: true
absolute_paths: true
qt_include_dirs:
  - /opt/qt6/include
recover_conditions: false
log_level: debug
tracing:
  exporter: stdout
  sampling_rate: 0.25
`

const hclConfig = `
project_name          = "demo"
cmake_minimum_version = "3.20"
qt_version            = "6"
qt_components         = ["Widgets", "Network"]
cxx_standard          = "20"
cxx_extensions        = true
absolute_paths        = true
qt_include_dirs       = ["/opt/qt6/include"]
recover_conditions    = false
log_level             = "debug"

tracing {
  exporter      = "stdout"
  sampling_rate = 0.25
}
`

func assertDemo(t *testing.T, cfg *Config) {
	t.Helper()
	assert.Equal(t, "demo", cfg.ProjectName)
	assert.Equal(t, "3.20", cfg.CMakeMinimumVersion)
	assert.Equal(t, "6", cfg.QtVersion)
	assert.Equal(t, []string{"Widgets", "Network"}, cfg.QtComponents)
	assert.Equal(t, "20", cfg.CXXStandard)
	assert.True(t, cfg.CXXExtensions)
	assert.True(t, cfg.AbsolutePaths)
	assert.Equal(t, []string{"/opt/qt6/include"}, cfg.QtIncludeDirs)
	assert.False(t, cfg.ShouldRecoverConditions())
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NotNil(t, cfg.Tracing)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.InDelta(t, 0.25, cfg.Tracing.SamplingRate, 1e-9)
}

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML(strings.NewReader(yamlConfig))
	require.NoError(t, err)
	assertDemo(t, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestParseHCL(t *testing.T) {
	cfg, err := ParseHCL("gomigrator.hcl", []byte(hclConfig))
	require.NoError(t, err)
	assertDemo(t, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestParseYAML_EmptyUsesDefaults(t *testing.T) {
	cfg, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, cfg.ShouldRecoverConditions())
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.InDelta(t, 1.0, cfg.Tracing.SamplingRate, 1e-9)
}

func TestParseYAML_UnknownKey(t *testing.T) {
	_, err := ParseYAML(strings.NewReader("qt_verison: \"5\"\n"))
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestParseHCL_Errors(t *testing.T) {
	_, err := ParseHCL("bad.hcl", []byte("project_name = \n"))
	assert.ErrorContains(t, err, "failed to parse HCL file bad.hcl")

	_, err = ParseHCL("unknown.hcl", []byte("qt_verison = \"5\"\n"))
	assert.ErrorContains(t, err, "failed to decode HCL file unknown.hcl")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"qt version", Config{QtVersion: "7"}, "qt_version must be one of 5, 6"},
		{"cxx standard", Config{CXXStandard: "03"}, "cxx_standard must be one of"},
		{"cmake version", Config{CMakeMinimumVersion: "three"}, "cmake_minimum_version"},
		{"log level", Config{LogLevel: "chatty"}, "log_level \"chatty\""},
		{"exporter", Config{Tracing: &TracingConfig{Exporter: "jaeger"}}, "tracing.exporter"},
		{"sampling", Config{Tracing: &TracingConfig{Exporter: "none", SamplingRate: 1.5}}, "tracing.sampling_rate"},
		{"otlp endpoint", Config{Tracing: &TracingConfig{Exporter: "otlp", SamplingRate: 1}}, "tracing.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.cfg.Validate(), tt.wantErr)
		})
	}

	assert.NoError(t, NewDefaultConfig().Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	cfg, err := Load(write("gomigrator.yaml", yamlConfig))
	require.NoError(t, err)
	assertDemo(t, cfg)

	cfg, err = Load(write("gomigrator.hcl", hclConfig))
	require.NoError(t, err)
	assertDemo(t, cfg)

	_, err = Load(write("gomigrator.toml", ""))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(write("invalid.yaml", "qt_version: \"4\"\n"))
	assert.ErrorContains(t, err, "invalid config")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.True(t, cfg.ShouldRecoverConditions())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "gomigrator.hcl"), []byte(`project_name = "found"`), 0o644))
	cfg, used, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "gomigrator.hcl", filepath.Base(used))
	assert.Equal(t, "found", cfg.ProjectName)

	// yaml is preferred over hcl in the same directory
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gomigrator.yaml"), []byte("project_name: hidden\n"), 0o644))
	cfg, _, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "hidden", cfg.ProjectName)
}

func TestTracerConfig(t *testing.T) {
	cfg, err := ParseYAML(strings.NewReader(yamlConfig))
	require.NoError(t, err)

	tc := cfg.TracerConfig("1.2.3")
	assert.Equal(t, "gomigrator", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "stdout", tc.ExporterType)
	assert.InDelta(t, 0.25, tc.SamplingRate, 1e-9)
}

func TestMarshal(t *testing.T) {
	cfg, err := ParseHCL("gomigrator.hcl", []byte(hclConfig))
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)

	again, err := ParseYAML(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
