// Package config loads gomigrator settings from a YAML or HCL file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/version"
)

// Config holds the settings a config file may carry. Every field can also
// be set on the command line, which takes precedence.
type Config struct {
	ProjectName         string   `yaml:"project_name,omitempty" hcl:"project_name,optional"`
	CMakeMinimumVersion string   `yaml:"cmake_minimum_version,omitempty" hcl:"cmake_minimum_version,optional"`
	QtVersion           string   `yaml:"qt_version,omitempty" hcl:"qt_version,optional"`
	QtComponents        []string `yaml:"qt_components,omitempty" hcl:"qt_components,optional"`
	CXXStandard         string   `yaml:"cxx_standard,omitempty" hcl:"cxx_standard,optional"`
	CXXExtensions       bool     `yaml:"cxx_extensions,omitempty" hcl:"cxx_extensions,optional"`
	SourceSubdir        string   `yaml:"source_subdir,omitempty" hcl:"source_subdir,optional"`
	AbsolutePaths       bool     `yaml:"absolute_paths,omitempty" hcl:"absolute_paths,optional"`
	QtLibDir            string   `yaml:"qt_lib_dir,omitempty" hcl:"qt_lib_dir,optional"`
	QtIncludeDirs       []string `yaml:"qt_include_dirs,omitempty" hcl:"qt_include_dirs,optional"`
	// RecoverConditions defaults to true when unset.
	RecoverConditions *bool          `yaml:"recover_conditions,omitempty" hcl:"recover_conditions,optional"`
	LogLevel          string         `yaml:"log_level,omitempty" hcl:"log_level,optional"`
	Tracing           *TracingConfig `yaml:"tracing,omitempty" hcl:"tracing,block"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter     string  `yaml:"exporter,omitempty" hcl:"exporter,optional"`
	Endpoint     string  `yaml:"endpoint,omitempty" hcl:"endpoint,optional"`
	SamplingRate float64 `yaml:"sampling_rate" hcl:"sampling_rate,optional"`
}

var (
	validQtVersions   = []string{"5", "6"}
	validCXXStandards = []string{"98", "11", "14", "17", "20", "23"}
	validExporters    = []string{"none", "stdout", "otlp"}
	validLogLevels    = []string{"verbose", "trace", "debug", "info", "warn", "warning", "error", "fatal"}
)

// Load reads path, choosing the format by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		cfg, err = ParseHCL(path, data)
	case ".yaml", ".yml":
		cfg, err = ParseYAML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml or .hcl)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseYAML decodes a YAML config. Unknown keys are rejected.
func ParseYAML(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg.withDefaults(), nil
}

// ParseHCL decodes an HCL config. name is used in error messages.
func ParseHCL(name string, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
	}

	cfg := &Config{}
	if diags := gohcl.DecodeBody(file.Body, nil, cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
	}
	return cfg.withDefaults(), nil
}

// withDefaults fills settings left unset by the file.
func (c *Config) withDefaults() *Config {
	if c.RecoverConditions == nil {
		on := true
		c.RecoverConditions = &on
	}
	if c.Tracing == nil {
		c.Tracing = &TracingConfig{}
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
	return c
}

// Validate rejects values the generator cannot honor.
func (c *Config) Validate() error {
	var errs []error
	if c.QtVersion != "" && !slices.Contains(validQtVersions, c.QtVersion) {
		errs = append(errs, fmt.Errorf("qt_version must be one of %s, got %q", strings.Join(validQtVersions, ", "), c.QtVersion))
	}
	if c.CXXStandard != "" && !slices.Contains(validCXXStandards, c.CXXStandard) {
		errs = append(errs, fmt.Errorf("cxx_standard must be one of %s, got %q", strings.Join(validCXXStandards, ", "), c.CXXStandard))
	}
	if c.CMakeMinimumVersion != "" {
		if _, err := version.Parse(c.CMakeMinimumVersion); err != nil {
			errs = append(errs, fmt.Errorf("cmake_minimum_version: %w", err))
		}
	}
	if c.LogLevel != "" && !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}
	if t := c.Tracing; t != nil {
		if t.Exporter != "" && !slices.Contains(validExporters, t.Exporter) {
			errs = append(errs, fmt.Errorf("tracing.exporter must be one of %s, got %q", strings.Join(validExporters, ", "), t.Exporter))
		}
		if t.SamplingRate < 0 || t.SamplingRate > 1 {
			errs = append(errs, fmt.Errorf("tracing.sampling_rate must be within [0,1], got %g", t.SamplingRate))
		}
		if t.Exporter == "otlp" && t.Endpoint == "" {
			errs = append(errs, errors.New("tracing.endpoint is required for the otlp exporter"))
		}
	}
	return errors.Join(errs...)
}

// ShouldRecoverConditions reports the effective recover_conditions value.
func (c *Config) ShouldRecoverConditions() bool {
	return c.RecoverConditions == nil || *c.RecoverConditions
}

// TracerConfig converts the tracing section for observability.SetupTracing.
func (c *Config) TracerConfig(serviceVersion string) observability.TracerConfig {
	tc := observability.DefaultTracerConfig()
	if serviceVersion != "" {
		tc.ServiceVersion = serviceVersion
	}
	if c.Tracing != nil {
		tc.ExporterType = c.Tracing.Exporter
		tc.OTLPEndpoint = c.Tracing.Endpoint
		tc.SamplingRate = c.Tracing.SamplingRate
	}
	return tc
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
