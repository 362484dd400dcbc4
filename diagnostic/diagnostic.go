// Package diagnostic records non-fatal problems found while migrating a project.
//
// Nothing in the migration pipeline aborts on malformed input. Unmatched
// lines, unreadable files, incomplete declarations and unresolved
// references are reported here and the offending contribution is omitted.
package diagnostic

import (
	"fmt"
	"sync"

	"github.com/fatih/color"

	"github.com/willibrandon/gomigrator/observability"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityInfo is used for expected noise, such as trace lines nobody handles.
	SeverityInfo Severity = iota
	// SeverityWarning is used for contributions that were dropped.
	SeverityWarning
	// SeverityError is used for entries that could not be rendered at all.
	SeverityError
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityError:
		return "error"
	default:
		return "warning"
	}
}

// Code identifies a diagnostic kind.
type Code string

// Extraction diagnostics (QM1xxx)
const (
	// QM1001: Project file line matched no recognized shape
	CodeUnrecognizedLine Code = "QM1001"

	// QM1002: Referenced file could not be read
	CodeMissingResource Code = "QM1002"

	// QM1003: Module skipped because TARGET was never declared
	CodeMissingTarget Code = "QM1003"

	// QM1004: Module skipped because no sources were declared
	CodeMissingSources Code = "QM1004"

	// QM1005: Invalid FORMS, RESOURCES or QT value
	CodeInvalidValue Code = "QM1005"

	// QM1006: Library path in LIBS does not exist
	CodeLibraryNotFound Code = "QM1006"
)

// Generation diagnostics (QM2xxx)
const (
	// QM2001: Dependency reference matched no earlier entry
	CodeUnresolvedDependency Code = "QM2001"

	// QM2002: Entry is structurally invalid for its variant
	CodeInvalidEntry Code = "QM2002"

	// QM2003: Condition variable has no translation
	CodeUnsupportedVariable Code = "QM2003"

	// QM2004: Closing brace without an open block
	CodeUnbalancedBrace Code = "QM2004"
)

// Diagnostic is a single non-fatal finding.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// Error implements the error interface so diagnostics can be wrapped.
func (d Diagnostic) Error() string {
	return d.Format(false)
}

// Format renders the diagnostic in the "path : warning CODE: message" layout.
// When colorize is true the severity and code are highlighted.
func (d Diagnostic) Format(colorize bool) string {
	location := d.Path
	if location != "" && d.Line > 0 {
		location = fmt.Sprintf("%s(%d)", d.Path, d.Line)
	}

	label := fmt.Sprintf("%s %s", d.Severity, d.Code)
	if colorize {
		c := color.New(color.FgYellow, color.Bold)
		switch d.Severity {
		case SeverityError:
			c = color.New(color.FgRed, color.Bold)
		case SeverityInfo:
			c = color.New(color.FgCyan)
		}
		c.EnableColor()
		label = c.Sprint(label)
	}

	if location == "" {
		return fmt.Sprintf("%s: %s", label, d.Message)
	}
	return fmt.Sprintf("%s : %s: %s", location, label, d.Message)
}

// Collector accumulates diagnostics for one migration run.
type Collector struct {
	logger observability.Logger

	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector creates a collector that mirrors every diagnostic to logger.
func NewCollector(logger observability.Logger) *Collector {
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	return &Collector{logger: logger}
}

// Add records d, logs it and counts it.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()

	observability.DiagnosticsTotal.WithLabelValues(string(d.Code), d.Severity.String()).Inc()

	switch d.Severity {
	case SeverityInfo:
		c.logger.Verbose("{Code} {Path}: {Message}", d.Code, d.Path, d.Message)
	case SeverityError:
		c.logger.Error("{Code} {Path}: {Message}", d.Code, d.Path, d.Message)
	default:
		c.logger.Warn("{Code} {Path}: {Message}", d.Code, d.Path, d.Message)
	}
}

// Warn records a warning-level diagnostic with a formatted message.
func (c *Collector) Warn(code Code, path string, format string, args ...any) {
	c.Add(Diagnostic{Code: code, Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Info records an info-level diagnostic with a formatted message.
func (c *Collector) Info(code Code, path string, format string, args ...any) {
	c.Add(Diagnostic{Code: code, Severity: SeverityInfo, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Error records an error-level diagnostic with a formatted message.
func (c *Collector) Error(code Code, path string, format string, args ...any) {
	c.Add(Diagnostic{Code: code, Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Items returns a copy of the recorded diagnostics in report order.
func (c *Collector) Items() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count returns how many diagnostics carry code.
func (c *Collector) Count(code Code) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, d := range c.items {
		if d.Code == code {
			n++
		}
	}
	return n
}

// Warnings returns the diagnostics at warning severity or above.
func (c *Collector) Warnings() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Diagnostic
	for _, d := range c.items {
		if d.Severity >= SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
