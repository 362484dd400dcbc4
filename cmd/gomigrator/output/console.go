package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Verbosity levels
type Verbosity int

const (
	// VerbosityQuiet shows errors only
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows errors, warnings and the run summary (default)
	VerbosityNormal
	// VerbosityDetailed adds informational diagnostics and written files
	VerbosityDetailed
	// VerbosityDiagnostic adds debug messages
	VerbosityDiagnostic
)

// ParseVerbosity maps a --verbosity value to a level. Unknown values are normal.
func ParseVerbosity(s string) Verbosity {
	switch strings.ToLower(s) {
	case "q", "quiet":
		return VerbosityQuiet
	case "d", "detailed":
		return VerbosityDetailed
	case "diag", "diagnostic":
		return VerbosityDiagnostic
	default:
		return VerbosityNormal
	}
}

// String returns the canonical flag spelling of v.
func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityDetailed:
		return "detailed"
	case VerbosityDiagnostic:
		return "diagnostic"
	default:
		return "normal"
	}
}

// Console writes user-facing messages filtered by verbosity. Errors go to
// the error writer, everything else to the output writer.
type Console struct {
	mu        sync.Mutex
	out, err  io.Writer
	verbosity Verbosity
	colors    bool
}

// NewConsole creates a console. Colors are on only when out is a color
// capable terminal.
func NewConsole(out, err io.Writer, verbosity Verbosity) *Console {
	c := &Console{out: out, err: err, verbosity: verbosity}
	c.SetColors(IsColorEnabled(out))
	return c
}

// DefaultConsole writes to stdout and stderr at normal verbosity.
func DefaultConsole() *Console {
	return NewConsole(os.Stdout, os.Stderr, VerbosityNormal)
}

func (c *Console) SetVerbosity(v Verbosity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbosity = v
}

func (c *Console) GetVerbosity() Verbosity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verbosity
}

// SetColors toggles color output for this console and for fatih/color.
func (c *Console) SetColors(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colors = enabled
	if enabled {
		EnableColors()
	} else {
		DisableColors()
	}
}

func (c *Console) Colors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colors
}

// Output returns the writer for regular output.
func (c *Console) Output() io.Writer { return c.out }

// ErrOutput returns the writer for errors and log events.
func (c *Console) ErrOutput() io.Writer { return c.err }

func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

// line writes prefix+format as one line to w when the console verbosity is
// at least min. clr is used only when colors are on.
func (c *Console) line(min Verbosity, w io.Writer, clr *color.Color, prefix, format string, a []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verbosity < min {
		return
	}
	msg := prefix + fmt.Sprintf(format, a...) + "\n"
	if c.colors && clr != nil {
		clr.Fprint(w, msg)
		return
	}
	fmt.Fprint(w, msg)
}

// Success writes a green completion line.
func (c *Console) Success(format string, a ...any) {
	c.line(VerbosityNormal, c.out, ColorSuccess, "", format, a)
}

// Error writes to the error writer at every verbosity.
func (c *Console) Error(format string, a ...any) {
	c.line(VerbosityQuiet, c.err, ColorError, "Error: ", format, a)
}

func (c *Console) Warning(format string, a ...any) {
	c.line(VerbosityNormal, c.out, ColorWarning, "Warning: ", format, a)
}

// Detail is shown from detailed verbosity up.
func (c *Console) Detail(format string, a ...any) {
	c.line(VerbosityDetailed, c.out, nil, "", format, a)
}

func (c *Console) Debug(format string, a ...any) {
	c.line(VerbosityDiagnostic, c.out, ColorDebug, "[DEBUG] ", format, a)
}
