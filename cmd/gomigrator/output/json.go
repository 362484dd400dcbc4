package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/qmakepro"
)

// CurrentSchemaVersion is the schema version for all JSON outputs
const CurrentSchemaVersion = "1.0.0"

// ExtractOutput represents the JSON output for the extract command
type ExtractOutput struct {
	SchemaVersion string                  `json:"schemaVersion"`
	Trace         string                  `json:"trace"`
	ProjectFiles  []string                `json:"projectFiles"`
	Entries       *model.Model            `json:"entries"`
	Diagnostics   []diagnostic.Diagnostic `json:"diagnostics"`
	ElapsedMs     int64                   `json:"elapsedMs"`
}

// ParseOutput represents the JSON output for the parse command
type ParseOutput struct {
	SchemaVersion string `json:"schemaVersion"`
	*qmakepro.Result
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	ElapsedMs   int64                   `json:"elapsedMs"`
}

// NewExtractOutput creates an ExtractOutput with schema version and elapsed time
func NewExtractOutput(trace string, mdl *model.Model, projectFiles []string, diags []diagnostic.Diagnostic, start time.Time) *ExtractOutput {
	if projectFiles == nil {
		projectFiles = []string{}
	}
	if diags == nil {
		diags = []diagnostic.Diagnostic{}
	}
	return &ExtractOutput{
		SchemaVersion: CurrentSchemaVersion,
		Trace:         trace,
		ProjectFiles:  projectFiles,
		Entries:       mdl,
		Diagnostics:   diags,
		ElapsedMs:     MeasureElapsed(start),
	}
}

// NewParseOutput creates a ParseOutput with schema version and elapsed time
func NewParseOutput(res *qmakepro.Result, diags []diagnostic.Diagnostic, start time.Time) *ParseOutput {
	if diags == nil {
		diags = []diagnostic.Diagnostic{}
	}
	return &ParseOutput{
		SchemaVersion: CurrentSchemaVersion,
		Result:        res,
		Diagnostics:   diags,
		ElapsedMs:     MeasureElapsed(start),
	}
}

// WriteJSON writes v as indented JSON to w
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// MeasureElapsed returns elapsed time in milliseconds since start
func MeasureElapsed(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
