package diagnostic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gomigrator/observability"
)

func TestDiagnostic_FormatPlain(t *testing.T) {
	d := Diagnostic{
		Code:     CodeMissingResource,
		Severity: SeverityWarning,
		Message:  "cannot read file",
		Path:     "@source_dir@/main.h",
	}
	assert.Equal(t, "@source_dir@/main.h : warning QM1002: cannot read file", d.Format(false))
	assert.Equal(t, d.Format(false), d.Error())
}

func TestDiagnostic_FormatWithLine(t *testing.T) {
	d := Diagnostic{Code: CodeUnbalancedBrace, Severity: SeverityWarning, Message: "unexpected '}'", Path: "app.pro", Line: 7}
	assert.Equal(t, "app.pro(7) : warning QM2004: unexpected '}'", d.Format(false))
}

func TestDiagnostic_FormatNoPath(t *testing.T) {
	d := Diagnostic{Code: CodeMissingTarget, Severity: SeverityWarning, Message: "TARGET not specified"}
	assert.Equal(t, "warning QM1003: TARGET not specified", d.Format(false))
}

func TestDiagnostic_FormatColorized(t *testing.T) {
	d := Diagnostic{Code: CodeInvalidEntry, Severity: SeverityError, Message: "bad", Path: "x"}
	out := d.Format(true)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "QM2002")
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
}

func TestCollector_RecordsAndCounts(t *testing.T) {
	c := NewCollector(nil)

	before, err := observability.GetCounterValue(observability.DiagnosticsTotal, string(CodeLibraryNotFound), "warning")
	require.NoError(t, err)

	c.Warn(CodeLibraryNotFound, "/opt/libfoo.a", "library %s not found", "libfoo.a")
	c.Info(CodeUnrecognizedLine, "", "skipped")
	c.Error(CodeInvalidEntry, "sub/sub.pro", "wrong type")
	c.Warn(CodeLibraryNotFound, "/opt/libbar.a", "library not found")

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 2, c.Count(CodeLibraryNotFound))
	assert.Len(t, c.Warnings(), 3)

	items := c.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "library libfoo.a not found", items[0].Message)
	assert.Equal(t, SeverityInfo, items[1].Severity)

	after, err := observability.GetCounterValue(observability.DiagnosticsTotal, string(CodeLibraryNotFound), "warning")
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}

func TestCollector_LogsThroughLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewCollector(observability.NewLogger(buf, observability.InfoLevel))

	c.Warn(CodeMissingSources, "app", "no sources")
	c.Info(CodeUnrecognizedLine, "", "quiet")

	out := buf.String()
	assert.True(t, strings.Contains(out, "no sources"), out)
	assert.False(t, strings.Contains(out, "quiet"), "info diagnostics log at verbose level")
}
