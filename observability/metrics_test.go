package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCounterValue(t *testing.T) {
	before, err := GetCounterValue(TraceLinesTotal, "consumed")
	require.NoError(t, err)

	TraceLinesTotal.WithLabelValues("consumed").Inc()
	TraceLinesTotal.WithLabelValues("consumed").Inc()

	after, err := GetCounterValue(TraceLinesTotal, "consumed")
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}

func TestGetCounterValue_WrongLabelCount(t *testing.T) {
	_, err := GetCounterValue(DiagnosticsTotal, "QM1002")
	assert.Error(t, err)
}

func TestWriteMetricsFile(t *testing.T) {
	ModelEntriesTotal.WithLabelValues("module").Inc()
	FilesWrittenTotal.WithLabelValues("listfile").Inc()
	PhaseDuration.WithLabelValues("extract").Observe(0.01)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, WriteMetricsFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	for _, metric := range []string{
		"gomigrator_model_entries_total",
		"gomigrator_files_written_total",
		"gomigrator_phase_duration_seconds",
	} {
		assert.True(t, strings.Contains(body, metric), "metrics output missing %s", metric)
	}
}

func TestWriteMetricsFile_BadPath(t *testing.T) {
	err := WriteMetricsFile(filepath.Join(t.TempDir(), "missing", "dir", "metrics.prom"))
	assert.Error(t, err)
}
