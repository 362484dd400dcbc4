package observability

import (
	"fmt"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TraceLinesTotal counts trace lines by outcome
	TraceLinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomigrator_trace_lines_total",
			Help: "Total number of trace lines processed by outcome",
		},
		[]string{"result"}, // consumed, duplicate, skipped
	)

	// ModelEntriesTotal counts build object model entries by variant
	ModelEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomigrator_model_entries_total",
			Help: "Total number of build object model entries appended by type",
		},
		[]string{"type"},
	)

	// DiagnosticsTotal counts diagnostics by code and severity
	DiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomigrator_diagnostics_total",
			Help: "Total number of diagnostics recorded by code",
		},
		[]string{"code", "severity"},
	)

	// ConditionFramesTotal counts condition frames closed by the grammar parser
	ConditionFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomigrator_condition_frames_total",
			Help: "Total number of condition frames closed by the project parser",
		},
		[]string{"kind"}, // block, inline, else, forced
	)

	// FilesWrittenTotal counts files materialized by the generator
	FilesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomigrator_files_written_total",
			Help: "Total number of files written by the generator",
		},
		[]string{"kind"}, // listfile, fragment, source, directory
	)

	// FileReadsTotal counts collaborator file reads by cache outcome
	FileReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gomigrator_file_reads_total",
			Help: "Total number of project file reads by cache outcome",
		},
		[]string{"result"}, // hit, miss, unavailable
	)

	// PhaseDuration tracks the duration of each migration phase in seconds
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gomigrator_phase_duration_seconds",
			Help:    "Migration phase duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
		},
		[]string{"phase"}, // extract, parse, generate
	)
)

// WriteMetricsFile dumps the default registry in the text exposition format.
func WriteMetricsFile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// GetCounterValue retrieves the current value of a counter metric with the given labels
// This is primarily intended for testing
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	// Write metric to a DTO to read its value
	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}

	return 0, nil
}
