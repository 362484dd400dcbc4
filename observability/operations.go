package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the tracer name for migration operations
	TracerName = "github.com/willibrandon/gomigrator"
)

// Common attribute keys
const (
	AttrTracePath   = attribute.Key("migrate.trace.path")
	AttrProjectPath = attribute.Key("migrate.project.path")
	AttrOutputDir   = attribute.Key("migrate.output.dir")
	AttrOperation   = attribute.Key("migrate.operation")
	AttrEntryCount  = attribute.Key("migrate.entry.count")
	AttrLineCount   = attribute.Key("migrate.line.count")
	AttrSkipped     = attribute.Key("migrate.line.skipped")
	AttrDiagnostics = attribute.Key("migrate.diagnostic.count")
)

// StartExtractSpan starts a span for trace extraction
func StartExtractSpan(ctx context.Context, tracePath string) (context.Context, trace.Span) {
	return startSpan(ctx, "migrate.extract",
		trace.WithAttributes(
			AttrTracePath.String(tracePath),
			AttrOperation.String("extract"),
		),
	)
}

// StartParseSpan starts a span for parsing one project file
func StartParseSpan(ctx context.Context, projectPath string) (context.Context, trace.Span) {
	return startSpan(ctx, "migrate.parse",
		trace.WithAttributes(
			AttrProjectPath.String(projectPath),
			AttrOperation.String("parse"),
		),
	)
}

// StartGenerateSpan starts a span for listfile generation
func StartGenerateSpan(ctx context.Context, outDir string, entryCount int) (context.Context, trace.Span) {
	return startSpan(ctx, "migrate.generate",
		trace.WithAttributes(
			AttrOutputDir.String(outDir),
			AttrEntryCount.Int(entryCount),
			AttrOperation.String("generate"),
		),
	)
}

// RecordPhaseResult records counts on the current span
func RecordPhaseResult(ctx context.Context, entries, diagnostics int) {
	trace.SpanFromContext(ctx).SetAttributes(
		AttrEntryCount.Int(entries),
		AttrDiagnostics.Int(diagnostics),
	)
}

// RecordTraceLines records how many distinct trace lines were seen and skipped
func RecordTraceLines(ctx context.Context, consumed, skipped int) {
	trace.SpanFromContext(ctx).SetAttributes(
		AttrLineCount.Int(consumed+skipped),
		AttrSkipped.Int(skipped),
	)
}

// EndSpanWithError ends a span, recording err when it is non-nil
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
