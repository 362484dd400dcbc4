package observability

import (
	"context"
	"errors"
	"testing"
)

func setupTestTracing(t *testing.T) context.Context {
	t.Helper()
	ctx := context.Background()
	tp, err := SetupTracing(ctx, DefaultTracerConfig())
	if err != nil {
		t.Fatalf("SetupTracing() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := ShutdownTracing(ctx, tp); err != nil {
			t.Errorf("ShutdownTracing() failed: %v", err)
		}
	})
	return ctx
}

func TestStartExtractSpan(t *testing.T) {
	ctx := setupTestTracing(t)

	ctx, span := StartExtractSpan(ctx, "/tmp/qmake.log")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Error("Span context should be valid")
	}
	RecordPhaseResult(ctx, 12, 1)
}

func TestStartParseSpan(t *testing.T) {
	ctx := setupTestTracing(t)

	_, span := StartParseSpan(ctx, "/src/app/app.pro")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Error("Span context should be valid")
	}
}

func TestStartGenerateSpan_NestedUnderExtract(t *testing.T) {
	ctx := setupTestTracing(t)

	ctx, parent := StartExtractSpan(ctx, "/tmp/qmake.log")
	defer parent.End()

	_, child := StartGenerateSpan(ctx, "/out", 5)
	defer child.End()

	if child.SpanContext().TraceID() != parent.SpanContext().TraceID() {
		t.Error("generate span should share the extract span's trace")
	}
}

func TestEndSpanWithError(t *testing.T) {
	ctx := setupTestTracing(t)

	_, ok := StartParseSpan(ctx, "a.pro")
	EndSpanWithError(ok, nil)

	_, failed := StartParseSpan(ctx, "b.pro")
	EndSpanWithError(failed, errors.New("unreadable"))
}
