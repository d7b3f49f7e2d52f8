package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/quill/internal/adapters/telemetry"
	"go.trai.ch/quill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer("test", sdktrace.WithSpanProcessor(recorder))

	ctx, parent := tracer.Start(context.Background(), "compile")
	parent.SetAttribute("main", "main.qd")
	parent.SetAttribute("generation", uint64(3))
	parent.SetAttribute("iterations", 2)
	parent.SetAttribute("converged", true)

	_, child := tracer.Start(ctx, "layout")
	child.RecordError(errors.New("boom"))
	child.End()
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	layout, compile := ended[0], ended[1]
	assert.Equal(t, "layout", layout.Name())
	assert.Equal(t, compile.SpanContext().SpanID(), layout.Parent().SpanID())
	assert.Equal(t, codes.Error, layout.Status().Code)
	assert.Equal(t, "boom", layout.Status().Description)

	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("main", "main.qd"),
		attribute.Int64("generation", 3),
		attribute.Int("iterations", 2),
		attribute.Bool("converged", true),
	}, compile.Attributes())

	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestBridge_LogsWhenEnabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	bridge := telemetry.NewBridge(log)
	tracer := telemetry.NewOTelTracer("test", sdktrace.WithSpanProcessor(bridge))

	// Disabled by default.
	_, span := tracer.Start(context.Background(), "quiet")
	span.End()

	bridge.SetEnabled(true)
	var logged string
	log.EXPECT().Info(gomock.Any()).Do(func(msg string) { logged = msg })

	_, span = tracer.Start(context.Background(), "eval")
	span.SetAttribute("pages", 4)
	span.RecordError(errors.New("cancelled"))
	span.End()

	assert.Regexp(t, `^trace eval \S+ pages=4 error="cancelled"$`, logged)
}

func TestNoOpTracer(t *testing.T) {
	var tracer telemetry.NoOpTracer
	ctx := context.Background()
	got, span := tracer.Start(ctx, "anything")
	assert.Equal(t, ctx, got)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()
	assert.NoError(t, tracer.Shutdown(ctx))
}
