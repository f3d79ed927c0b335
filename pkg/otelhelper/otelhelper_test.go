package otelhelper_test

import (
	"errors"
	"testing"

	"github.com/dukex/cadence/pkg/otelhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEnd_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := otelhelper.StartSpan(t.Context(), tracer, "services.update_sequence",
		attribute.String(otelhelper.SequenceIDKey, "seq-1"))
	otelhelper.End(span, errors.New("boom"))

	_, quiet := otelhelper.StartSpan(t.Context(), tracer, "services.fetch_sequences")
	otelhelper.End(quiet, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Contains(t, spans[0].Attributes(), attribute.String(otelhelper.SequenceIDKey, "seq-1"))

	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}
