package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ww1air/frontlines/internal/pkg/telemetry"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := telemetry.InitTracer(context.Background(), telemetry.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFail(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)

	_, span := telemetry.Tracer().Start(context.Background(), "build")
	telemetry.Fail(span, errors.New("boom"))
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != "boom" {
		t.Errorf("unexpected status %+v", spans[0].Status())
	}
	if len(spans[0].Events()) != 1 {
		t.Errorf("expected the error event, got %d events", len(spans[0].Events()))
	}
}
