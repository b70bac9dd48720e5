// Package telemetry records pipeline events and stage latencies. Recording
// is fire-and-forget; a telemetry failure never affects a request.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Recorder receives pipeline observations.
type Recorder interface {
	RecordEvent(name string, attrs map[string]string)
	RecordLatency(stage string, ms int64)
}

// OtelRecorder emits observations as short-lived spans on the service
// tracer, so they show up alongside request traces in the collector.
type OtelRecorder struct {
	tracer trace.Tracer
}

func NewOtelRecorder(serviceName string) *OtelRecorder {
	return &OtelRecorder{
		tracer: otel.Tracer(serviceName),
	}
}

func (r *OtelRecorder) RecordEvent(name string, attrs map[string]string) {
	_, span := r.tracer.Start(context.Background(), name)
	for k, v := range attrs {
		span.SetAttributes(attribute.String(k, v))
	}
	span.End()
}

func (r *OtelRecorder) RecordLatency(stage string, ms int64) {
	_, span := r.tracer.Start(context.Background(), fmt.Sprintf("stage.%s", stage))
	span.SetAttributes(attribute.Int64("latency_ms", ms))
	span.End()
}

// Noop discards everything. Used in tests and when tracing is disabled.
type Noop struct{}

func (Noop) RecordEvent(name string, attrs map[string]string) {}
func (Noop) RecordLatency(stage string, ms int64)             {}

// Timed measures one stage and records it on completion.
func Timed(r Recorder, stage string, fn func()) {
	start := time.Now()
	fn()
	r.RecordLatency(stage, time.Since(start).Milliseconds())
}
