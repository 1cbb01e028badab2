package counter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "roomcast.counter"

// tracedCounter 链路追踪计数器装饰器
type tracedCounter struct {
	Counter
	tracer trace.Tracer
}

// NewTracing 为计数器增加链路追踪
func NewTracing(c Counter) Counter {
	return &tracedCounter{
		Counter: c,
		tracer:  otel.Tracer(tracerName),
	}
}

// wrapOperation 包装操作，自动处理 Span
func (t *tracedCounter) wrapOperation(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := t.tracer.Start(ctx, operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	span.SetAttributes(attribute.Int64("counter.duration_ms", time.Since(start).Milliseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (t *tracedCounter) Incr(ctx context.Context) (uint64, error) {
	var n uint64
	err := t.wrapOperation(ctx, "counter.Incr", func(ctx context.Context) error {
		var err error
		n, err = t.Counter.Incr(ctx)
		if err == nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("counter.value", int64(n)))
		}
		return err
	})
	return n, err
}

func (t *tracedCounter) Load(ctx context.Context) (uint64, error) {
	var n uint64
	err := t.wrapOperation(ctx, "counter.Load", func(ctx context.Context) error {
		var err error
		n, err = t.Counter.Load(ctx)
		return err
	})
	return n, err
}

func (t *tracedCounter) Reset(ctx context.Context) error {
	return t.wrapOperation(ctx, "counter.Reset", t.Counter.Reset)
}
