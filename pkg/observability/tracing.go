package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer provides X-Ray tracing around payment operations and downstream
// calls. Segments are annotated with the ambient correlation id so traces
// can be joined against log records.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a tracer instance
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

// StartSegment starts a new trace segment
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if !t.enabled {
		return ctx, nil
	}
	ctx, seg := xray.BeginSegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
	t.annotate(ctx, seg)
	return ctx, seg
}

// Trace wraps a function with a subsegment, recording any error it returns
func (t *Tracer) Trace(ctx context.Context, name string, fn func(context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSubsegment(ctx, name)
	defer seg.Close(nil)

	t.annotate(ctx, seg)

	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}
	return err
}

// Close finishes a segment, tolerating nil segments from disabled tracers
func (t *Tracer) Close(seg *xray.Segment, err error) {
	if seg != nil {
		seg.Close(err)
	}
}

func (t *Tracer) annotate(ctx context.Context, seg *xray.Segment) {
	if seg == nil {
		return
	}
	if id, ok := CorrelationID(ctx); ok {
		seg.AddAnnotation("correlationId", id)
	}
	if id, ok := RequestID(ctx); ok {
		seg.AddAnnotation("requestId", id)
	}
}
