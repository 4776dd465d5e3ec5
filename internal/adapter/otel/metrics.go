package otel

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "planforge"

// Metrics holds all PlanForge metric instruments.
type Metrics struct {
	ChatTurns       metric.Int64Counter
	ChatFailures    metric.Int64Counter
	Extractions     metric.Int64Counter
	ExtractFailures metric.Int64Counter
	ExtractedItems  metric.Int64Counter
	Reorders        metric.Int64Counter
	LLMCalls        metric.Int64Counter
	LLMFailures     metric.Int64Counter
	LLMDuration     metric.Float64Histogram
	ExtractDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments on mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	m.ChatTurns = counter("planforge.chat.turns", "Number of completed chat turns")
	m.ChatFailures = counter("planforge.chat.failures", "Number of failed chat turns")
	m.Extractions = counter("planforge.extractions", "Number of completed plan extractions")
	m.ExtractFailures = counter("planforge.extraction.failures", "Number of failed plan extractions")
	m.ExtractedItems = counter("planforge.extraction.items", "Epics, stories and tasks written by extraction")
	m.Reorders = counter("planforge.reorders", "Number of applied reorders")
	m.LLMCalls = counter("planforge.llm.calls", "Number of model invocations")
	m.LLMFailures = counter("planforge.llm.failures", "Number of failed model invocations")
	m.LLMDuration = histogram("planforge.llm.duration_seconds", "Model invocation latency in seconds")
	m.ExtractDuration = histogram("planforge.extraction.duration_seconds", "Plan extraction latency in seconds")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordLLMCall records one model invocation.
func (m *Metrics) RecordLLMCall(ctx context.Context, model string, started time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("llm.model", model))
	m.LLMCalls.Add(ctx, 1, attrs)
	m.LLMDuration.Record(ctx, time.Since(started).Seconds(), attrs)
	if err != nil {
		m.LLMFailures.Add(ctx, 1, attrs)
	}
}

// RecordChat records the outcome of a chat turn.
func (m *Metrics) RecordChat(ctx context.Context, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ChatFailures.Add(ctx, 1)
		return
	}
	m.ChatTurns.Add(ctx, 1)
}

// RecordExtraction records the outcome of a plan extraction and, on
// success, how many entities it wrote.
func (m *Metrics) RecordExtraction(ctx context.Context, started time.Time, items int, err error) {
	if m == nil {
		return
	}
	m.ExtractDuration.Record(ctx, time.Since(started).Seconds())
	if err != nil {
		m.ExtractFailures.Add(ctx, 1)
		return
	}
	m.Extractions.Add(ctx, 1)
	m.ExtractedItems.Add(ctx, int64(items))
}

// RecordReorder records one applied reorder of the given kind.
func (m *Metrics) RecordReorder(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Reorders.Add(ctx, 1, metric.WithAttributes(attribute.String("plan.kind", kind)))
}
