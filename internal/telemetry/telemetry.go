// Package telemetry wires OpenTelemetry metrics and traces for the engine.
// When disabled it hands out no-op providers so call sites never branch.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider holds the tracer/meter plus the engine's instruments.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	analysesCounter    metric.Int64Counter
	analysisDuration   metric.Float64Histogram
	enrichmentDuration metric.Float64Histogram
	enrichmentFailures metric.Int64Counter
	cacheHitsCounter   metric.Int64Counter

	shutdowns []func(context.Context) error
}

// NewProvider configures OTLP exporters and providers. When disabled, all
// instruments are no-ops.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		p := &Provider{
			tracer: tracenoop.NewTracerProvider().Tracer(""),
			meter:  noop.NewMeterProvider().Meter(""),
		}
		p.initInstruments()
		return p, nil
	}

	protocol := strings.ToLower(cfg.Protocol)
	slog.Info("telemetry enabled", "protocol", protocol, "endpoint", cfg.Endpoint)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExp, err := newTraceExporter(ctx, protocol, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	reader, err := newMetricReader(ctx, protocol, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:   true,
		tracer:    tp.Tracer("policyxray"),
		meter:     mp.Meter("policyxray"),
		shutdowns: []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}
	p.initInstruments()
	return p, nil
}

func newTraceExporter(ctx context.Context, protocol, endpoint string) (sdktrace.SpanExporter, error) {
	switch protocol {
	case "", "grpc":
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	case "http":
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	default:
		return nil, fmt.Errorf("telemetry: unsupported protocol %q", protocol)
	}
}

func newMetricReader(ctx context.Context, protocol, endpoint string) (sdkmetric.Reader, error) {
	switch protocol {
	case "", "grpc":
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "http":
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	default:
		return nil, fmt.Errorf("telemetry: unsupported protocol %q", protocol)
	}
}

func (p *Provider) initInstruments() {
	// Instrument creation errors are ignored; telemetry stays best-effort.
	p.analysesCounter, _ = p.meter.Int64Counter("policyxray_analyses_total")
	p.analysisDuration, _ = p.meter.Float64Histogram("policyxray_analysis_duration_ms")
	p.enrichmentDuration, _ = p.meter.Float64Histogram("policyxray_enrichment_duration_ms")
	p.enrichmentFailures, _ = p.meter.Int64Counter("policyxray_enrichment_failures_total")
	p.cacheHitsCounter, _ = p.meter.Int64Counter("policyxray_cache_hits_total")
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return tracenoop.NewTracerProvider().Tracer("")
	}
	return p.tracer
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	for _, fn := range p.shutdowns {
		_ = fn(ctx)
	}
}

// RecordAnalysis emits the per-request counters and histograms.
func (p *Provider) RecordAnalysis(overallLevel string, useAI, cacheHit bool, durMs, enrichMs float64, enrichFailures int) {
	if p == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("policyxray.overall_risk_level", overallLevel),
		attribute.Bool("policyxray.use_ai", useAI),
	)
	ctx := context.Background()
	p.analysesCounter.Add(ctx, 1, attrs)
	p.analysisDuration.Record(ctx, durMs, attrs)
	if enrichMs > 0 {
		p.enrichmentDuration.Record(ctx, enrichMs, attrs)
	}
	if enrichFailures > 0 {
		p.enrichmentFailures.Add(ctx, int64(enrichFailures), attrs)
	}
	if cacheHit {
		p.cacheHitsCounter.Add(ctx, 1, attrs)
	}
}
