// Package metrics configures the OTLP meter provider and the
// application-level instruments.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	generationRuns     metric.Int64Counter
	generationOutcomes metric.Int64Counter
	transitions        metric.Int64Counter
	notifyFailures     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "ledgerline"
	}
	meter := provider.Meter(name)

	generationRuns, err := meter.Int64Counter("ledgerline_generation_runs_total")
	if err != nil {
		return nil, err
	}
	generationOutcomes, err := meter.Int64Counter("ledgerline_generation_outcomes_total")
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("ledgerline_status_transitions_total")
	if err != nil {
		return nil, err
	}
	notifyFailures, err := meter.Int64Counter("ledgerline_notify_failures_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		generationRuns:     generationRuns,
		generationOutcomes: generationOutcomes,
		transitions:        transitions,
		notifyFailures:     notifyFailures,
	}, nil
}

// RecordGenerationRun increments the per-tick run counter.
func (m *Metrics) RecordGenerationRun(ctx context.Context) {
	if m == nil {
		return
	}
	m.generationRuns.Add(ctx, 1)
}

// RecordGenerationOutcome counts one schedule outcome within a run.
func (m *Metrics) RecordGenerationOutcome(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.generationOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("document_kind", strings.ToLower(strings.TrimSpace(kind))),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordTransition counts a paid-status transition by resulting status.
func (m *Metrics) RecordTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", strings.TrimSpace(status)),
	))
}

// RecordNotifyFailure counts a best-effort notification failure.
func (m *Metrics) RecordNotifyFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.notifyFailures.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
