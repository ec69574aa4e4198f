// Package observability wires the metrics provider from application config.
package observability

import (
	"github.com/smallbiznis/ledgerline/internal/config"
	"github.com/smallbiznis/ledgerline/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
	),
)

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.MetricsEnabled,
		ExporterEndpoint: cfg.MetricsExporterEndpoint,
		ExporterProtocol: cfg.MetricsExporterProtocol,
		ServiceName:      cfg.AppName,
	}
}
