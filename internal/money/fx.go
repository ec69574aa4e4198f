package money

import (
	"github.com/smallbiznis/ledgerline/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewRateTable(cfg config.Config, log *zap.Logger) (RateTable, error) {
	table, err := LoadRateTable(cfg.RatesConfigPath)
	if err != nil {
		return RateTable{}, err
	}
	log.Info("exchange rate table loaded",
		zap.String("reporting_currency", table.Reporting),
		zap.String("version", table.Version),
		zap.Int("currencies", len(table.Rates)),
	)
	return table, nil
}

// Module provides the rate table and reporting-currency converter.
var Module = fx.Module("money",
	fx.Provide(
		NewRateTable,
		NewConverter,
	),
)
