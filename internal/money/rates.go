package money

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// RateTable maps currency codes to their conversion rate into the single
// reporting currency. Rates are operator-maintained configuration, not
// market data; they are expected to be versioned alongside deployment
// config and can drift from real FX rates.
type RateTable struct {
	Reporting string
	Version   string
	Rates     map[string]float64
}

// DefaultRateTable returns the compiled-in operator defaults, used when no
// rates file is configured.
func DefaultRateTable() RateTable {
	return RateTable{
		Reporting: "INR",
		Version:   "builtin",
		Rates: map[string]float64{
			"INR": 1,
			"USD": 83.0,
			"EUR": 90.0,
			"GBP": 105.0,
			"AUD": 54.0,
			"CAD": 61.0,
			"SGD": 62.0,
			"AED": 22.6,
		},
	}
}

// LoadRateTable reads a YAML rate table and merges it over the defaults.
// An empty path returns the defaults unchanged.
//
//	reporting_currency: INR
//	version: 2026-08
//	rates:
//	  USD: 83.20
//	  EUR: 91.10
func LoadRateTable(path string) (RateTable, error) {
	table := DefaultRateTable()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return RateTable{}, fmt.Errorf("read rates config: %w", err)
	}

	if reporting := strings.ToUpper(strings.TrimSpace(v.GetString("reporting_currency"))); reporting != "" {
		table.Reporting = reporting
	}
	if version := strings.TrimSpace(v.GetString("version")); version != "" {
		table.Version = version
	}
	for code, rate := range v.GetStringMap("rates") {
		parsed := v.GetFloat64("rates." + code)
		if parsed <= 0 {
			return RateTable{}, fmt.Errorf("invalid rate for %s: %v", strings.ToUpper(code), rate)
		}
		table.Rates[strings.ToUpper(code)] = parsed
	}
	table.Rates[table.Reporting] = 1

	return table, nil
}

// Rate returns the conversion rate for a currency code, 1 when unknown.
func (t RateTable) Rate(currency string) float64 {
	if rate, ok := t.Rates[strings.ToUpper(strings.TrimSpace(currency))]; ok && rate > 0 {
		return rate
	}
	return 1
}
