package money

import "strings"

// ConversionHint carries the per-document conversion data stored alongside
// a monetary document. Either field may be absent.
type ConversionHint struct {
	// ExchangeRate is an explicit source→reporting rate captured when the
	// document was created. A stored value of 1 is the schema default and
	// treated as "not set".
	ExchangeRate *float64
	// ReportingEquivalent is a precomputed reporting-currency equivalent
	// of the whole document. When present, partial amounts (tax
	// components, received amounts) scale proportionally so they stay
	// consistent with the whole-document figure.
	ReportingEquivalent *float64
	// DocumentTotal is the document total in the source currency, needed
	// to derive the proportional scaling factor.
	DocumentTotal float64
}

// Converter converts amounts into the reporting currency.
type Converter struct {
	table RateTable
}

func NewConverter(table RateTable) *Converter {
	return &Converter{table: table}
}

// ReportingCurrency returns the currency code all converted amounts are
// expressed in.
func (c *Converter) ReportingCurrency() string {
	return c.table.Reporting
}

// ToReporting converts amount from the source currency into the reporting
// currency. Precedence: same currency passes through unchanged; then the
// precomputed reporting equivalent (proportional); then an explicit
// non-default exchange rate; then the static operator rate table.
func (c *Converter) ToReporting(amount float64, currency string, hint ConversionHint) float64 {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == c.table.Reporting {
		return amount
	}

	if hint.ReportingEquivalent != nil && *hint.ReportingEquivalent > 0 && hint.DocumentTotal > 0 {
		return amount * (*hint.ReportingEquivalent / hint.DocumentTotal)
	}

	if hint.ExchangeRate != nil && *hint.ExchangeRate > 0 && *hint.ExchangeRate != 1 {
		return amount * *hint.ExchangeRate
	}

	return amount * c.table.Rate(currency)
}
