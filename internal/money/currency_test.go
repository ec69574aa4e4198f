package money

import (
	"os"
	"path/filepath"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestToReportingPrecedence(t *testing.T) {
	conv := NewConverter(DefaultRateTable())

	t.Run("same currency passes through", func(t *testing.T) {
		got := conv.ToReporting(250, "INR", ConversionHint{ExchangeRate: ptr(99)})
		if got != 250 {
			t.Fatalf("got %v, want 250", got)
		}
	})

	t.Run("reporting equivalent scales proportionally", func(t *testing.T) {
		// Whole document: 100 USD worth 8500 reporting units. A 40 USD
		// component must scale by the same factor, not the stored rate.
		hint := ConversionHint{
			ReportingEquivalent: ptr(8500),
			DocumentTotal:       100,
			ExchangeRate:        ptr(80),
		}
		got := conv.ToReporting(40, "USD", hint)
		if got != 3400 {
			t.Fatalf("got %v, want 3400", got)
		}
	})

	t.Run("explicit rate beats static table", func(t *testing.T) {
		got := conv.ToReporting(100, "USD", ConversionHint{ExchangeRate: ptr(82.5)})
		if got != 8250 {
			t.Fatalf("got %v, want 8250", got)
		}
	})

	t.Run("default rate of 1 is ignored", func(t *testing.T) {
		got := conv.ToReporting(100, "USD", ConversionHint{ExchangeRate: ptr(1)})
		if got != 100*DefaultRateTable().Rate("USD") {
			t.Fatalf("got %v, want static-table conversion", got)
		}
	})

	t.Run("static fallback for USD", func(t *testing.T) {
		got := conv.ToReporting(5000, "USD", ConversionHint{})
		want := 5000 * DefaultRateTable().Rate("USD")
		if got != want {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("unknown currency converts at 1", func(t *testing.T) {
		got := conv.ToReporting(77, "XYZ", ConversionHint{})
		if got != 77 {
			t.Fatalf("got %v, want 77", got)
		}
	})
}

func TestLoadRateTableMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	content := []byte("reporting_currency: INR\nversion: 2026-08\nrates:\n  USD: 84.5\n  JPY: 0.56\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rates file: %v", err)
	}

	table, err := LoadRateTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Version != "2026-08" {
		t.Errorf("version = %q", table.Version)
	}
	if table.Rate("USD") != 84.5 {
		t.Errorf("USD rate = %v, want 84.5", table.Rate("USD"))
	}
	if table.Rate("JPY") != 0.56 {
		t.Errorf("JPY rate = %v, want 0.56", table.Rate("JPY"))
	}
	// Defaults not overridden stay intact.
	if table.Rate("EUR") != DefaultRateTable().Rate("EUR") {
		t.Errorf("EUR rate = %v", table.Rate("EUR"))
	}
	if table.Rate("INR") != 1 {
		t.Errorf("reporting currency rate = %v, want 1", table.Rate("INR"))
	}
}

func TestLoadRateTableRejectsNonPositiveRate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	if err := os.WriteFile(path, []byte("rates:\n  USD: -1\n"), 0o600); err != nil {
		t.Fatalf("write rates file: %v", err)
	}
	if _, err := LoadRateTable(path); err == nil {
		t.Fatal("expected error for negative rate")
	}
}
