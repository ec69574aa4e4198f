package money

import (
	"math"
	"testing"
)

func TestNormalizeClampsAndDerivesStatus(t *testing.T) {
	cases := []struct {
		name       string
		total      float64
		paid       float64
		wantTotal  float64
		wantPaid   float64
		wantStatus Status
	}{
		{"unpaid", 1000, 0, 1000, 0, StatusUnpaid},
		{"partial", 1000, 400, 1000, 400, StatusPartial},
		{"paid exact", 1000, 1000, 1000, 1000, StatusPaid},
		{"overpaid clamps to total", 1000, 1200, 1000, 1000, StatusPaid},
		{"negative paid clamps to zero", 1000, -50, 1000, 0, StatusUnpaid},
		{"negative total clamps to zero", -10, 5, 0, 0, StatusUnpaid},
		{"zero total forces zero paid", 0, 999, 0, 0, StatusUnpaid},
		{"within epsilon of total is paid", 100, 99.995, 100, 99.995, StatusPaid},
		{"paid amount at epsilon stays unpaid", 100, 0.01, 100, 0.01, StatusUnpaid},
		{"paid amount above epsilon is partial", 100, 0.02, 100, 0.02, StatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.total, tc.paid)
			if got.Total != tc.wantTotal {
				t.Errorf("total = %v, want %v", got.Total, tc.wantTotal)
			}
			if got.Paid != tc.wantPaid {
				t.Errorf("paid = %v, want %v", got.Paid, tc.wantPaid)
			}
			if got.Status != tc.wantStatus {
				t.Errorf("status = %v, want %v", got.Status, tc.wantStatus)
			}
			if got.Due != got.Total-got.Paid {
				t.Errorf("due = %v, want %v", got.Due, got.Total-got.Paid)
			}
			if got.Paid < 0 || got.Paid > got.Total {
				t.Errorf("paid %v outside [0, %v]", got.Paid, got.Total)
			}
		})
	}
}

func TestNormalizeCoercesMalformedInput(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := Normalize(v, v)
		if got.Total != 0 || got.Paid != 0 || got.Status != StatusUnpaid {
			t.Errorf("Normalize(%v, %v) = %+v, want zeroed unpaid", v, v, got)
		}
	}
}

func TestResolveKeepsCancelSticky(t *testing.T) {
	got := Resolve(StatusCancel, 1000, 1000)
	if got.Status != StatusCancel {
		t.Fatalf("status = %v, want %v", got.Status, StatusCancel)
	}
	if got.Paid != 1000 {
		t.Fatalf("paid = %v, want 1000", got.Paid)
	}

	got = Resolve(StatusPartial, 1000, 1000)
	if got.Status != StatusPaid {
		t.Fatalf("status = %v, want %v", got.Status, StatusPaid)
	}
}
