// Package money is the single source of truth for payment-status
// derivation and reporting-currency conversion. Every write path that
// touches amounts goes through Normalize; no service re-implements the
// thresholds.
package money

import "math"

// Epsilon absorbs floating-point rounding when comparing amounts in the
// two-decimal reporting currency.
const Epsilon = 0.01

// Status represents the payment state of a monetary document.
type Status string

const (
	StatusUnpaid  Status = "UNPAID"
	StatusPartial Status = "PARTIAL"
	StatusPaid    Status = "PAID"
	StatusCancel  Status = "CANCEL"
)

// Normalized is the result of clamping a document's amounts and deriving
// its payment status.
type Normalized struct {
	Total  float64
	Paid   float64
	Due    float64
	Status Status
}

// Normalize clamps paid into [0, total] and derives the status:
// PAID when paid covers total within Epsilon, PARTIAL when anything above
// Epsilon has been paid, UNPAID otherwise. Malformed numeric input (NaN,
// ±Inf) is coerced to 0 rather than rejected.
func Normalize(total, paid float64) Normalized {
	total = sanitize(total)
	paid = sanitize(paid)

	if total < 0 {
		total = 0
	}
	if total == 0 {
		paid = 0
	} else if paid < 0 {
		paid = 0
	} else if paid > total {
		paid = total
	}

	status := StatusUnpaid
	switch {
	case total > 0 && paid >= total-Epsilon:
		status = StatusPaid
	case paid > Epsilon:
		status = StatusPartial
	}

	return Normalized{
		Total:  total,
		Paid:   paid,
		Due:    total - paid,
		Status: status,
	}
}

// Resolve applies Normalize while keeping CANCEL sticky: a canceled
// document never regains a computed status from amount updates.
func Resolve(current Status, total, paid float64) Normalized {
	n := Normalize(total, paid)
	if current == StatusCancel {
		n.Status = StatusCancel
	}
	return n
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
