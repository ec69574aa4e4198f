// Package notification delivers freshly generated documents to their
// recipients. Delivery is best effort: generation never fails because an
// email could not be sent.
package notification

import (
	"context"

	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
)

// Notifier sends a generated invoice to its customer.
type Notifier interface {
	NotifyInvoice(ctx context.Context, invoice invoicedomain.Invoice) error
}

// NoopNotifier drops notifications. Used when SMTP is not configured and
// in tests.
type NoopNotifier struct{}

func NewNoop() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) NotifyInvoice(ctx context.Context, invoice invoicedomain.Invoice) error {
	return nil
}
