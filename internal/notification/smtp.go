package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
	"go.uber.org/zap"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier renders the invoice as a PDF and mails it to the customer.
type EmailNotifier struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewEmail(cfg SMTPConfig, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, log: log.Named("notification.email")}
}

func (n *EmailNotifier) NotifyInvoice(ctx context.Context, invoice invoicedomain.Invoice) error {
	if strings.TrimSpace(invoice.CustomerEmail) == "" {
		n.log.Debug("invoice has no customer email, skipping", zap.String("number", invoice.Number))
		return nil
	}

	pdf, err := RenderInvoicePDF(invoice)
	if err != nil {
		return fmt.Errorf("render invoice pdf: %w", err)
	}

	subject := fmt.Sprintf("Invoice %s", invoice.Number)
	body := fmt.Sprintf("Hello %s,\r\n\r\nPlease find invoice %s attached. Amount due: %s %.2f.\r\n",
		invoice.CustomerName, invoice.Number, invoice.Currency, invoice.DueAmount)

	msg := buildMessage(n.cfg.From, invoice.CustomerEmail, subject, body, invoice.Number+".pdf", pdf)

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	return smtp.SendMail(addr, auth, n.cfg.From, []string{invoice.CustomerEmail}, msg)
}

// buildMessage assembles a multipart MIME message with one PDF attachment.
func buildMessage(from, to, subject, body, filename string, attachment []byte) []byte {
	const boundary = "ledgerline-mixed"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}
