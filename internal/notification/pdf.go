package notification

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallbiznis/ledgerline/internal/invoice/domain"
)

// RenderInvoicePDF builds a one-page PDF for an invoice.
func RenderInvoicePDF(invoice invoicedomain.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	dueDate := ""
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.Format("2006-01-02")
	}
	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.Number, props.Text{Top: 0}),
			text.New("Date of issue: "+invoice.IssueDate.Format("2006-01-02"), props.Text{Top: 4}),
			text.New("Date due: "+dueDate, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.CustomerName, props.Text{Top: 5}),
			text.New(invoice.CustomerEmail, props.Text{Top: 9}),
		),
		col.New(6),
	)

	m.AddRow(15,
		text.NewCol(12, fmt.Sprintf("%s %.2f due %s", invoice.Currency, invoice.DueAmount, dueDate), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%.2f", invoice.TotalAmount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, fmt.Sprintf("%.2f", invoice.DueAmount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if invoice.Notes != "" {
		m.AddRow(15,
			text.NewCol(12, invoice.Notes, props.Text{Size: 9, Top: 5}),
		)
	}

	m.AddRow(10,
		text.NewCol(12, "Generated "+time.Now().UTC().Format(time.RFC3339), props.Text{Size: 7}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
