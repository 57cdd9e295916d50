package quote

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/medalkraft/backend-medal/internal/pricing"
)

// Line is one priced badge configuration on a quote. It is produced from the
// pricing engine; the quote renderer performs no arithmetic of its own.
type Line struct {
	DesignName   string
	FinishLabel  string
	PlatingColor string
	SizeMM       int
	Qty          int
	NewMold      bool
	Result       pricing.Result
}

// Document carries everything needed to render a quote PDF.
type Document struct {
	QuoteNumber string
	IssuedAt    time.Time
	ValidUntil  time.Time
	CompanyName string
	ClientName  string
	Currency    string
	Lines       []Line
	Summary     pricing.Summary
}

// Builder renders quote documents as PDF.
type Builder struct {
	SellerName    string
	SellerAddress string
	SellerEmail   string
}

// Render produces the PDF bytes for a quote document.
func (b Builder) Render(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Quotation", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Quote number: "+doc.QuoteNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+doc.IssuedAt.Format("2006-01-02"), props.Text{Top: 4}),
			text.New("Valid until: "+doc.ValidUntil.Format("2006-01-02"), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New(b.SellerName, props.Text{Style: fontstyle.Bold}),
			text.New(b.SellerAddress, props.Text{Top: 5}),
			text.New(b.SellerEmail, props.Text{Top: 9}),
		),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Prepared for", props.Text{Style: fontstyle.Bold}),
			text.New(doc.ClientName, props.Text{Top: 5}),
		),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(5, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range doc.Lines {
		m.AddRow(12,
			text.NewCol(5, lineDescription(line), props.Text{Size: 9}),
			text.NewCol(2, strconv.Itoa(line.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, FormatKRW(line.Result.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, FormatKRW(line.Result.Total), props.Text{Size: 9, Align: align.Right}),
		)
		if line.Result.DiscountPerUnit > 0 {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("  includes volume discount of %s per unit", FormatKRW(line.Result.DiscountPerUnit)), props.Text{Size: 8}),
			)
		}
	}

	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, FormatKRW(doc.Summary.ProductSubtotal), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Mold fees", props.Text{Size: 9}),
		text.NewCol(3, FormatKRW(doc.Summary.MoldFeeTotal), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Shipping", props.Text{Size: 9}),
		text.NewCol(3, FormatKRW(doc.Summary.ShippingFee), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		col.New(7),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(3, FormatKRW(doc.Summary.GrandTotal), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	rendered, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return rendered.GetBytes(), nil
}

func lineDescription(line Line) string {
	desc := line.DesignName
	if desc == "" {
		desc = "Custom badge"
	}
	desc = fmt.Sprintf("%s (%s, %dmm", desc, line.FinishLabel, line.SizeMM)
	if line.PlatingColor != "" {
		desc += ", " + line.PlatingColor
	}
	desc += ")"
	if line.NewMold {
		desc += " + new mold"
	}
	return desc
}

// FormatKRW renders an integer amount with thousands separators. Amounts are
// whole won; there are no decimal places. The built-in PDF fonts cannot show
// the won sign, so the currency code is spelled out.
func FormatKRW(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	s := "KRW " + string(out)
	if neg {
		s = "-" + s
	}
	return s
}
