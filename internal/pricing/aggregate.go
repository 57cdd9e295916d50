package pricing

// Line is one cart or order line: a badge configuration and its quantity.
// PlatingColor is descriptive only and never affects price.
type Line struct {
	FinishTypeID string `json:"finishTypeId"`
	PlatingColor string `json:"platingColor"`
	SizeMM       int    `json:"sizeMm"`
	Qty          int    `json:"qty"`
	NewMold      bool   `json:"newMold"`
}

// Summary aggregates engine output across a set of lines. GrandTotal always
// equals ProductSubtotal + MoldFeeTotal + ShippingFee.
type Summary struct {
	ProductSubtotal Money `json:"productSubtotal"`
	MoldFeeTotal    Money `json:"moldFeeTotal"`
	ShippingFee     Money `json:"shippingFee"`
	GrandTotal      Money `json:"grandTotal"`
}

// Aggregate prices every line through Compute and derives the order totals.
// The mold fee is charged once per new-mold line regardless of quantity, and
// the free-shipping decision looks at the product subtotal only; mold fees
// never count toward the threshold. An empty line set yields a zero summary
// with no shipping fee.
func (e Engine) Aggregate(lines []Line) (Summary, error) {
	var s Summary
	if len(lines) == 0 {
		return s, nil
	}
	for _, line := range lines {
		res, err := e.Compute(line.FinishTypeID, line.SizeMM, line.Qty)
		if err != nil {
			return Summary{}, err
		}
		s.ProductSubtotal += res.Total
		if line.NewMold {
			s.MoldFeeTotal += e.Catalog.MoldFee
		}
	}
	if s.ProductSubtotal < e.Catalog.FreeShippingThreshold {
		s.ShippingFee = e.Catalog.FlatShippingFee
	}
	s.GrandTotal = s.ProductSubtotal + s.MoldFeeTotal + s.ShippingFee
	return s, nil
}
