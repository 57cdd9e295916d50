package quote

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medalkraft/backend-medal/internal/pricing"
)

func TestFormatKRW(t *testing.T) {
	cases := map[int64]string{
		0:       "KRW 0",
		500:     "KRW 500",
		3500:    "KRW 3,500",
		96500:   "KRW 96,500",
		615000:  "KRW 615,000",
		2200000: "KRW 2,200,000",
		-4100:   "-KRW 4,100",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatKRW(in))
	}
}

func TestRenderProducesPDF(t *testing.T) {
	b := Builder{
		SellerName:    "Medalkraft Co.",
		SellerAddress: "12 Eulji-ro, Jung-gu, Seoul",
		SellerEmail:   "sales@medalkraft.example",
	}
	doc := Document{
		QuoteNumber: "Q-2025-0001",
		IssuedAt:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:  time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		ClientName:  "Acme Running Club",
		Currency:    "KRW",
		Lines: []Line{
			{
				DesignName:   "Spring 10K finisher",
				FinishLabel:  "Matte",
				PlatingColor: "gold",
				SizeMM:       50,
				Qty:          150,
				NewMold:      true,
				Result: pricing.Result{
					UnitPrice:       4400,
					BaseUnitPrice:   4700,
					SizeSurcharge:   900,
					DiscountPerUnit: 300,
					DiscountTotal:   45000,
					Total:           660000,
				},
			},
		},
		Summary: pricing.Summary{
			ProductSubtotal: 660000,
			MoldFeeTotal:    90000,
			ShippingFee:     0,
			GrandTotal:      750000,
		},
	}
	pdf, err := b.Render(doc)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output is not a PDF")
	require.Greater(t, len(pdf), 1000)
}

func TestRenderEmptyQuote(t *testing.T) {
	b := Builder{SellerName: "Medalkraft Co."}
	pdf, err := b.Render(Document{QuoteNumber: "Q-0", IssuedAt: time.Now(), ValidUntil: time.Now()})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
