package payment

import (
	"errors"
	"fmt"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/pricing"
	"github.com/medalkraft/backend-medal/internal/store"
)

// ErrAmountMismatch indicates the amount a gateway reports differs from the
// server-side recomputation of the order total. The comparison is exact
// integer equality in KRW; there is no tolerance window and no correction.
var ErrAmountMismatch = errors.New("payment amount mismatch")

// ExpectedTotal recomputes the authoritative order total from the persisted
// configuration tuples. Stored totals are treated as display snapshots; the
// catalog is the source of truth at the moment of verification.
func ExpectedTotal(cat *catalog.Catalog, items []store.OrderItem) (int64, error) {
	engine := pricing.Engine{Catalog: cat}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{
			FinishTypeID: it.FinishTypeID,
			PlatingColor: it.PlatingColor,
			SizeMM:       it.SizeMM,
			Qty:          it.Qty,
			NewMold:      it.NewMold,
		})
	}
	summary, err := engine.Aggregate(lines)
	if err != nil {
		return 0, err
	}
	return summary.GrandTotal, nil
}

// VerifyAmount compares a gateway-reported amount against the expected total.
func VerifyAmount(expected, got int64) error {
	if got != expected {
		return fmt.Errorf("got %d expected %d: %w", got, expected, ErrAmountMismatch)
	}
	return nil
}
