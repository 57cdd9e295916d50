package pricing

import (
	"errors"
	"fmt"

	"github.com/medalkraft/backend-medal/internal/catalog"
)

// Money represents a KRW amount. The currency has no minor units, so all
// arithmetic stays in integers and results are exactly reproducible.
type Money = int64

// ErrInvalidQuantity is returned when a caller passes a non-positive
// quantity or one above MaxQty. The preview handler and cart validation
// surface it to clients as INVALID_QUANTITY.
var ErrInvalidQuantity = errors.New("pricing: quantity out of range")

// MaxQty caps the quantity of a single line. The preview endpoint is
// public, so without a ceiling the int64 line total could wrap; one
// million units is far beyond any real badge run.
const MaxQty = 1_000_000

// errNegativeUnitPrice signals a catalog whose discounts exceed the base
// price. catalog.Validate rejects such tables; this guards test catalogs
// built by hand.
var errNegativeUnitPrice = errors.New("pricing: discount exceeds base unit price")

// Result holds the per-unit and per-line outcome of a price computation.
// It is derived on every call and never stored.
type Result struct {
	UnitPrice       Money `json:"unitPrice"`
	BaseUnitPrice   Money `json:"baseUnitPrice"`
	SizeSurcharge   Money `json:"sizeSurcharge"`
	DiscountPerUnit Money `json:"discountPerUnit"`
	DiscountTotal   Money `json:"discountTotal"`
	Total           Money `json:"total"`
}

// Engine computes badge prices from an injected immutable catalog. It is
// pure and safe for concurrent use; every surface (configurator preview,
// cart, checkout, quote export) must go through the same Engine.
type Engine struct {
	Catalog *catalog.Catalog
}

// Compute derives the unit price for a configuration. Unknown finish ids
// fall back to the default finish and unknown sizes to a zero surcharge,
// so the configurator can always render a price.
func (e Engine) Compute(finishTypeID string, sizeMM, qty int) (Result, error) {
	if e.Catalog == nil {
		return Result{}, errors.New("pricing: catalog not configured")
	}
	if qty <= 0 || qty > MaxQty {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	ft := e.Catalog.FinishTypeFor(finishTypeID)
	surcharge := e.Catalog.SurchargeFor(sizeMM)
	base := ft.BasePrice + ft.Addon + surcharge
	discount := e.Catalog.DiscountFor(qty)
	unit := base - discount
	if unit < 0 {
		return Result{}, fmt.Errorf("%w: finish %q size %dmm qty %d", errNegativeUnitPrice, ft.ID, sizeMM, qty)
	}
	return Result{
		UnitPrice:       unit,
		BaseUnitPrice:   base,
		SizeSurcharge:   surcharge,
		DiscountPerUnit: discount,
		DiscountTotal:   discount * Money(qty),
		Total:           unit * Money(qty),
	}, nil
}
