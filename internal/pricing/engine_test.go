package pricing

import (
	"errors"
	"testing"

	"github.com/medalkraft/backend-medal/internal/catalog"
)

func testEngine() Engine {
	return Engine{Catalog: catalog.Default()}
}

func TestComputeSingleUnit(t *testing.T) {
	res, err := testEngine().Compute("normal", 30, 1)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.UnitPrice != 3500 || res.DiscountPerUnit != 0 || res.Total != 3500 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestComputeTieredWithSurcharge(t *testing.T) {
	res, err := testEngine().Compute("normal", 50, 150)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.BaseUnitPrice != 4400 {
		t.Fatalf("expected base 4400, got %d", res.BaseUnitPrice)
	}
	if res.DiscountPerUnit != 300 || res.UnitPrice != 4100 {
		t.Fatalf("unexpected discount/unit: %+v", res)
	}
	if res.Total != 615000 || res.DiscountTotal != 45000 {
		t.Fatalf("unexpected totals: %+v", res)
	}
}

func TestComputeDeepTier(t *testing.T) {
	res, err := testEngine().Compute("normal", 30, 1000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.DiscountPerUnit != 1300 || res.UnitPrice != 2200 || res.Total != 2200000 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestComputeFallbacks(t *testing.T) {
	eng := testEngine()
	unknownFinish, err := eng.Compute("mystery-finish", 30, 1)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	normal, _ := eng.Compute("normal", 30, 1)
	if unknownFinish != normal {
		t.Fatalf("unknown finish must price as the default: %+v vs %+v", unknownFinish, normal)
	}

	unknownSize, err := eng.Compute("normal", 31, 10)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if unknownSize.SizeSurcharge != 0 {
		t.Fatalf("unknown size must carry no surcharge, got %d", unknownSize.SizeSurcharge)
	}
}

func TestComputeRejectsNonPositiveQty(t *testing.T) {
	eng := testEngine()
	for _, qty := range []int{0, -1, -500} {
		if _, err := eng.Compute("normal", 30, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestComputeQuantityCeiling(t *testing.T) {
	eng := testEngine()

	atCeiling, err := eng.Compute("normal", 30, MaxQty)
	if err != nil {
		t.Fatalf("compute at ceiling: %v", err)
	}
	if atCeiling.Total <= 0 || atCeiling.Total != atCeiling.UnitPrice*Money(MaxQty) {
		t.Fatalf("ceiling total must stay exact and positive: %+v", atCeiling)
	}

	for _, qty := range []int{MaxQty + 1, 1 << 61} {
		if _, err := eng.Compute("normal", 30, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	eng := testEngine()
	first, err := eng.Compute("epoxy", 45, 320)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := eng.Compute("epoxy", 45, 320)
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if again != first {
			t.Fatalf("result drifted on call %d: %+v vs %+v", i, again, first)
		}
	}
}

func TestUnitPriceMonotonicAcrossTiers(t *testing.T) {
	eng := testEngine()
	prevUnit := Money(1 << 62)
	var prevTotal Money
	for qty := 1; qty <= 6000; qty++ {
		res, err := eng.Compute("matte", 40, qty)
		if err != nil {
			t.Fatalf("qty %d: %v", qty, err)
		}
		if res.UnitPrice > prevUnit {
			t.Fatalf("unit price increased at qty %d: %d > %d", qty, res.UnitPrice, prevUnit)
		}
		if res.Total <= prevTotal {
			t.Fatalf("total not strictly increasing at qty %d: %d <= %d", qty, res.Total, prevTotal)
		}
		prevUnit = res.UnitPrice
		prevTotal = res.Total
	}
}

func TestTotalDecomposition(t *testing.T) {
	eng := testEngine()
	for _, qty := range []int{1, 99, 100, 500, 4999, 5000} {
		res, err := eng.Compute("enamel", 60, qty)
		if err != nil {
			t.Fatalf("qty %d: %v", qty, err)
		}
		if res.Total != res.UnitPrice*Money(qty) {
			t.Fatalf("qty %d: total %d != unit %d * qty", qty, res.Total, res.UnitPrice)
		}
		if res.UnitPrice != res.BaseUnitPrice-res.DiscountPerUnit {
			t.Fatalf("qty %d: unit %d != base %d - discount %d", qty, res.UnitPrice, res.BaseUnitPrice, res.DiscountPerUnit)
		}
	}
}

func TestComputeRejectsNegativeUnitPrice(t *testing.T) {
	// Hand-built table that Validate would refuse: discount beyond base.
	broken := catalog.Default()
	broken.QuantityTiers = []catalog.QuantityTier{{Min: 1, Max: 0, DiscountPerUnit: 10000}}
	eng := Engine{Catalog: broken}
	if _, err := eng.Compute("normal", 30, 5); err == nil {
		t.Fatal("expected error for negative unit price")
	}
}
