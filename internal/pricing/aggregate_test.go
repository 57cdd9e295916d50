package pricing

import (
	"errors"
	"testing"
)

func TestAggregateSingleNewMoldLine(t *testing.T) {
	eng := testEngine()
	sum, err := eng.Aggregate([]Line{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 1, NewMold: true},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := Summary{ProductSubtotal: 3500, MoldFeeTotal: 90000, ShippingFee: 3000, GrandTotal: 96500}
	if sum != want {
		t.Fatalf("expected %+v, got %+v", want, sum)
	}
}

func TestAggregateFreeShippingAtThreshold(t *testing.T) {
	eng := testEngine()
	sum, err := eng.Aggregate([]Line{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 20},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := Summary{ProductSubtotal: 70000, MoldFeeTotal: 0, ShippingFee: 0, GrandTotal: 70000}
	if sum != want {
		t.Fatalf("expected %+v, got %+v", want, sum)
	}
}

func TestAggregateMoldFeesExcludedFromThreshold(t *testing.T) {
	eng := testEngine()
	// 3500 product value + 90000 mold fee: the fee must not unlock free
	// shipping even though the grand total crosses the threshold.
	sum, err := eng.Aggregate([]Line{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 1, NewMold: true},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.ShippingFee != 3000 {
		t.Fatalf("mold fee leaked into the shipping threshold: %+v", sum)
	}
}

func TestAggregateMoldFeePerLineNotPerUnit(t *testing.T) {
	eng := testEngine()
	sum, err := eng.Aggregate([]Line{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 1, NewMold: true},
		{FinishTypeID: "normal", SizeMM: 30, Qty: 1000, NewMold: true},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.MoldFeeTotal != 180000 {
		t.Fatalf("expected exactly two mold fees, got %d", sum.MoldFeeTotal)
	}
}

func TestAggregateEmpty(t *testing.T) {
	sum, err := testEngine().Aggregate(nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum != (Summary{}) {
		t.Fatalf("empty aggregate must be all-zero, got %+v", sum)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	eng := testEngine()
	lines := []Line{
		{FinishTypeID: "matte", SizeMM: 40, Qty: 120, NewMold: true},
		{FinishTypeID: "printed", SizeMM: 50, Qty: 30},
	}
	first, err := eng.Aggregate(lines)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	second, err := eng.Aggregate(lines)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if first != second {
		t.Fatalf("aggregate not idempotent: %+v vs %+v", first, second)
	}
}

func TestAggregateDecomposition(t *testing.T) {
	eng := testEngine()
	sum, err := eng.Aggregate([]Line{
		{FinishTypeID: "enamel", SizeMM: 45, Qty: 250, NewMold: true},
		{FinishTypeID: "normal", SizeMM: 35, Qty: 40},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.GrandTotal != sum.ProductSubtotal+sum.MoldFeeTotal+sum.ShippingFee {
		t.Fatalf("grand total decomposition broken: %+v", sum)
	}
}

func TestAggregatePropagatesInvalidQuantity(t *testing.T) {
	_, err := testEngine().Aggregate([]Line{{FinishTypeID: "normal", SizeMM: 30, Qty: 0}})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}
