package payment

import (
	"errors"
	"testing"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/store"
)

func TestExpectedTotalRecomputesFromConfiguration(t *testing.T) {
	cat := catalog.Default()

	// Single badge with a new mold: 3500 + 90000 mold + 3000 shipping.
	items := []store.OrderItem{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 1, NewMold: true},
	}
	got, err := ExpectedTotal(cat, items)
	if err != nil {
		t.Fatalf("ExpectedTotal: %v", err)
	}
	if got != 96500 {
		t.Fatalf("ExpectedTotal = %d, want 96500", got)
	}

	// Stored snapshot prices are irrelevant; only the tuple matters.
	items[0].UnitPrice = 999999
	items[0].LineTotal = 999999
	again, err := ExpectedTotal(cat, items)
	if err != nil {
		t.Fatalf("ExpectedTotal: %v", err)
	}
	if again != got {
		t.Fatalf("snapshot prices leaked into recomputation: %d vs %d", again, got)
	}
}

func TestExpectedTotalBelowFreeShipping(t *testing.T) {
	cat := catalog.Default()
	items := []store.OrderItem{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 20},
	}
	got, err := ExpectedTotal(cat, items)
	if err != nil {
		t.Fatalf("ExpectedTotal: %v", err)
	}
	// 70000 product subtotal clears the free-shipping threshold.
	if got != 70000 {
		t.Fatalf("ExpectedTotal = %d, want 70000", got)
	}
}

func TestExpectedTotalRejectsInvalidQuantity(t *testing.T) {
	cat := catalog.Default()
	items := []store.OrderItem{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 0},
	}
	if _, err := ExpectedTotal(cat, items); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestVerifyAmountExactEquality(t *testing.T) {
	if err := VerifyAmount(96500, 96500); err != nil {
		t.Fatalf("equal amounts rejected: %v", err)
	}
	for _, got := range []int64{96499, 96501, 0, -96500} {
		err := VerifyAmount(96500, got)
		if err == nil {
			t.Fatalf("mismatch %d accepted", got)
		}
		if !errors.Is(err, ErrAmountMismatch) {
			t.Fatalf("expected ErrAmountMismatch, got %v", err)
		}
	}
}
