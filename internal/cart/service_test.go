package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/pricing"
	"github.com/medalkraft/backend-medal/internal/store"
)

func TestValidateItem(t *testing.T) {
	svc := &Service{Catalog: catalog.Default()}

	valid := ItemInput{FinishTypeID: "normal", PlatingColor: "gold", SizeMM: 35, Qty: 100}
	if err := svc.validateItem(valid); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	cases := []struct {
		name string
		in   ItemInput
	}{
		{"zero qty", ItemInput{FinishTypeID: "normal", SizeMM: 35, Qty: 0}},
		{"negative qty", ItemInput{FinishTypeID: "normal", SizeMM: 35, Qty: -5}},
		{"qty above ceiling", ItemInput{FinishTypeID: "normal", SizeMM: 35, Qty: pricing.MaxQty + 1}},
		{"missing finish", ItemInput{SizeMM: 35, Qty: 10}},
		{"zero size", ItemInput{FinishTypeID: "normal", SizeMM: 0, Qty: 10}},
		{"unknown plating color", ItemInput{FinishTypeID: "normal", PlatingColor: "chartreuse", SizeMM: 35, Qty: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.validateItem(tc.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUpdateItemRejectsOutOfRangeQty(t *testing.T) {
	// The qty guard runs before any store access, so an empty store is fine.
	svc := &Service{Store: &store.Store{}, Catalog: catalog.Default()}

	for _, qty := range []int{0, -1, pricing.MaxQty + 1} {
		err := svc.UpdateItem(context.Background(), "5c0f7b9e-9a33-4a0f-bb37-3b1d1d9a1f42", qty, false)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("qty %d: expected ErrInvalidInput, got %v", qty, err)
		}
	}
}

func TestValidateItemUnknownFinishFallsBack(t *testing.T) {
	// An unknown finish prices at the default finish rather than failing,
	// so the configurator keeps working when the catalog shrinks.
	svc := &Service{Catalog: catalog.Default()}
	err := svc.validateItem(ItemInput{FinishTypeID: "holographic", SizeMM: 35, Qty: 10})
	if err != nil {
		t.Fatalf("unknown finish should fall back to default: %v", err)
	}
}

func TestValidateItemEmptyPlatingAllowed(t *testing.T) {
	svc := &Service{Catalog: catalog.Default()}
	err := svc.validateItem(ItemInput{FinishTypeID: "matte", SizeMM: 50, Qty: 1})
	if err != nil {
		t.Fatalf("empty plating color should be allowed: %v", err)
	}
}
