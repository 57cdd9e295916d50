package payment

import (
	"strings"
	"testing"

	"github.com/medalkraft/backend-medal/internal/catalog"
	"github.com/medalkraft/backend-medal/internal/store"
)

func TestApprovalStatusMatchingAmountSettles(t *testing.T) {
	cat := catalog.Default()
	items := []store.OrderItem{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 20},
	}
	status, payload, err := approvalStatus(cat, items, 70000, []byte(`{}`))
	if err != nil {
		t.Fatalf("approvalStatus: %v", err)
	}
	if status != store.PaymentStatusApproved {
		t.Fatalf("status = %s, want %s", status, store.PaymentStatusApproved)
	}
	if payload != nil {
		t.Fatalf("unexpected replacement payload: %s", payload)
	}
}

func TestApprovalStatusMismatchFails(t *testing.T) {
	cat := catalog.Default()
	items := []store.OrderItem{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 20},
	}
	status, payload, err := approvalStatus(cat, items, 69999, []byte(`{}`))
	if err != nil {
		t.Fatalf("approvalStatus: %v", err)
	}
	if status != store.PaymentStatusFailed {
		t.Fatalf("status = %s, want %s", status, store.PaymentStatusFailed)
	}
	if payload == nil {
		t.Fatal("expected a payload recording the disagreement")
	}
}

func TestApprovalStatusMissingAmountFails(t *testing.T) {
	// An approval that does not state its amount cannot be verified and
	// must not settle the order.
	cat := catalog.Default()
	items := []store.OrderItem{
		{FinishTypeID: "normal", SizeMM: 30, Qty: 20},
	}
	for _, reported := range []int64{0, -1} {
		status, payload, err := approvalStatus(cat, items, reported, []byte(`{"status":"APPROVED"}`))
		if err != nil {
			t.Fatalf("approvalStatus(%d): %v", reported, err)
		}
		if status != store.PaymentStatusFailed {
			t.Fatalf("reported %d: status = %s, want %s", reported, status, store.PaymentStatusFailed)
		}
		if payload == nil || !strings.Contains(string(payload), "missing amount") {
			t.Fatalf("reported %d: payload does not record the missing amount: %s", reported, payload)
		}
	}
}
