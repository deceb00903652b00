package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// TestStudentPurchase tests that the purchase total follows its items.
//
// WHY: The total cost is what gets debited from the share. It must never be
// settable on its own or drift from the lines that make it up.
func TestStudentPurchase(t *testing.T) {
	newPurchase := func(t *testing.T) *StudentPurchase {
		t.Helper()
		p := NewStudentPurchase("purchase-1", "student-1", "share-1", time.Now())
		for _, item := range []StudentPurchaseItem{
			{ID: "a", ProductID: "pencil", Quantity: 3, PurchasePrice: money.FromCents(150)},
			{ID: "b", ProductID: "eraser", Quantity: 1, PurchasePrice: money.FromCents(75)},
		} {
			if err := p.AddItem(item); err != nil {
				t.Fatalf("AddItem() returned unexpected error: %v", err)
			}
		}
		return p
	}

	t.Run("total sums item prices", func(t *testing.T) {
		p := newPurchase(t)
		if !p.TotalCost().Equal(money.FromCents(525)) {
			t.Errorf("Expected $5.25, got %s", p.TotalCost())
		}
		if p.Status != PurchaseStatusPending {
			t.Errorf("Expected pending status, got %s", p.Status)
		}
		for _, item := range p.Items() {
			if item.StudentPurchaseID != p.ID {
				t.Errorf("Expected item %s to belong to %s, got %s", item.ID, p.ID, item.StudentPurchaseID)
			}
		}
	})

	t.Run("update and remove recompute the total", func(t *testing.T) {
		p := newPurchase(t)

		if err := p.UpdateItemQuantity("a", 1); err != nil {
			t.Fatalf("UpdateItemQuantity() returned unexpected error: %v", err)
		}
		if !p.TotalCost().Equal(money.FromCents(225)) {
			t.Errorf("Expected $2.25 after update, got %s", p.TotalCost())
		}

		if !p.RemoveItem("b") {
			t.Fatal("RemoveItem() reported nothing removed")
		}
		if !p.TotalCost().Equal(money.FromCents(150)) {
			t.Errorf("Expected $1.50 after remove, got %s", p.TotalCost())
		}
		if p.RemoveItem("b") {
			t.Error("RemoveItem() removed a missing item")
		}
	})

	t.Run("rejects negative quantities", func(t *testing.T) {
		p := newPurchase(t)

		if err := p.AddItem(StudentPurchaseItem{ID: "c", Quantity: -1}); !errors.Is(err, ErrNegativeQuantity) {
			t.Errorf("Expected ErrNegativeQuantity from AddItem, got %v", err)
		}
		if err := p.UpdateItemQuantity("a", -2); !errors.Is(err, ErrNegativeQuantity) {
			t.Errorf("Expected ErrNegativeQuantity from UpdateItemQuantity, got %v", err)
		}
		if !p.TotalCost().Equal(money.FromCents(525)) {
			t.Errorf("Expected total to stay $5.25, got %s", p.TotalCost())
		}
	})

	t.Run("rejects totals that overflow", func(t *testing.T) {
		p := newPurchase(t)

		err := p.AddItem(StudentPurchaseItem{ID: "huge", PurchasePrice: money.FromCents(100), Quantity: 92233720368547759})
		if !errors.Is(err, money.ErrOverflow) {
			t.Errorf("Expected ErrOverflow from AddItem, got %v", err)
		}
		err = p.AddItem(StudentPurchaseItem{ID: "max", PurchasePrice: money.FromCents(1), Quantity: math.MaxInt64})
		if !errors.Is(err, money.ErrOverflow) {
			t.Errorf("Expected ErrOverflow when the sum leaves range, got %v", err)
		}
		if err := p.UpdateItemQuantity("a", math.MaxInt64); !errors.Is(err, money.ErrOverflow) {
			t.Errorf("Expected ErrOverflow from UpdateItemQuantity, got %v", err)
		}
		if len(p.Items()) != 2 || p.Items()[0].Quantity != 3 || !p.TotalCost().Equal(money.FromCents(525)) {
			t.Errorf("Rejected changes must leave the purchase untouched: %+v total %s", p.Items(), p.TotalCost())
		}
	})

	t.Run("items are a copy", func(t *testing.T) {
		p := newPurchase(t)
		items := p.Items()
		items[0].Quantity = 100

		if !p.TotalCost().Equal(money.FromCents(525)) || p.Items()[0].Quantity != 3 {
			t.Error("Mutating Items() changed the purchase")
		}
	})

	t.Run("json includes derived total", func(t *testing.T) {
		p := newPurchase(t)
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("Marshal() returned unexpected error: %v", err)
		}

		var decoded struct {
			TotalCost json.Number       `json:"totalCost"`
			Items     []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() returned unexpected error: %v", err)
		}
		if len(decoded.Items) != 2 {
			t.Errorf("Expected 2 items, got %d", len(decoded.Items))
		}
		if decoded.TotalCost != "5.25" {
			t.Errorf("Expected totalCost 5.25, got %s", decoded.TotalCost)
		}
	})
}
