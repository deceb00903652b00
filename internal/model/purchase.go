package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// ErrNegativeQuantity is returned when an item quantity would drop below zero.
var ErrNegativeQuantity = errors.New("quantity cannot be negative")

// Product is an item students can buy with their shares. Limited products
// track the remaining inventory in QuantityAvailable.
type Product struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Cost              money.Money `json:"cost"`
	IsLimitedQuantity bool        `json:"isLimitedQuantity"`
	QuantityAvailable int64       `json:"quantityAvailable"`
}

// PurchaseStatus describes where a purchase order is in its lifecycle.
type PurchaseStatus string

// PurchaseStatusPending is the status of every purchase the service creates.
const PurchaseStatusPending PurchaseStatus = "Pending"

// StudentPurchaseItem is one product line of a purchase.
type StudentPurchaseItem struct {
	ID                string      `json:"id"`
	StudentPurchaseID string      `json:"studentPurchaseId"`
	ProductID         string      `json:"productId"`
	Quantity          int64       `json:"quantity"`
	PurchasePrice     money.Money `json:"purchasePrice"`
}

// TotalPurchasePrice is PurchasePrice × Quantity. It fails with
// money.ErrOverflow when the product does not fit in Money.
func (i StudentPurchaseItem) TotalPurchasePrice() (money.Money, error) {
	return i.PurchasePrice.MulInt(i.Quantity)
}

// StudentPurchase is a purchase order aggregate. Its total cost is derived
// from the items and changes only through AddItem, RemoveItem and
// UpdateItemQuantity.
type StudentPurchase struct {
	ID        string
	StudentID string
	ShareID   string
	Status    PurchaseStatus
	CreatedAt time.Time

	items     []StudentPurchaseItem
	totalCost money.Money
}

// NewStudentPurchase starts an empty pending purchase.
func NewStudentPurchase(id, studentID, shareID string, createdAt time.Time) *StudentPurchase {
	return &StudentPurchase{
		ID:        id,
		StudentID: studentID,
		ShareID:   shareID,
		Status:    PurchaseStatusPending,
		CreatedAt: createdAt,
	}
}

// AddItem appends a line and recomputes the total.
func (p *StudentPurchase) AddItem(item StudentPurchaseItem) error {
	if item.Quantity < 0 {
		return ErrNegativeQuantity
	}
	item.StudentPurchaseID = p.ID
	p.items = append(p.items, item)
	if err := p.recompute(); err != nil {
		p.items = p.items[:len(p.items)-1]
		return err
	}
	return nil
}

// RemoveItem drops the line with the given id. It reports whether a line was removed.
func (p *StudentPurchase) RemoveItem(itemID string) bool {
	for i, item := range p.items {
		if item.ID == itemID {
			p.items = append(p.items[:i], p.items[i+1:]...)
			//nolint:errcheck // dropping a line of a total that fit cannot overflow
			p.recompute()
			return true
		}
	}
	return false
}

// UpdateItemQuantity changes the quantity of a line and recomputes the total.
func (p *StudentPurchase) UpdateItemQuantity(itemID string, quantity int64) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	for i := range p.items {
		if p.items[i].ID == itemID {
			previous := p.items[i].Quantity
			p.items[i].Quantity = quantity
			if err := p.recompute(); err != nil {
				p.items[i].Quantity = previous
				return err
			}
			return nil
		}
	}
	return errors.New("purchase item not found")
}

// Items returns a copy of the purchase lines.
func (p *StudentPurchase) Items() []StudentPurchaseItem {
	return append([]StudentPurchaseItem(nil), p.items...)
}

// TotalCost is the sum of every item's TotalPurchasePrice.
func (p *StudentPurchase) TotalCost() money.Money {
	return p.totalCost
}

// recompute leaves the total unchanged when it would overflow.
func (p *StudentPurchase) recompute() error {
	total := money.Zero
	for _, item := range p.items {
		price, err := item.TotalPurchasePrice()
		if err != nil {
			return err
		}
		if total, err = total.CheckedAdd(price); err != nil {
			return err
		}
	}
	p.totalCost = total
	return nil
}

func (p *StudentPurchase) MarshalJSON() ([]byte, error) {
	items := p.items
	if items == nil {
		items = []StudentPurchaseItem{}
	}
	return json.Marshal(struct {
		ID        string                `json:"id"`
		StudentID string                `json:"studentId"`
		ShareID   string                `json:"shareId"`
		Status    PurchaseStatus        `json:"status"`
		CreatedAt time.Time             `json:"createdAt"`
		TotalCost money.Money           `json:"totalCost"`
		Items     []StudentPurchaseItem `json:"items"`
	}{p.ID, p.StudentID, p.ShareID, p.Status, p.CreatedAt, p.totalCost, items})
}
