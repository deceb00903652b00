package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
)

// ProductRepository provides data access for product, product_instance and
// the student_purchase tables.
type ProductRepository struct {
	store *Store
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

// GetProductsForInstance returns the active products among productIDs that
// are offered to instanceID. Ids that match nothing are left out.
func (r *ProductRepository) GetProductsForInstance(ctx context.Context, instanceID string, productIDs []string) ([]model.Product, error) {
	if len(productIDs) == 0 {
		return []model.Product{}, nil
	}

	b := r.store.sb.Select("p.id", "p.name", "p.cost", "p.is_limited_quantity", "p.quantity_available").
		From("product p").
		Join("product_instance pi ON pi.product_id = p.id").
		Where(sq.Eq{"pi.instance_id": instanceID, "p.id": productIDs, "p.deleted_at": nil}).
		OrderBy("p.id")

	rows, err := r.store.query(ctx, r.store.lockRows(ctx, b, "p"))
	if err != nil {
		return nil, fmt.Errorf("failed to query product table: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Cost, &p.IsLimitedQuantity, &p.QuantityAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product table: %w", err)
	}
	return products, nil
}

// GetProductQuantity returns the remaining inventory of a product.
func (r *ProductRepository) GetProductQuantity(ctx context.Context, productID string) (int64, error) {
	row, err := r.store.queryRow(ctx, r.store.sb.Select("quantity_available").From("product").Where(sq.Eq{"id": productID}))
	if err != nil {
		return 0, err
	}
	var qty int64
	if err := row.Scan(&qty); err != nil {
		return 0, fmt.Errorf("failed to scan product quantity: %w", err)
	}
	return qty, nil
}

// AdjustQuantity adds delta to a product's available inventory.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, productID string, delta int64) error {
	b := r.store.sb.Update("product").
		Set("quantity_available", sq.Expr("quantity_available + ?", delta)).
		Where(sq.Eq{"id": productID})

	if err := r.store.execOne(ctx, b, fmt.Errorf("product %s not found", productID)); err != nil {
		return fmt.Errorf("failed to adjust product quantity: %w", err)
	}
	return nil
}

// InsertPurchase persists the purchase header and its items.
func (r *ProductRepository) InsertPurchase(ctx context.Context, p *model.StudentPurchase) error {
	header := r.store.sb.Insert("student_purchase").
		Columns("id", "student_id", "share_id", "status", "total_cost", "created_at").
		Values(p.ID, p.StudentID, p.ShareID, string(p.Status), p.TotalCost(), FormatTime(p.CreatedAt))
	if _, err := r.store.exec(ctx, header); err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	items := p.Items()
	if len(items) == 0 {
		return nil
	}

	b := r.store.sb.Insert("student_purchase_item").
		Columns("id", "student_purchase_id", "product_id", "quantity", "purchase_price")
	for _, item := range items {
		b = b.Values(item.ID, p.ID, item.ProductID, item.Quantity, item.PurchasePrice)
	}
	if _, err := r.store.exec(ctx, b); err != nil {
		return fmt.Errorf("failed to insert purchase items: %w", err)
	}
	return nil
}

// DeletePurchase removes a purchase and its items. It is only used to
// compensate a purchase whose debit failed.
func (r *ProductRepository) DeletePurchase(ctx context.Context, purchaseID string) error {
	if _, err := r.store.exec(ctx, r.store.sb.Delete("student_purchase_item").Where(sq.Eq{"student_purchase_id": purchaseID})); err != nil {
		return fmt.Errorf("failed to delete purchase items: %w", err)
	}
	if _, err := r.store.exec(ctx, r.store.sb.Delete("student_purchase").Where(sq.Eq{"id": purchaseID})); err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	return nil
}

// GetPurchase loads a purchase aggregate with its items. The second return
// value is false when no such purchase exists.
func (r *ProductRepository) GetPurchase(ctx context.Context, purchaseID string) (*model.StudentPurchase, bool, error) {
	row, err := r.store.queryRow(ctx, r.store.sb.
		Select("id", "student_id", "share_id", "status", "created_at").
		From("student_purchase").
		Where(sq.Eq{"id": purchaseID}))
	if err != nil {
		return nil, false, err
	}

	var id, studentID, shareID, status, createdAt string
	err = row.Scan(&id, &studentID, &shareID, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan purchase: %w", err)
	}

	created, err := ParseTime(createdAt)
	if err != nil {
		return nil, false, err
	}
	purchase := model.NewStudentPurchase(id, studentID, shareID, created)
	purchase.Status = model.PurchaseStatus(status)

	rows, err := r.store.query(ctx, r.store.sb.
		Select("id", "product_id", "quantity", "purchase_price").
		From("student_purchase_item").
		Where(sq.Eq{"student_purchase_id": purchaseID}).
		OrderBy("id"))
	if err != nil {
		return nil, false, fmt.Errorf("failed to query purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.StudentPurchaseItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.PurchasePrice); err != nil {
			return nil, false, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		if err := purchase.AddItem(item); err != nil {
			return nil, false, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating purchase items: %w", err)
	}
	return purchase, true, nil
}
