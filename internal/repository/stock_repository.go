package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
)

// StockRepository provides data access for stock, stock_instance and the
// student holdings with their history.
type StockRepository struct {
	store *Store
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

// GetStock retrieves an active stock by ID.
func (r *StockRepository) GetStock(ctx context.Context, stockID string) (model.Stock, error) {
	b := r.store.sb.Select("id", "symbol", "name", "current_value", "available_shares").
		From("stock").
		Where(sq.Eq{"id": stockID, "deleted_at": nil})

	row, err := r.store.queryRow(ctx, r.store.lockRows(ctx, b, ""))
	if err != nil {
		return model.Stock{}, err
	}

	var s model.Stock
	err = row.Scan(&s.ID, &s.Symbol, &s.Name, &s.CurrentValue, &s.AvailableShares)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Stock{}, apperrors.ErrStockNotFound
	}
	if err != nil {
		return model.Stock{}, fmt.Errorf("failed to scan stock: %w", err)
	}
	return s, nil
}

// IsOfferedToInstance reports whether a stock is linked to an instance.
func (r *StockRepository) IsOfferedToInstance(ctx context.Context, stockID, instanceID string) (bool, error) {
	b := r.store.sb.Select("COUNT(*)").
		From("stock_instance").
		Where(sq.Eq{"stock_id": stockID, "instance_id": instanceID})

	row, err := r.store.queryRow(ctx, b)
	if err != nil {
		return false, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("failed to scan stock link: %w", err)
	}
	return n > 0, nil
}

// AdjustAvailableShares adds delta to the shares of a stock still on offer.
func (r *StockRepository) AdjustAvailableShares(ctx context.Context, stockID string, delta int64) error {
	b := r.store.sb.Update("stock").
		Set("available_shares", sq.Expr("available_shares + ?", delta)).
		Where(sq.Eq{"id": stockID})

	if err := r.store.execOne(ctx, b, apperrors.ErrStockNotFound); err != nil {
		return fmt.Errorf("failed to adjust available shares: %w", err)
	}
	return nil
}

// GetHolding retrieves a student's holding of a stock. The second return
// value is false when the student never bought the stock.
func (r *StockRepository) GetHolding(ctx context.Context, studentID, stockID string) (model.StudentStock, bool, error) {
	b := r.store.sb.Select(holdingColumns...).
		From("student_stock").
		Where(sq.Eq{"student_id": studentID, "stock_id": stockID})

	row, err := r.store.queryRow(ctx, r.store.lockRows(ctx, b, ""))
	if err != nil {
		return model.StudentStock{}, false, err
	}

	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StudentStock{}, false, nil
	}
	if err != nil {
		return model.StudentStock{}, false, err
	}
	return h, true, nil
}

// ListHoldings returns every holding of a student ordered by stock id.
func (r *StockRepository) ListHoldings(ctx context.Context, studentID string) ([]model.StudentStock, error) {
	rows, err := r.store.query(ctx, r.store.sb.Select(holdingColumns...).
		From("student_stock").
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("stock_id"))
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []model.StudentStock{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

var holdingColumns = []string{
	"id", "student_id", "stock_id", "share_id", "shares_owned", "net_contribution", "date_created", "date_last_active",
}

// scanHolding returns sql.ErrNoRows unwrapped so GetHolding can report a missing holding.
func scanHolding(row rowScanner) (model.StudentStock, error) {
	var (
		h                       model.StudentStock
		dateCreated, lastActive string
	)
	err := row.Scan(&h.ID, &h.StudentID, &h.StockID, &h.ShareID, &h.SharesOwned, &h.NetContribution, &dateCreated, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StudentStock{}, err
	}
	if err != nil {
		return model.StudentStock{}, fmt.Errorf("failed to scan holding: %w", err)
	}
	if h.DateCreated, err = ParseTime(dateCreated); err != nil {
		return model.StudentStock{}, err
	}
	if h.DateLastActive, err = ParseTime(lastActive); err != nil {
		return model.StudentStock{}, err
	}
	return h, nil
}

// InsertHolding creates a new holding row.
func (r *StockRepository) InsertHolding(ctx context.Context, h model.StudentStock) error {
	b := r.store.sb.Insert("student_stock").
		Columns("id", "student_id", "stock_id", "share_id", "shares_owned", "net_contribution", "date_created", "date_last_active").
		Values(h.ID, h.StudentID, h.StockID, h.ShareID, h.SharesOwned, h.NetContribution, FormatTime(h.DateCreated), FormatTime(h.DateLastActive))

	if _, err := r.store.exec(ctx, b); err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateHolding persists the share count and net contribution of a holding.
func (r *StockRepository) UpdateHolding(ctx context.Context, h model.StudentStock) error {
	b := r.store.sb.Update("student_stock").
		Set("shares_owned", h.SharesOwned).
		Set("net_contribution", h.NetContribution).
		Set("date_last_active", FormatTime(h.DateLastActive)).
		Where(sq.Eq{"id": h.ID})

	if err := r.store.execOne(ctx, b, fmt.Errorf("holding %s not found", h.ID)); err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

// InsertHistory appends a trade to a holding's history.
func (r *StockRepository) InsertHistory(ctx context.Context, h model.StudentStockHistory) error {
	b := r.store.sb.Insert("student_stock_history").
		Columns("id", "student_stock_id", "transaction_id", "quantity", "unit_value", "date_created").
		Values(h.ID, h.StudentStockID, h.TransactionID, h.Quantity, h.UnitValue, FormatTime(h.DateCreated))

	if _, err := r.store.exec(ctx, b); err != nil {
		return fmt.Errorf("failed to insert stock history: %w", err)
	}
	return nil
}

// ListHistory returns the trades of a holding, oldest first.
func (r *StockRepository) ListHistory(ctx context.Context, holdingID string) ([]model.StudentStockHistory, error) {
	b := r.store.sb.Select("id", "student_stock_id", "transaction_id", "quantity", "unit_value", "date_created").
		From("student_stock_history").
		Where(sq.Eq{"student_stock_id": holdingID}).
		OrderBy("date_created", "id")

	rows, err := r.store.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock history: %w", err)
	}
	defer rows.Close()

	history := []model.StudentStockHistory{}
	for rows.Next() {
		var (
			h       model.StudentStockHistory
			created string
		)
		if err := rows.Scan(&h.ID, &h.StudentStockID, &h.TransactionID, &h.Quantity, &h.UnitValue, &created); err != nil {
			return nil, fmt.Errorf("failed to scan stock history: %w", err)
		}
		if h.DateCreated, err = ParseTime(created); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock history: %w", err)
	}
	return history, nil
}
