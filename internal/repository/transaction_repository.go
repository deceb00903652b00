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

// TransactionRepository provides access to the append-only ledger.
// Rows are inserted and read, never updated or deleted.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) selectTransactions() sq.SelectBuilder {
	return r.store.sb.Select(
		"id", "target_share_id", "transaction_type", "amount", "new_balance", "comment",
		"effective_date", "posted_at", "is_failed", "dividend_run_id",
	).From("ledger_transaction")
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		t             model.Transaction
		txType        string
		effectiveDate string
		postedAt      string
		runID         sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.TargetShareID, &txType, &t.Amount, &t.NewBalance, &t.Comment,
		&effectiveDate, &postedAt, &t.Failed, &runID,
	)
	if err != nil {
		return model.Transaction{}, err
	}
	t.Type = model.TransactionType(txType)
	t.DividendRunID = runID.String
	if t.EffectiveDate, err = ParseTime(effectiveDate); err != nil {
		return model.Transaction{}, err
	}
	if t.PostedAt, err = ParseTime(postedAt); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// Insert appends a transaction to the ledger.
func (r *TransactionRepository) Insert(ctx context.Context, t model.Transaction) error {
	runID := sql.NullString{String: t.DividendRunID, Valid: t.DividendRunID != ""}
	b := r.store.sb.Insert("ledger_transaction").
		Columns(
			"id", "target_share_id", "transaction_type", "amount", "new_balance", "comment",
			"effective_date", "posted_at", "is_failed", "dividend_run_id",
		).
		Values(
			t.ID, t.TargetShareID, string(t.Type), t.Amount, t.NewBalance, t.Comment,
			FormatTime(t.EffectiveDate), FormatTime(t.PostedAt), t.Failed, runID,
		)

	if _, err := r.store.exec(ctx, b); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetLatest returns the most recent applied (not failed) transaction of a share.
func (r *TransactionRepository) GetLatest(ctx context.Context, shareID string) (model.Transaction, error) {
	b := r.selectTransactions().
		Where(sq.Eq{"target_share_id": shareID, "is_failed": false}).
		OrderBy("posted_at DESC", "id DESC").
		Limit(1)

	row, err := r.store.queryRow(ctx, b)
	if err != nil {
		return model.Transaction{}, err
	}

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return t, nil
}

// ListByShare returns the ledger of a share in posting order, failed attempts included.
func (r *TransactionRepository) ListByShare(ctx context.Context, shareID string) ([]model.Transaction, error) {
	b := r.selectTransactions().
		Where(sq.Eq{"target_share_id": shareID}).
		OrderBy("posted_at", "id")

	rows, err := r.store.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}
	return transactions, nil
}
