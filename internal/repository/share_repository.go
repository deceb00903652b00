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

// ShareRepository provides data access for the share table.
// Balance columns are written through UpdateBalance only.
type ShareRepository struct {
	store *Store
}

// NewShareRepository creates a new ShareRepository.
func NewShareRepository(store *Store) *ShareRepository {
	return &ShareRepository{store: store}
}

var shareColumns = []string{
	"s.id", "s.student_id", "s.share_type_id", "s.balance", "s.dividend_last_amount", "s.total_dividends",
	"s.limited_withdrawal_count", "s.date_last_active", "s.created_at", "s.deleted_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShare(row rowScanner, extra ...any) (model.Share, error) {
	var (
		s          model.Share
		lastActive sql.NullString
		createdAt  string
		deletedAt  sql.NullString
	)
	dest := append([]any{
		&s.ID, &s.StudentID, &s.ShareTypeID, &s.Balance, &s.DividendLastAmount, &s.TotalDividends,
		&s.LimitedWithdrawalCount, &lastActive, &createdAt, &deletedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Share{}, err
	}

	var err error
	if s.DateLastActive, err = parseNullTime(lastActive); err != nil {
		return model.Share{}, err
	}
	if s.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.Share{}, err
	}
	if s.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return model.Share{}, err
	}
	return s, nil
}

// activeShares selects shares whose owning student is not soft-deleted.
func (r *ShareRepository) activeShares(columns ...string) sq.SelectBuilder {
	return r.store.sb.Select(columns...).
		From("share s").
		Join("student st ON st.id = s.student_id").
		Join("student_group g ON g.id = st.group_id").
		Where(sq.Eq{"s.deleted_at": nil, "st.deleted_at": nil})
}

// GetShare loads a share for update. Returns apperrors.ErrShareNotFound when the
// share is missing, soft-deleted, or belongs to a soft-deleted student.
func (r *ShareRepository) GetShare(ctx context.Context, shareID string) (model.Share, error) {
	b := r.store.lockRows(ctx, r.activeShares(shareColumns...).Where(sq.Eq{"s.id": shareID}), "s")
	row, err := r.store.queryRow(ctx, b)
	if err != nil {
		return model.Share{}, err
	}

	share, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Share{}, apperrors.ErrShareNotFound
	}
	if err != nil {
		return model.Share{}, fmt.Errorf("failed to scan share: %w", err)
	}
	return share, nil
}

// GetShareWithContext loads a share together with its share type and the
// student, group and instance that own it.
func (r *ShareRepository) GetShareWithContext(ctx context.Context, shareID string) (model.ShareWithContext, error) {
	columns := append(append([]string{}, shareColumns...), "st.id", "g.id", "g.instance_id")
	b := r.store.lockRows(ctx, r.activeShares(columns...).Where(sq.Eq{"s.id": shareID}), "s")
	row, err := r.store.queryRow(ctx, b)
	if err != nil {
		return model.ShareWithContext{}, err
	}

	var sc model.ShareContext
	share, err := scanShare(row, &sc.StudentID, &sc.GroupID, &sc.InstanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShareWithContext{}, apperrors.ErrShareNotFound
	}
	if err != nil {
		return model.ShareWithContext{}, fmt.Errorf("failed to scan share: %w", err)
	}

	shareType, err := NewShareTypeRepository(r.store).GetShareType(ctx, share.ShareTypeID)
	if err != nil {
		return model.ShareWithContext{}, err
	}

	return model.ShareWithContext{Share: share, ShareType: shareType, Context: sc}, nil
}

// UpdateBalance persists the ledger projection of a share: balance, dividend
// totals, withdrawal count and last activity.
func (r *ShareRepository) UpdateBalance(ctx context.Context, share model.Share) error {
	b := r.store.sb.Update("share").
		Set("balance", share.Balance).
		Set("dividend_last_amount", share.DividendLastAmount).
		Set("total_dividends", share.TotalDividends).
		Set("limited_withdrawal_count", share.LimitedWithdrawalCount).
		Set("date_last_active", formatNullTime(share.DateLastActive)).
		Where(sq.Eq{"id": share.ID})

	if err := r.store.execOne(ctx, b, apperrors.ErrShareNotFound); err != nil {
		return fmt.Errorf("failed to update share balance: %w", err)
	}
	return nil
}

// ListDividendPage returns up to limit shares of shareTypeID in instanceID with
// a positive balance that have no dividend transaction stamped with runID yet.
// Shares are ordered by id; afterID continues from the last share of the
// previous page.
func (r *ShareRepository) ListDividendPage(ctx context.Context, shareTypeID, instanceID, runID, afterID string, limit uint64) ([]model.Share, error) {
	b := r.activeShares(shareColumns...).
		Where(sq.Eq{"s.share_type_id": shareTypeID, "g.instance_id": instanceID}).
		Where(sq.Gt{"s.balance": 0}).
		Where(sq.Expr("NOT EXISTS (SELECT 1 FROM ledger_transaction lt WHERE lt.target_share_id = s.id AND lt.dividend_run_id = ?)", runID)).
		OrderBy("s.id").
		Limit(limit)
	if afterID != "" {
		b = b.Where(sq.Gt{"s.id": afterID})
	}

	rows, err := r.store.query(ctx, r.store.lockRows(ctx, b, "s"))
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend shares: %w", err)
	}
	defer rows.Close()

	shares := []model.Share{}
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share table: %w", err)
	}
	return shares, nil
}

// ResetWithdrawalCounts zeroes the withdrawal count of every share of shareTypeID
// and returns the number of shares touched.
func (r *ShareRepository) ResetWithdrawalCounts(ctx context.Context, shareTypeID string) (int64, error) {
	b := r.store.sb.Update("share").
		Set("limited_withdrawal_count", 0).
		Where(sq.Eq{"share_type_id": shareTypeID}).
		Where(sq.Gt{"limited_withdrawal_count": 0})

	res, err := r.store.exec(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("failed to reset withdrawal counts: %w", err)
	}
	return res.RowsAffected()
}
