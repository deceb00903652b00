package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
)

// ShareTypeRepository provides data access for share_type and its instance links.
type ShareTypeRepository struct {
	store *Store
}

// NewShareTypeRepository creates a new ShareTypeRepository.
func NewShareTypeRepository(store *Store) *ShareTypeRepository {
	return &ShareTypeRepository{store: store}
}

func (r *ShareTypeRepository) selectShareTypes() sq.SelectBuilder {
	return r.store.sb.Select(
		"id", "name", "dividend_rate", "withdrawal_limit_count", "withdrawal_limit_period",
		"withdrawal_limit_should_fee", "withdrawal_limit_fee", "withdrawal_limit_last_reset", "deleted_at",
	).From("share_type")
}

func scanShareType(row rowScanner) (model.ShareType, error) {
	var (
		st        model.ShareType
		lastReset string
		deletedAt sql.NullString
	)
	err := row.Scan(
		&st.ID, &st.Name, &st.DividendRate, &st.WithdrawalLimitCount, &st.WithdrawalLimitPeriod,
		&st.WithdrawalLimitShouldFee, &st.WithdrawalLimitFee, &lastReset, &deletedAt,
	)
	if err != nil {
		return model.ShareType{}, err
	}
	if st.WithdrawalLimitLastReset, err = ParseTime(lastReset); err != nil {
		return model.ShareType{}, err
	}
	if st.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return model.ShareType{}, err
	}
	return st, nil
}

// GetShareType retrieves a share type by ID, including soft-deleted ones since
// existing shares keep referencing them.
func (r *ShareTypeRepository) GetShareType(ctx context.Context, shareTypeID string) (model.ShareType, error) {
	row, err := r.store.queryRow(ctx, r.selectShareTypes().Where(sq.Eq{"id": shareTypeID}))
	if err != nil {
		return model.ShareType{}, err
	}

	st, err := scanShareType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShareType{}, apperrors.ErrShareTypeNotFound
	}
	if err != nil {
		return model.ShareType{}, fmt.Errorf("failed to scan share type: %w", err)
	}
	return st, nil
}

// ListLimitedShareTypes returns the active share types with a withdrawal limit.
func (r *ShareTypeRepository) ListLimitedShareTypes(ctx context.Context) ([]model.ShareType, error) {
	b := r.selectShareTypes().
		Where(sq.Eq{"deleted_at": nil}).
		Where(sq.Gt{"withdrawal_limit_count": 0}).
		OrderBy("id")

	rows, err := r.store.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query share_type table: %w", err)
	}
	defer rows.Close()

	shareTypes := []model.ShareType{}
	for rows.Next() {
		st, err := scanShareType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share type: %w", err)
		}
		shareTypes = append(shareTypes, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share_type table: %w", err)
	}
	return shareTypes, nil
}

// MarkLimitReset records the start of a new withdrawal-limit window.
func (r *ShareTypeRepository) MarkLimitReset(ctx context.Context, shareTypeID string, at time.Time) error {
	b := r.store.sb.Update("share_type").
		Set("withdrawal_limit_last_reset", FormatTime(at)).
		Where(sq.Eq{"id": shareTypeID})

	if err := r.store.execOne(ctx, b, apperrors.ErrShareTypeNotFound); err != nil {
		return fmt.Errorf("failed to mark withdrawal limit reset: %w", err)
	}
	return nil
}
