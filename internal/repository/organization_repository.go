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

// OrganizationRepository reads the tenant hierarchy: instances and students.
type OrganizationRepository struct {
	store *Store
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(store *Store) *OrganizationRepository {
	return &OrganizationRepository{store: store}
}

// MissingInstances returns the ids in instanceIDs that match no active instance,
// in request order.
func (r *OrganizationRepository) MissingInstances(ctx context.Context, instanceIDs []string) ([]string, error) {
	if len(instanceIDs) == 0 {
		return nil, nil
	}

	b := r.store.sb.Select("id").From("instance").
		Where(sq.Eq{"id": instanceIDs, "deleted_at": nil})

	rows, err := r.store.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to query instance table: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(instanceIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instance table: %w", err)
	}

	var missing []string
	for _, id := range instanceIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// GetStudent retrieves an active student. Soft-deleted students are not found.
func (r *OrganizationRepository) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	row, err := r.store.queryRow(ctx, r.store.sb.
		Select("id", "group_id", "first_name", "last_name", "account_number").
		From("student").
		Where(sq.Eq{"id": studentID, "deleted_at": nil}))
	if err != nil {
		return model.Student{}, err
	}

	var s model.Student
	err = row.Scan(&s.ID, &s.GroupID, &s.FirstName, &s.LastName, &s.AccountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, apperrors.ErrStudentNotFound
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("failed to scan student: %w", err)
	}
	return s, nil
}
