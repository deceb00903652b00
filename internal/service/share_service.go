package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// ShareService is the read side of shares, their ledger and the stock
// holdings of their students.
type ShareService struct {
	shareRepo       *repository.ShareRepository
	transactionRepo *repository.TransactionRepository
	stockRepo       *repository.StockRepository
	orgRepo         *repository.OrganizationRepository
}

// NewShareService creates a new ShareService with the provided repository dependencies.
func NewShareService(
	shareRepo *repository.ShareRepository,
	transactionRepo *repository.TransactionRepository,
	stockRepo *repository.StockRepository,
	orgRepo *repository.OrganizationRepository,
) *ShareService {
	return &ShareService{
		shareRepo:       shareRepo,
		transactionRepo: transactionRepo,
		stockRepo:       stockRepo,
		orgRepo:         orgRepo,
	}
}

// GetShare retrieves a share with its share type and owning instance.
func (s *ShareService) GetShare(ctx context.Context, shareID string) (model.ShareWithContext, error) {
	share, err := s.shareRepo.GetShareWithContext(ctx, shareID)
	if err != nil {
		return model.ShareWithContext{}, apperrors.Database("load share", err)
	}
	return share, nil
}

// ListTransactions returns the ledger of a share in posting order, failed attempts included.
func (s *ShareService) ListTransactions(ctx context.Context, shareID string) ([]model.Transaction, error) {
	if _, err := s.shareRepo.GetShare(ctx, shareID); err != nil {
		return nil, apperrors.Database("load share", err)
	}
	transactions, err := s.transactionRepo.ListByShare(ctx, shareID)
	if err != nil {
		return nil, apperrors.Database("list transactions", err)
	}
	return transactions, nil
}

// VerifyBalance checks that the cached balance of a share equals the
// NewBalance of its latest applied transaction (zero for an empty ledger).
func (s *ShareService) VerifyBalance(ctx context.Context, shareID string) error {
	share, err := s.shareRepo.GetShare(ctx, shareID)
	if err != nil {
		return apperrors.Database("load share", err)
	}

	expected := money.Zero
	latest, err := s.transactionRepo.GetLatest(ctx, shareID)
	switch {
	case err == nil:
		expected = latest.NewBalance
	case !errors.Is(err, apperrors.ErrTransactionNotFound):
		return apperrors.Database("load latest transaction", err)
	}

	if !share.Balance.Equal(expected) {
		return fmt.Errorf("share %s balance %s does not match ledger balance %s", shareID, share.Balance, expected)
	}
	return nil
}

// ListHoldings returns the stock holdings of an active student, sold-out
// holdings included. A missing or soft-deleted student is ErrStudentNotFound.
func (s *ShareService) ListHoldings(ctx context.Context, studentID string) ([]model.StudentStock, error) {
	if _, err := s.orgRepo.GetStudent(ctx, studentID); err != nil {
		return nil, apperrors.Database("load student", err)
	}
	holdings, err := s.stockRepo.ListHoldings(ctx, studentID)
	if err != nil {
		return nil, apperrors.Database("list holdings", err)
	}
	return holdings, nil
}
