package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// LimitResetService starts new withdrawal-limit windows once their period elapsed.
type LimitResetService struct {
	store         *repository.Store
	shareRepo     *repository.ShareRepository
	shareTypeRepo *repository.ShareTypeRepository
	logger        *zap.Logger
}

// NewLimitResetService creates a new LimitResetService with the provided dependencies.
func NewLimitResetService(
	store *repository.Store,
	shareRepo *repository.ShareRepository,
	shareTypeRepo *repository.ShareTypeRepository,
	logger *zap.Logger,
) *LimitResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LimitResetService{
		store:         store,
		shareRepo:     shareRepo,
		shareTypeRepo: shareTypeRepo,
		logger:        logger,
	}
}

// ResetExpired zeroes the withdrawal counts of every share type whose window
// ended at or before now, and returns the ids of the share types reset.
// Each share type is reset in its own unit of work.
func (s *LimitResetService) ResetExpired(ctx context.Context, now time.Time) ([]string, error) {
	shareTypes, err := s.shareTypeRepo.ListLimitedShareTypes(ctx)
	if err != nil {
		return nil, apperrors.Database("list share types", err)
	}

	reset := []string{}
	for _, st := range shareTypes {
		if now.Before(st.WithdrawalLimitPeriod.NextReset(st.WithdrawalLimitLastReset)) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return reset, err
		}

		var shares int64
		err := s.store.Atomic(ctx, func(ctx context.Context) error {
			var err error
			if shares, err = s.shareRepo.ResetWithdrawalCounts(ctx, st.ID); err != nil {
				return err
			}
			return s.shareTypeRepo.MarkLimitReset(ctx, st.ID, now)
		})
		if err != nil {
			return reset, apperrors.Database("reset withdrawal limit", err)
		}

		s.logger.Info("withdrawal limit window reset",
			zap.String("shareTypeId", st.ID), zap.String("period", string(st.WithdrawalLimitPeriod)), zap.Int64("shares", shares))
		reset = append(reset, st.ID)
	}
	return reset, nil
}
