package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// DividendPageSize is the number of shares paid per committed page.
const DividendPageSize = 100

// DividendService posts dividends of a share type to every eligible share.
type DividendService struct {
	store         *repository.Store
	ledger        *LedgerService
	shareRepo     *repository.ShareRepository
	shareTypeRepo *repository.ShareTypeRepository
	orgRepo       *repository.OrganizationRepository
	logger        *zap.Logger
}

// NewDividendService creates a new DividendService with the provided dependencies.
func NewDividendService(
	store *repository.Store,
	ledger *LedgerService,
	shareRepo *repository.ShareRepository,
	shareTypeRepo *repository.ShareTypeRepository,
	orgRepo *repository.OrganizationRepository,
	logger *zap.Logger,
) *DividendService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DividendService{
		store:         store,
		ledger:        ledger,
		shareRepo:     shareRepo,
		shareTypeRepo: shareTypeRepo,
		orgRepo:       orgRepo,
		logger:        logger,
	}
}

// PostDividends pays Balance × DividendRate as a V transaction to every
// active share of the share type with a positive balance in the requested
// instances.
//
// Shares are paid in pages of DividendPageSize, each committed on its own.
// Every dividend transaction carries the run id, and shares already paid in
// the run are skipped, so a run that failed part way can be resumed by
// calling again with the RunID from the returned result. On failure the
// result describes what was committed before the error.
func (s *DividendService) PostDividends(ctx context.Context, req model.DividendRequest) (model.DividendRunResult, error) {
	shareType, err := s.shareTypeRepo.GetShareType(ctx, req.ShareTypeID)
	if err != nil {
		return model.DividendRunResult{}, apperrors.Database("load share type", err)
	}
	rate := shareType.DividendRate
	if rate.IsZero() || rate.IsNegative() {
		return model.DividendRunResult{}, apperrors.OutOfRange("share type %s has dividend rate %s", shareType.ID, rate)
	}

	instanceIDs := uniqueStrings(req.InstanceIDs)
	if len(instanceIDs) == 0 {
		return model.DividendRunResult{}, apperrors.OutOfRange("no instances requested")
	}
	missing, err := s.orgRepo.MissingInstances(ctx, instanceIDs)
	if err != nil {
		return model.DividendRunResult{}, apperrors.Database("check instances", err)
	}
	if len(missing) > 0 {
		return model.DividendRunResult{}, apperrors.OutOfRange("unknown instances %v", missing)
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	} else if _, err := uuid.Parse(runID); err != nil {
		return model.DividendRunResult{}, apperrors.OutOfRange("invalid run id %q", runID)
	}

	result := model.DividendRunResult{RunID: runID, TotalPaid: money.Zero}
	log := s.logger.With(zap.String("runId", runID), zap.String("shareTypeId", shareType.ID))

	for _, instanceID := range instanceIDs {
		afterID := ""
		for {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			var (
				shares []model.Share
				paid   = money.Zero
				count  int
			)
			err := s.store.Atomic(ctx, func(ctx context.Context) error {
				var err error
				shares, err = s.shareRepo.ListDividendPage(ctx, shareType.ID, instanceID, runID, afterID, DividendPageSize)
				if err != nil {
					return err
				}

				paid, count = money.Zero, 0
				for i := range shares {
					dividend := shares[i].Balance.MulRate(rate)
					if !dividend.IsPositive() {
						continue
					}
					if err := s.payDividend(ctx, &shares[i], dividend, rate, runID); err != nil {
						return err
					}
					paid = paid.Add(dividend)
					count++
				}
				return nil
			})
			if err != nil {
				log.Error("dividend page failed",
					zap.String("instanceId", instanceID), zap.Int("pagesCommitted", result.PagesCommitted), zap.Error(err))
				return result, apperrors.Database("post dividend page", err)
			}
			if len(shares) == 0 {
				break
			}

			result.PagesCommitted++
			result.SharesPaid += count
			result.TotalPaid = result.TotalPaid.Add(paid)
			afterID = shares[len(shares)-1].ID

			log.Debug("dividend page committed",
				zap.String("instanceId", instanceID), zap.Int("shares", count), zap.Stringer("paid", paid))

			if len(shares) < DividendPageSize {
				break
			}
		}
	}

	log.Info("dividend run complete",
		zap.Int("sharesPaid", result.SharesPaid), zap.Stringer("totalPaid", result.TotalPaid))
	return result, nil
}

func (s *DividendService) payDividend(ctx context.Context, share *model.Share, dividend money.Money, rate money.Rate, runID string) error {
	newBalance, err := share.Balance.CheckedAdd(dividend)
	if err != nil {
		return apperrors.OutOfRange("dividend on share %s: %v", share.ID, err)
	}
	totalDividends, err := share.TotalDividends.CheckedAdd(dividend)
	if err != nil {
		return apperrors.OutOfRange("dividend total of share %s: %v", share.ID, err)
	}

	now := s.ledger.now()
	t := model.Transaction{
		ID:            uuid.New().String(),
		TargetShareID: share.ID,
		Type:          model.TypeDividend,
		Amount:        dividend,
		NewBalance:    newBalance,
		Comment:       fmt.Sprintf("Dividend at %s", rate),
		EffectiveDate: now,
		PostedAt:      now,
		DividendRunID: runID,
	}

	share.DividendLastAmount = dividend
	share.TotalDividends = totalDividends
	return s.ledger.apply(ctx, share, t)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
