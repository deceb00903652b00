package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// FeeComment is the comment written on withdrawal-limit fee transactions.
const FeeComment = "Withdrawal limit fee"

// ErrAttemptsInsideUnitOfWork is returned by RecordFailedAttempts when called
// before the caller's unit of work has ended.
var ErrAttemptsInsideUnitOfWork = errors.New("failed attempts must be recorded outside a unit of work")

// LedgerService is the posting engine. It is the only writer of share
// balances: every balance change goes through apply together with the ledger
// row that explains it.
type LedgerService struct {
	store           *repository.Store
	shareRepo       *repository.ShareRepository
	shareTypeRepo   *repository.ShareTypeRepository
	transactionRepo *repository.TransactionRepository
	clock           *postingClock
	logger          *zap.Logger
}

// NewLedgerService creates a new LedgerService with the provided repository dependencies.
func NewLedgerService(
	store *repository.Store,
	shareRepo *repository.ShareRepository,
	shareTypeRepo *repository.ShareTypeRepository,
	transactionRepo *repository.TransactionRepository,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		store:           store,
		shareRepo:       shareRepo,
		shareTypeRepo:   shareTypeRepo,
		transactionRepo: transactionRepo,
		clock:           newPostingClock(nil),
		logger:          logger,
	}
}

// Post applies a single amount to a share and returns the ledger record.
// When the withdrawal-limit policy charges a fee, the fee is posted as a
// second F transaction after the returned one.
//
// A denied debit returns *apperrors.NonsufficientFundsError; the failed attempt
// is still written to the ledger in its own unit of work. Called inside an
// enclosing Store.Atomic, Post cannot outlive that unit's rollback, so the
// attempt is only carried on the error's Attempt field and the caller must
// record it with RecordFailedAttempts once its unit has ended.
func (s *LedgerService) Post(ctx context.Context, req model.PostRequest) (model.Transaction, error) {
	var posted model.Transaction
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		posted, err = s.post(ctx, req)
		return err
	})
	if err != nil {
		return model.Transaction{}, s.failWithAttempts(ctx, err)
	}
	return posted, nil
}

// PostBatch posts every request in order inside one unit of work.
//
// A nonsufficient-funds denial rolls back the whole batch when stopOnException
// is set; otherwise the failed attempt takes the request's place in the result
// and the batch continues. Any other error rolls back the whole batch.
// enforceWithdrawalLimit=false skips the withdrawal-limit policy for every item.
//
// Failed attempts are recorded after the batch commits, as with Post. A
// committed batch is never reported as failed because its audit write failed;
// that failure is logged.
func (s *LedgerService) PostBatch(ctx context.Context, reqs []model.PostRequest, stopOnException, enforceWithdrawalLimit bool) ([]model.Transaction, error) {
	var (
		results  []model.Transaction
		attempts []model.Transaction
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		results = make([]model.Transaction, 0, len(reqs))
		attempts = nil

		for i, req := range reqs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !enforceWithdrawalLimit {
				req.SkipWithdrawalLimit = true
			}

			t, err := s.post(ctx, req)
			var nsf *apperrors.NonsufficientFundsError
			if !stopOnException && errors.As(err, &nsf) && nsf.Attempt != nil {
				s.logger.Info("batch item denied, continuing",
					zap.Int("index", i), zap.String("shareId", req.ShareID), zap.Error(err))
				attempts = append(attempts, *nsf.Attempt)
				results = append(results, *nsf.Attempt)
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, t)
		}
		return nil
	})
	if err != nil {
		return nil, s.failWithAttempts(ctx, err, attempts...)
	}
	if err := s.RecordFailedAttempts(ctx, attempts...); err != nil {
		s.logger.Warn("batch committed without its failed-attempt records",
			zap.Int("attempts", len(attempts)), zap.Error(err))
	}
	return results, nil
}

// Transfer moves an amount between two shares of the same instance, writing
// one T transaction on each side inside a single unit of work.
func (s *LedgerService) Transfer(ctx context.Context, req model.TransferRequest) (model.TransferResult, error) {
	if !req.Amount.IsPositive() {
		return model.TransferResult{}, apperrors.OutOfRange("transfer amount must be positive, got %s", req.Amount)
	}
	if req.SourceShareID == req.DestinationShareID {
		return model.TransferResult{}, apperrors.OutOfRange("cannot transfer share %s to itself", req.SourceShareID)
	}
	if n := utf8.RuneCountInString(req.Comment); n > model.MaxTransferCommentLength {
		return model.TransferResult{}, apperrors.OutOfRange("transfer comment must be at most %d characters, got %d", model.MaxTransferCommentLength, n)
	}

	var result model.TransferResult
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		// Lock both shares in id order.
		ids := []string{req.SourceShareID, req.DestinationShareID}
		sort.Strings(ids)
		loaded := make(map[string]model.ShareWithContext, 2)
		for _, id := range ids {
			share, err := s.shareRepo.GetShareWithContext(ctx, id)
			if err != nil {
				return apperrors.Database("load transfer share", err)
			}
			loaded[id] = share
		}

		source, dest := loaded[req.SourceShareID], loaded[req.DestinationShareID]
		if source.Context.InstanceID != dest.Context.InstanceID {
			return apperrors.OutOfRange("shares %s and %s belong to different instances", source.Share.ID, dest.Share.ID)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		result.Source, err = s.post(ctx, model.PostRequest{
			ShareID:             source.Share.ID,
			Amount:              req.Amount.Neg(),
			Comment:             transferComment(model.TransferToPrefix, dest.Share.ID, req.Comment),
			Type:                model.TypeTransfer,
			AllowNegative:       req.AllowNegative,
			SkipWithdrawalLimit: req.SkipWithdrawalLimit,
		})
		if err != nil {
			return err
		}

		result.Destination, err = s.post(ctx, model.PostRequest{
			ShareID:             dest.Share.ID,
			Amount:              req.Amount,
			Comment:             transferComment(model.TransferFromPrefix, source.Share.ID, req.Comment),
			Type:                model.TypeTransfer,
			SkipWithdrawalLimit: true,
		})
		return err
	})
	if err != nil {
		return model.TransferResult{}, s.failWithAttempts(ctx, err)
	}
	return result, nil
}

func transferComment(prefix, shareID, comment string) string {
	base := fmt.Sprintf("%s %s", prefix, shareID)
	if comment == "" {
		return base
	}
	return base + ": " + comment
}

// post runs the posting steps inside the caller's unit of work.
func (s *LedgerService) post(ctx context.Context, req model.PostRequest) (model.Transaction, error) {
	txType := req.Type
	if txType == "" {
		txType = model.ResolveTransactionType(req.Amount)
	}
	if !txType.Valid() {
		return model.Transaction{}, apperrors.OutOfRange("unknown transaction type %q", txType)
	}
	if n := utf8.RuneCountInString(req.Comment); n > model.MaxCommentLength {
		return model.Transaction{}, apperrors.OutOfRange("comment must be at most %d characters, got %d", model.MaxCommentLength, n)
	}

	share, err := s.shareRepo.GetShare(ctx, req.ShareID)
	if err != nil {
		return model.Transaction{}, apperrors.Database("load share", err)
	}

	var decision WithdrawalDecision
	if isLimitedWithdrawal(txType, req.Amount) && !req.SkipWithdrawalLimit {
		shareType, err := s.shareTypeRepo.GetShareType(ctx, share.ShareTypeID)
		if err != nil {
			return model.Transaction{}, apperrors.Database("load share type", err)
		}
		if decision, err = EvaluateWithdrawal(share, shareType); err != nil {
			return model.Transaction{}, err
		}
	}

	newBalance, err := share.Balance.CheckedAdd(req.Amount)
	if err != nil {
		return model.Transaction{}, apperrors.OutOfRange("posting to share %s: %v", share.ID, err)
	}

	now := s.clock.Now()
	t := model.Transaction{
		ID:            uuid.New().String(),
		TargetShareID: share.ID,
		Type:          txType,
		Amount:        req.Amount,
		NewBalance:    newBalance,
		Comment:       req.Comment,
		EffectiveDate: now,
		PostedAt:      now,
	}
	if req.EffectiveDate != nil {
		t.EffectiveDate = req.EffectiveDate.UTC()
	}

	// A fee charged by the policy must be covered too.
	required := t.NewBalance
	if decision.ChargeFee {
		if required, err = required.CheckedAdd(decision.Fee.Neg()); err != nil {
			return model.Transaction{}, apperrors.OutOfRange("withdrawal fee on share %s: %v", share.ID, err)
		}
	}
	if req.Amount.IsNegative() && !req.AllowNegative && required.IsNegative() {
		attempt := t
		attempt.Failed = true
		attempt.NewBalance = share.Balance
		return model.Transaction{}, &apperrors.NonsufficientFundsError{
			ShareID: share.ID,
			Amount:  req.Amount,
			Balance: share.Balance,
			Attempt: &attempt,
		}
	}

	if decision.CountWithdrawal {
		share.LimitedWithdrawalCount++
	}
	if err := s.apply(ctx, &share, t); err != nil {
		return model.Transaction{}, err
	}

	if decision.ChargeFee && !decision.Fee.IsZero() {
		if _, err := s.post(ctx, model.PostRequest{
			ShareID:             share.ID,
			Amount:              decision.Fee.Neg(),
			Comment:             FeeComment,
			Type:                model.TypeFee,
			AllowNegative:       req.AllowNegative,
			SkipWithdrawalLimit: true,
		}); err != nil {
			return model.Transaction{}, err
		}
	}

	return t, nil
}

// apply is the single write path for share balances: it stores the new
// projection of share and appends the ledger row t that produced it.
func (s *LedgerService) apply(ctx context.Context, share *model.Share, t model.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	share.Balance = t.NewBalance
	lastActive := t.PostedAt
	share.DateLastActive = &lastActive

	if err := s.shareRepo.UpdateBalance(ctx, *share); err != nil {
		return apperrors.Database("update share balance", err)
	}
	if err := s.transactionRepo.Insert(ctx, t); err != nil {
		return apperrors.Database("insert transaction", err)
	}
	return nil
}

// RecordFailedAttempts writes failed-attempt records in a unit of work of
// their own so the audit trail survives the rollback of the posting that
// produced them. It returns ErrAttemptsInsideUnitOfWork when ctx still
// carries a unit of work, since the records would be rolled back with it.
func (s *LedgerService) RecordFailedAttempts(ctx context.Context, attempts ...model.Transaction) error {
	if len(attempts) == 0 {
		return nil
	}
	if repository.InTx(ctx) {
		return ErrAttemptsInsideUnitOfWork
	}

	err := s.store.Atomic(context.WithoutCancel(ctx), func(ctx context.Context) error {
		for _, attempt := range attempts {
			if err := s.transactionRepo.Insert(ctx, attempt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to record failed transaction attempts",
			zap.Int("attempts", len(attempts)), zap.Error(err))
		return apperrors.Database("record failed attempt", err)
	}
	return nil
}

// failWithAttempts records the attempt carried by err, plus any collected by a
// batch, and returns err joined with any failure to record them. Inside an
// enclosing unit of work err is returned unchanged and the attempt stays on it.
func (s *LedgerService) failWithAttempts(ctx context.Context, err error, attempts ...model.Transaction) error {
	if repository.InTx(ctx) {
		return err
	}
	var nsf *apperrors.NonsufficientFundsError
	if errors.As(err, &nsf) && nsf.Attempt != nil {
		attempts = append(attempts, *nsf.Attempt)
	}
	if auditErr := s.RecordFailedAttempts(ctx, attempts...); auditErr != nil {
		return apperrors.Aggregate(err, auditErr)
	}
	return err
}

// now returns the next posting timestamp.
func (s *LedgerService) now() time.Time {
	return s.clock.Now()
}
