package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// StockService handles stock trades settled against a share.
type StockService struct {
	store     *repository.Store
	ledger    *LedgerService
	shareRepo *repository.ShareRepository
	stockRepo *repository.StockRepository
	logger    *zap.Logger
}

// NewStockService creates a new StockService with the provided dependencies.
func NewStockService(
	store *repository.Store,
	ledger *LedgerService,
	shareRepo *repository.ShareRepository,
	stockRepo *repository.StockRepository,
	logger *zap.Logger,
) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		store:     store,
		ledger:    ledger,
		shareRepo: shareRepo,
		stockRepo: stockRepo,
		logger:    logger,
	}
}

// PurchaseStock buys (positive quantity) or sells (negative quantity) shares
// of a stock. The cash moves first as a single transaction of
// CurrentValue × quantity × -1; the holding, its history and the stock's
// available shares are updated afterwards in one unit of work. If that unit
// fails, the cash transaction is voided with an opposite correction.
func (s *StockService) PurchaseStock(ctx context.Context, req model.StockTradeRequest) (model.StockTradeResult, error) {
	if req.Quantity == 0 {
		return model.StockTradeResult{}, apperrors.OutOfRange("stock trade quantity must not be zero")
	}

	share, err := s.shareRepo.GetShareWithContext(ctx, req.ShareID)
	if err != nil {
		return model.StockTradeResult{}, apperrors.Database("load share", err)
	}

	stock, err := s.stockRepo.GetStock(ctx, req.StockID)
	if err != nil {
		return model.StockTradeResult{}, apperrors.Database("load stock", err)
	}

	offered, err := s.stockRepo.IsOfferedToInstance(ctx, stock.ID, share.Context.InstanceID)
	if err != nil {
		return model.StockTradeResult{}, apperrors.Database("check stock instance", err)
	}
	if !offered {
		return model.StockTradeResult{}, fmt.Errorf("%w: stock %s is not offered to instance %s",
			apperrors.ErrUnauthorizedPurchase, stock.ID, share.Context.InstanceID)
	}

	holding, _, err := s.stockRepo.GetHolding(ctx, share.Context.StudentID, stock.ID)
	if err != nil {
		return model.StockTradeResult{}, apperrors.Database("load holding", err)
	}
	if err := checkTradeQuantity(stock, holding, req.Quantity); err != nil {
		return model.StockTradeResult{}, err
	}

	cost, err := stock.CurrentValue.MulInt(req.Quantity)
	if err != nil {
		return model.StockTradeResult{}, apperrors.OutOfRange("trade of %d %s: %v", req.Quantity, stock.Symbol, err)
	}
	totalCost := cost.Neg()
	action := "Buy"
	if req.Quantity < 0 {
		action = "Sell"
	}

	transaction, err := s.ledger.Post(ctx, model.PostRequest{
		ShareID: share.Share.ID,
		Amount:  totalCost,
		Comment: fmt.Sprintf("%s %d %s @ %s", action, abs(req.Quantity), stock.Symbol, stock.CurrentValue),
	})
	if err != nil {
		return model.StockTradeResult{}, err
	}

	result := model.StockTradeResult{Transaction: transaction}
	err = s.store.Atomic(ctx, func(ctx context.Context) error {
		// Re-read under lock; the stock and holding may have moved since validation.
		current, err := s.stockRepo.GetStock(ctx, stock.ID)
		if err != nil {
			return apperrors.Database("load stock", err)
		}
		holding, found, err := s.stockRepo.GetHolding(ctx, share.Context.StudentID, stock.ID)
		if err != nil {
			return apperrors.Database("load holding", err)
		}
		if err := checkTradeQuantity(current, holding, req.Quantity); err != nil {
			return err
		}

		now := s.ledger.now()
		if !found {
			holding = model.StudentStock{
				ID:             uuid.New().String(),
				StudentID:      share.Context.StudentID,
				StockID:        stock.ID,
				ShareID:        share.Share.ID,
				DateCreated:    now,
				DateLastActive: now,
			}
			if err := s.stockRepo.InsertHolding(ctx, holding); err != nil {
				return apperrors.Database("insert holding", err)
			}
		}

		history := model.StudentStockHistory{
			ID:             uuid.New().String(),
			StudentStockID: holding.ID,
			TransactionID:  transaction.ID,
			Quantity:       req.Quantity,
			UnitValue:      stock.CurrentValue,
			DateCreated:    now,
		}
		if err := s.stockRepo.InsertHistory(ctx, history); err != nil {
			return apperrors.Database("insert stock history", err)
		}

		holding.SharesOwned += req.Quantity
		if holding.NetContribution, err = holding.NetContribution.CheckedAdd(cost); err != nil {
			return apperrors.OutOfRange("net contribution of holding %s: %v", holding.ID, err)
		}
		holding.DateLastActive = now
		if err := s.stockRepo.UpdateHolding(ctx, holding); err != nil {
			return apperrors.Database("update holding", err)
		}
		if err := s.stockRepo.AdjustAvailableShares(ctx, stock.ID, -req.Quantity); err != nil {
			return apperrors.Database("update available shares", err)
		}

		result.Holding = holding
		result.History = history
		return nil
	})
	if err != nil {
		s.logger.Warn("stock holding update failed, voiding cash transaction",
			zap.String("transactionId", transaction.ID), zap.String("stockId", stock.ID), zap.Error(err))

		if _, voidErr := s.ledger.Post(context.WithoutCancel(ctx), model.PostRequest{
			ShareID:             share.Share.ID,
			Amount:              totalCost.Neg(),
			Comment:             "Void " + transaction.ID,
			Type:                model.TypeCorrection,
			AllowNegative:       true,
			SkipWithdrawalLimit: true,
		}); voidErr != nil {
			s.logger.Error("failed to void stock trade transaction",
				zap.String("transactionId", transaction.ID), zap.Error(voidErr))
			return model.StockTradeResult{}, apperrors.Aggregate(err, voidErr)
		}
		return model.StockTradeResult{}, err
	}

	return result, nil
}

// checkTradeQuantity rejects buying more than is on offer or selling more than is held.
func checkTradeQuantity(stock model.Stock, holding model.StudentStock, quantity int64) error {
	if quantity == math.MinInt64 {
		return apperrors.OutOfRange("stock trade quantity %d is out of range", quantity)
	}
	if quantity > 0 && quantity > stock.AvailableShares {
		return &apperrors.QuantityError{
			Kind:      apperrors.ErrInvalidShareQuantity,
			ItemID:    stock.ID,
			Requested: quantity,
			Available: stock.AvailableShares,
		}
	}
	if quantity < 0 && quantity < -holding.SharesOwned {
		return &apperrors.QuantityError{
			Kind:      apperrors.ErrInvalidShareQuantity,
			ItemID:    stock.ID,
			Requested: quantity,
			Available: holding.SharesOwned,
		}
	}
	return nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
