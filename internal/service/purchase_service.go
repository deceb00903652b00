package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// PurchaseService handles product purchases paid from a share.
type PurchaseService struct {
	store       *repository.Store
	ledger      *LedgerService
	shareRepo   *repository.ShareRepository
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

// NewPurchaseService creates a new PurchaseService with the provided dependencies.
func NewPurchaseService(
	store *repository.Store,
	ledger *LedgerService,
	shareRepo *repository.ShareRepository,
	productRepo *repository.ProductRepository,
	logger *zap.Logger,
) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		store:       store,
		ledger:      ledger,
		shareRepo:   shareRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Purchase buys products with the balance of a share.
//
// The purchase and the inventory it reserves are committed first, then the
// total is debited through the posting engine. When the debit fails the
// inventory is restocked and the purchase removed; if that also fails both
// errors are returned together.
//
// Requested products not offered to the share's instance are ignored. Repeated
// product ids are merged into one line.
func (s *PurchaseService) Purchase(ctx context.Context, req model.PurchaseRequest) (model.PurchaseResult, error) {
	if len(req.Items) == 0 {
		return model.PurchaseResult{}, apperrors.OutOfRange("purchase has no items")
	}

	counts := make(map[string]int64, len(req.Items))
	productIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Count < 1 {
			return model.PurchaseResult{}, apperrors.OutOfRange("count for product %s must be at least 1, got %d", item.ProductID, item.Count)
		}
		total, seen := counts[item.ProductID]
		if !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		if item.Count > math.MaxInt64-total {
			return model.PurchaseResult{}, apperrors.OutOfRange("count for product %s is out of range", item.ProductID)
		}
		counts[item.ProductID] = total + item.Count
	}

	var (
		purchase *model.StudentPurchase
		limited  = make(map[string]bool)
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		share, err := s.shareRepo.GetShareWithContext(ctx, req.ShareID)
		if err != nil {
			return apperrors.Database("load share", err)
		}

		products, err := s.productRepo.GetProductsForInstance(ctx, share.Context.InstanceID, productIDs)
		if err != nil {
			return apperrors.Database("load products", err)
		}
		if len(products) == 0 {
			return apperrors.OutOfRange("none of the requested products are offered to instance %s", share.Context.InstanceID)
		}

		purchase = model.NewStudentPurchase(uuid.New().String(), share.Context.StudentID, share.Share.ID, s.ledger.now())
		for _, product := range products {
			count := counts[product.ID]
			if product.IsLimitedQuantity && count > product.QuantityAvailable {
				return &apperrors.QuantityError{
					Kind:      apperrors.ErrInvalidQuantity,
					ItemID:    product.ID,
					Requested: count,
					Available: product.QuantityAvailable,
				}
			}
			if err := purchase.AddItem(model.StudentPurchaseItem{
				ID:            uuid.New().String(),
				ProductID:     product.ID,
				Quantity:      count,
				PurchasePrice: product.Cost,
			}); err != nil {
				return apperrors.OutOfRange("%v", err)
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		for _, product := range products {
			if !product.IsLimitedQuantity {
				continue
			}
			limited[product.ID] = true
			if err := s.productRepo.AdjustQuantity(ctx, product.ID, -counts[product.ID]); err != nil {
				return apperrors.Database("reserve inventory", err)
			}
		}
		if err := s.productRepo.InsertPurchase(ctx, purchase); err != nil {
			return apperrors.Database("insert purchase", err)
		}
		return nil
	})
	if err != nil {
		return model.PurchaseResult{}, err
	}

	transaction, err := s.ledger.Post(ctx, model.PostRequest{
		ShareID: req.ShareID,
		Amount:  purchase.TotalCost().Neg(),
		Comment: "Purchase " + purchase.ID,
	})
	if err != nil {
		s.logger.Warn("purchase debit failed, compensating",
			zap.String("purchaseId", purchase.ID), zap.String("shareId", req.ShareID), zap.Error(err))

		if compErr := s.compensate(context.WithoutCancel(ctx), purchase, limited); compErr != nil {
			s.logger.Error("purchase compensation failed",
				zap.String("purchaseId", purchase.ID), zap.Error(compErr))
			return model.PurchaseResult{}, apperrors.Aggregate(err, apperrors.Database("compensate purchase", compErr))
		}
		return model.PurchaseResult{}, err
	}

	return model.PurchaseResult{Purchase: purchase, Transaction: transaction}, nil
}

// compensate restocks limited products and removes the purchase in one unit of work.
func (s *PurchaseService) compensate(ctx context.Context, purchase *model.StudentPurchase, limited map[string]bool) error {
	return s.store.Atomic(ctx, func(ctx context.Context) error {
		for _, item := range purchase.Items() {
			if !limited[item.ProductID] {
				continue
			}
			if err := s.productRepo.AdjustQuantity(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.productRepo.DeletePurchase(ctx, purchase.ID)
	})
}
