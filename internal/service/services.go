package service

import (
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// Services bundles every service wired against one store.
type Services struct {
	Store      *repository.Store
	Ledger     *LedgerService
	Purchase   *PurchaseService
	Stock      *StockService
	Dividend   *DividendService
	LimitReset *LimitResetService
	Share      *ShareService
	System     *SystemService
}

// NewServices creates the repositories over store and wires the services on top.
func NewServices(store *repository.Store, logger *zap.Logger) *Services {
	shareRepo := repository.NewShareRepository(store)
	shareTypeRepo := repository.NewShareTypeRepository(store)
	transactionRepo := repository.NewTransactionRepository(store)
	productRepo := repository.NewProductRepository(store)
	stockRepo := repository.NewStockRepository(store)
	orgRepo := repository.NewOrganizationRepository(store)

	ledger := NewLedgerService(store, shareRepo, shareTypeRepo, transactionRepo, logger)

	return &Services{
		Store:      store,
		Ledger:     ledger,
		Purchase:   NewPurchaseService(store, ledger, shareRepo, productRepo, logger),
		Stock:      NewStockService(store, ledger, shareRepo, stockRepo, logger),
		Dividend:   NewDividendService(store, ledger, shareRepo, shareTypeRepo, orgRepo, logger),
		LimitReset: NewLimitResetService(store, shareRepo, shareTypeRepo, logger),
		Share:      NewShareService(shareRepo, transactionRepo, stockRepo, orgRepo),
		System:     NewSystemService(store),
	}
}
