// Package api wires the HTTP handlers of the ledger onto a chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Classroom-Bank-Backend/internal/api/middleware"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/config"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(svc *service.Services, logger *zap.Logger, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/shares/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.RequireUUIDParam("uuid", "share"))
			shareHandler := handlers.NewShareHandler(svc.Share, svc.Ledger, svc.Purchase, svc.Stock, logger)
			r.Get("/", shareHandler.GetShare)
			r.Get("/transactions", shareHandler.ListTransactions)
			r.Post("/transactions", shareHandler.PostTransaction)
			r.Post("/purchases", shareHandler.Purchase)
			r.Post("/stock-trades", shareHandler.TradeStock)
		})

		r.Route("/students/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.RequireUUIDParam("uuid", "student"))
			studentHandler := handlers.NewStudentHandler(svc.Share, logger)
			r.Get("/holdings", studentHandler.ListHoldings)
		})

		transactionHandler := handlers.NewTransactionHandler(svc.Ledger, logger)
		r.Post("/transactions/batch", transactionHandler.PostBatch)
		r.Post("/transfers", transactionHandler.Transfer)

		r.Route("/share-types/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.RequireUUIDParam("uuid", "share type"))
			dividendHandler := handlers.NewDividendHandler(svc.Dividend, logger)
			r.Post("/dividends", dividendHandler.PostDividends)
		})
	})

	return r
}
