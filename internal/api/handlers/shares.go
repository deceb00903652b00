package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/validation"
)

// ShareHandler handles HTTP requests scoped to a single share: reading it,
// posting to it and spending its balance.
type ShareHandler struct {
	shareService    *service.ShareService
	ledgerService   *service.LedgerService
	purchaseService *service.PurchaseService
	stockService    *service.StockService
	logger          *zap.Logger
}

// NewShareHandler creates a new ShareHandler with the provided service dependencies.
func NewShareHandler(
	shareService *service.ShareService,
	ledgerService *service.LedgerService,
	purchaseService *service.PurchaseService,
	stockService *service.StockService,
	logger *zap.Logger,
) *ShareHandler {
	return &ShareHandler{
		shareService:    shareService,
		ledgerService:   ledgerService,
		purchaseService: purchaseService,
		stockService:    stockService,
		logger:          logger,
	}
}

// GetShare handles GET requests to retrieve a share with its student and instance.
//
// Endpoint: GET /api/shares/{uuid}
// Response: 200 OK with ShareWithContext
// Error: 404 Not Found if the share does not exist or is deleted
func (h *ShareHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	share, err := h.shareService.GetShare(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to retrieve share", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, share)
}

// ListTransactions handles GET requests for the ledger of a share, oldest first.
// Failed attempts are included unless includeFailed=false.
//
// Endpoint: GET /api/shares/{uuid}/transactions
// Response: 200 OK with array of Transaction
// Error: 400 Bad Request if includeFailed is not a boolean
// Error: 404 Not Found if the share does not exist
func (h *ShareHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	includeFailed := true
	if raw := r.URL.Query().Get("includeFailed"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid includeFailed parameter", err.Error())
			return
		}
		includeFailed = parsed
	}

	transactions, err := h.shareService.ListTransactions(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to retrieve transactions", err)
		return
	}

	if !includeFailed {
		kept := transactions[:0]
		for _, t := range transactions {
			if !t.Failed {
				kept = append(kept, t)
			}
		}
		transactions = kept
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// PostTransaction handles POST requests that post a signed amount to a share.
//
// Endpoint: POST /api/shares/{uuid}/transactions
// Request Body: PostTransactionRequest
// Response: 201 Created with Transaction
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the share does not exist
// Error: 409 Conflict on nonsufficient funds or an exceeded withdrawal limit
func (h *ShareHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PostTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePostTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.ledgerService.Post(r.Context(), toPostRequest(chi.URLParam(r, "uuid"), req))
	if err != nil {
		respondServiceError(w, h.logger, "failed to post transaction", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// Purchase handles POST requests that buy products with the share balance.
//
// Endpoint: POST /api/shares/{uuid}/purchases
// Request Body: PurchaseRequest
// Response: 201 Created with PurchaseResult
// Error: 400 Bad Request if validation fails or inventory is short
// Error: 409 Conflict on nonsufficient funds or an exceeded withdrawal limit
func (h *ShareHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PurchaseRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePurchase(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	items := make([]model.PurchaseItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = model.PurchaseItemRequest{ProductID: item.ProductID, Count: item.Count}
	}

	result, err := h.purchaseService.Purchase(r.Context(), model.PurchaseRequest{
		ShareID: chi.URLParam(r, "uuid"),
		Items:   items,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to complete purchase", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// TradeStock handles POST requests that buy or sell stock with the share balance.
//
// Endpoint: POST /api/shares/{uuid}/stock-trades
// Request Body: StockTradeRequest
// Response: 201 Created with StockTradeResult
// Error: 400 Bad Request if validation fails or the quantity cannot be served
// Error: 403 Forbidden if the stock is not offered to the share's instance
// Error: 409 Conflict on nonsufficient funds or an exceeded withdrawal limit
func (h *ShareHandler) TradeStock(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.StockTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateStockTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.stockService.PurchaseStock(r.Context(), model.StockTradeRequest{
		ShareID:  chi.URLParam(r, "uuid"),
		StockID:  req.StockID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to trade stock", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// toPostRequest converts a validated body. The effective date was checked by
// validation so a parse failure cannot happen here.
func toPostRequest(shareID string, req request.PostTransactionRequest) model.PostRequest {
	post := model.PostRequest{
		ShareID:             shareID,
		Amount:              req.Amount,
		Comment:             req.Comment,
		Type:                model.TransactionType(req.Type),
		AllowNegative:       req.AllowNegative,
		SkipWithdrawalLimit: req.SkipWithdrawalLimit,
	}
	if req.EffectiveDate != "" {
		if date, err := validation.ParseEffectiveDate(req.EffectiveDate); err == nil {
			post.EffectiveDate = &date
		}
	}
	return post
}
