package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/validation"
)

// TransactionHandler handles HTTP requests that post to more than one share.
type TransactionHandler struct {
	ledgerService *service.LedgerService
	logger        *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(ledgerService *service.LedgerService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// BatchResponse lists the transactions a batch produced, failed attempts included.
type BatchResponse struct {
	Transactions []model.Transaction `json:"transactions"`
}

// PostBatch handles POST requests that post several items in one unit of work.
// stopOnException and enforceWithdrawalLimit default to true.
//
// Endpoint: POST /api/transactions/batch
// Request Body: PostBatchRequest
// Response: 201 Created with BatchResponse
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if any share does not exist (nothing is posted)
// Error: 409 Conflict when stopping on a denied debit (nothing is posted)
func (h *TransactionHandler) PostBatch(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PostBatchRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePostBatch(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	posts := make([]model.PostRequest, len(req.Items))
	for i, item := range req.Items {
		posts[i] = toPostRequest(item.ShareID, item.PostTransactionRequest)
	}

	transactions, err := h.ledgerService.PostBatch(r.Context(), posts,
		boolOrDefault(req.StopOnException, true),
		boolOrDefault(req.EnforceWithdrawalLimit, true))
	if err != nil {
		respondServiceError(w, h.logger, "failed to post batch", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, BatchResponse{Transactions: transactions})
}

// Transfer handles POST requests that move money between two shares of one instance.
//
// Endpoint: POST /api/transfers
// Request Body: TransferRequest
// Response: 201 Created with TransferResult
// Error: 400 Bad Request if validation fails or the shares are in different instances
// Error: 404 Not Found if either share does not exist
// Error: 409 Conflict on nonsufficient funds or an exceeded withdrawal limit
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TransferRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateTransfer(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.ledgerService.Transfer(r.Context(), model.TransferRequest{
		SourceShareID:      req.SourceShareID,
		DestinationShareID: req.DestinationShareID,
		Amount:             req.Amount,
		Comment:            req.Comment,
		AllowNegative:      req.AllowNegative,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to transfer", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
