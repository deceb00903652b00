package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/validation"
)

// DividendHandler handles dividend runs.
type DividendHandler struct {
	dividendService *service.DividendService
	logger          *zap.Logger
}

// NewDividendHandler creates a new DividendHandler.
func NewDividendHandler(dividendService *service.DividendService, logger *zap.Logger) *DividendHandler {
	return &DividendHandler{
		dividendService: dividendService,
		logger:          logger,
	}
}

// PostDividends pays the dividend of a share type to the shares of the given instances.
// An interrupted run answers 500 with the partial result as details; posting
// again with its runId resumes it.
//
// Endpoint: POST /api/share-types/{uuid}/dividends
// Request Body: DividendRequest
// Response: 201 Created with DividendRunResult
// Error: 400 Bad Request if validation fails or the rate is negative
// Error: 404 Not Found if the share type does not exist
func (h *DividendHandler) PostDividends(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.DividendRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateDividend(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.dividendService.PostDividends(r.Context(), model.DividendRequest{
		ShareTypeID: chi.URLParam(r, "uuid"),
		InstanceIDs: req.InstanceIDs,
		RunID:       req.RunID,
	})
	if err != nil {
		if result.RunID != "" && statusFor(err) == http.StatusInternalServerError {
			h.logger.Error("dividend run interrupted", zap.String("runId", result.RunID), zap.Error(err))
			response.RespondError(w, http.StatusInternalServerError, "failed to post dividends", result)
			return
		}
		respondServiceError(w, h.logger, "failed to post dividends", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}
