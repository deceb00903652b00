package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
)

// StudentHandler handles HTTP requests scoped to a student rather than one of their shares.
type StudentHandler struct {
	shareService *service.ShareService
	logger       *zap.Logger
}

// NewStudentHandler creates a new StudentHandler with the provided service dependencies.
func NewStudentHandler(shareService *service.ShareService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// ListHoldings handles GET requests for the stock holdings of a student.
//
// Endpoint: GET /api/students/{uuid}/holdings
// Response: 200 OK with array of StudentStock
// Error: 404 Not Found if the student does not exist or is deleted
func (h *StudentHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.shareService.ListHoldings(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to retrieve holdings", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}
