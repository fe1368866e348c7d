package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stafflink/finance-api/internal/dto"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
	"github.com/stafflink/finance-api/pkg/response"
)

type validatorService interface {
	PreInvoice(ctx context.Context, timesheetIDs []string) (*dto.PreInvoiceResult, error)
	ValidateEdit(ctx context.Context, entityType, entityID string, proposedChanges map[string]interface{}) (*dto.EditValidationResult, error)
	DetectDrift(ctx context.Context, invoiceID string) (*dto.DriftResult, error)
}

// FinancialHandler exposes the consistency validator behind a single
// mode-dispatched endpoint.
type FinancialHandler struct {
	service validatorService
}

// NewFinancialHandler constructs the handler.
func NewFinancialHandler(service validatorService) *FinancialHandler {
	return &FinancialHandler{service: service}
}

// Validate godoc
// @Summary Run a financial consistency check
// @Description Dispatches on operation_type: pre_invoice, edit_validation or detect_drift
// @Tags Financial
// @Accept json
// @Produce json
// @Param payload body dto.ValidateRequest true "Validation request"
// @Success 200 {object} response.Envelope
// @Router /financial/validate [post]
func (h *FinancialHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid validation payload"))
		return
	}

	ctx := c.Request.Context()
	switch req.OperationType {
	case dto.OperationPreInvoice:
		result, err := h.service.PreInvoice(ctx, req.TimesheetIDs)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)

	case dto.OperationEditValidation:
		result, err := h.service.ValidateEdit(ctx, req.EntityType, req.EntityID, req.ProposedChanges)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)

	case dto.OperationDetectDrift:
		if req.InvoiceID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invoice_id is required for detect_drift"))
			return
		}
		result, err := h.service.DetectDrift(ctx, req.InvoiceID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)

	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unknown operation_type %q", req.OperationType)))
	}
}
