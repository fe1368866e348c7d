package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
	"github.com/stafflink/finance-api/pkg/response"
)

type workflowService interface {
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.AdminWorkflow, error)
}

// WorkflowHandler exposes the admin workflow queue.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(service workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

// List godoc
// @Summary List admin workflows
// @Tags Workflows
// @Produce json
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param type query string false "Type filter"
// @Success 200 {object} response.Envelope
// @Router /workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.WorkflowFilter{
		AgencyID: claims.AgencyID,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Type:     c.Query("type"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}

	workflows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workflows, nil)
}
