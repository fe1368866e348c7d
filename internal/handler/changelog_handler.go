package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
	"github.com/stafflink/finance-api/pkg/response"
)

type changeLogService interface {
	List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error)
}

// ChangeLogHandler exposes the audit trail.
type ChangeLogHandler struct {
	service changeLogService
}

// NewChangeLogHandler constructs the handler.
func NewChangeLogHandler(service changeLogService) *ChangeLogHandler {
	return &ChangeLogHandler{service: service}
}

// List godoc
// @Summary List audit trail entries
// @Tags ChangeLogs
// @Produce json
// @Param entity_type query string false "Entity type filter"
// @Param entity_id query string false "Entity id filter"
// @Param risk_level query string false "Risk level filter"
// @Success 200 {object} response.Envelope
// @Router /change-logs [get]
func (h *ChangeLogHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ChangeLogFilter{
		AgencyID:   claims.AgencyID,
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		RiskLevel:  models.RiskLevel(c.Query("risk_level")),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
