package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
	"github.com/stafflink/finance-api/pkg/response"
)

type generatorService interface {
	Generate(ctx context.Context, req dto.GenerateInvoicesRequest) (*dto.GenerateInvoicesResult, error)
}

type senderService interface {
	Send(ctx context.Context, invoiceID string, actor *models.JWTClaims) (*dto.SendInvoiceResult, error)
}

type invoiceReadService interface {
	Get(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
}

// InvoiceHandler exposes invoice generation, sending and the read surface.
type InvoiceHandler struct {
	generator generatorService
	sender    senderService
	invoices  invoiceReadService
}

// NewInvoiceHandler constructs the handler.
func NewInvoiceHandler(generator generatorService, sender senderService, invoices invoiceReadService) *InvoiceHandler {
	return &InvoiceHandler{generator: generator, sender: sender, invoices: invoices}
}

// Generate godoc
// @Summary Generate draft invoices from approved timesheets
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body dto.GenerateInvoicesRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Router /invoices/generate [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req dto.GenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid generation payload"))
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Send godoc
// @Summary Send a draft invoice and lock its timesheets
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.sender.Send(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param client_id query string false "Client filter"
// @Param status query string false "Status filter"
// @Param period_start query string false "Period start (YYYY-MM-DD)"
// @Param period_end query string false "Period end (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.InvoiceFilter{
		AgencyID: claims.AgencyID,
		ClientID: c.Query("client_id"),
		Status:   models.InvoiceStatus(c.Query("status")),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}
	if start, ok := queryDate(c, "period_start"); ok {
		filter.PeriodStart = &start
	}
	if end, ok := queryDate(c, "period_end"); ok {
		filter.PeriodEnd = &end
	}

	invoices, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, nil)
}

// Get godoc
// @Summary Fetch one invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

func queryDate(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
