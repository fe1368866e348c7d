package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/middleware"
	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

type generatorServiceMock struct {
	resp    *dto.GenerateInvoicesResult
	err     error
	lastReq dto.GenerateInvoicesRequest
	called  bool
}

func (m *generatorServiceMock) Generate(ctx context.Context, req dto.GenerateInvoicesRequest) (*dto.GenerateInvoicesResult, error) {
	m.called = true
	m.lastReq = req
	return m.resp, m.err
}

type senderServiceMock struct {
	resp      *dto.SendInvoiceResult
	err       error
	lastID    string
	lastActor *models.JWTClaims
}

func (m *senderServiceMock) Send(ctx context.Context, invoiceID string, actor *models.JWTClaims) (*dto.SendInvoiceResult, error) {
	m.lastID = invoiceID
	m.lastActor = actor
	return m.resp, m.err
}

type invoiceReadServiceMock struct {
	invoice    *models.Invoice
	getErr     error
	list       []models.Invoice
	listErr    error
	lastFilter models.InvoiceFilter
}

func (m *invoiceReadServiceMock) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return m.invoice, m.getErr
}

func (m *invoiceReadServiceMock) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	m.lastFilter = filter
	return m.list, m.listErr
}

func authedContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequest(method, target, bytes.NewBufferString(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, target, nil)
		require.NoError(t, err)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:   "user-9",
		Email:    "finance@stafflink.example",
		AgencyID: "agency-1",
	})
	return c, w
}

func TestInvoiceHandlerGenerate(t *testing.T) {
	generator := &generatorServiceMock{resp: &dto.GenerateInvoicesResult{}}
	handler := NewInvoiceHandler(generator, &senderServiceMock{}, &invoiceReadServiceMock{})

	c, w := authedContext(t, http.MethodPost, "/invoices/generate", `{"auto_mode":true,"client_id":"client-1"}`)
	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, generator.called)
	assert.True(t, generator.lastReq.AutoMode)
	assert.Equal(t, "client-1", generator.lastReq.ClientID)
}

func TestInvoiceHandlerGenerateInvalidBody(t *testing.T) {
	generator := &generatorServiceMock{}
	handler := NewInvoiceHandler(generator, &senderServiceMock{}, &invoiceReadServiceMock{})

	c, w := authedContext(t, http.MethodPost, "/invoices/generate", `{"auto_mode":`)
	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, generator.called)
}

func TestInvoiceHandlerSend(t *testing.T) {
	sender := &senderServiceMock{resp: &dto.SendInvoiceResult{InvoiceID: "inv-1", TimesheetsLocked: 2}}
	handler := NewInvoiceHandler(&generatorServiceMock{}, sender, &invoiceReadServiceMock{})

	c, w := authedContext(t, http.MethodPost, "/invoices/inv-1/send", "")
	c.Params = gin.Params{{Key: "id", Value: "inv-1"}}
	handler.Send(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inv-1", sender.lastID)
	require.NotNil(t, sender.lastActor)
	assert.Equal(t, "user-9", sender.lastActor.UserID)
}

func TestInvoiceHandlerSendRequiresAuth(t *testing.T) {
	sender := &senderServiceMock{}
	handler := NewInvoiceHandler(&generatorServiceMock{}, sender, &invoiceReadServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/invoices/inv-1/send", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "inv-1"}}
	handler.Send(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sender.lastID)
}

func TestInvoiceHandlerSendConflict(t *testing.T) {
	sender := &senderServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "invoice was sent by a concurrent request")}
	handler := NewInvoiceHandler(&generatorServiceMock{}, sender, &invoiceReadServiceMock{})

	c, w := authedContext(t, http.MethodPost, "/invoices/inv-1/send", "")
	c.Params = gin.Params{{Key: "id", Value: "inv-1"}}
	handler.Send(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestInvoiceHandlerListScopesToAgency(t *testing.T) {
	reader := &invoiceReadServiceMock{list: []models.Invoice{{ID: "inv-1"}}}
	handler := NewInvoiceHandler(&generatorServiceMock{}, &senderServiceMock{}, reader)

	c, w := authedContext(t, http.MethodGet, "/invoices?status=draft&period_start=2026-03-01&limit=10", "")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "agency-1", reader.lastFilter.AgencyID)
	assert.Equal(t, models.InvoiceStatusDraft, reader.lastFilter.Status)
	require.NotNil(t, reader.lastFilter.PeriodStart)
	assert.Equal(t, 10, reader.lastFilter.Limit)
}

func TestInvoiceHandlerGetNotFound(t *testing.T) {
	reader := &invoiceReadServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "invoice inv-9 not found")}
	handler := NewInvoiceHandler(&generatorServiceMock{}, &senderServiceMock{}, reader)

	c, w := authedContext(t, http.MethodGet, "/invoices/inv-9", "")
	c.Params = gin.Params{{Key: "id", Value: "inv-9"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
