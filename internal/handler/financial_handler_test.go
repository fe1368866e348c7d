package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stafflink/finance-api/internal/dto"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

type validatorServiceMock struct {
	preInvoiceResp *dto.PreInvoiceResult
	preInvoiceErr  error
	editResp       *dto.EditValidationResult
	editErr        error
	driftResp      *dto.DriftResult
	driftErr       error

	preInvoiceIDs  []string
	editEntityType string
	editEntityID   string
	driftInvoiceID string
}

func (m *validatorServiceMock) PreInvoice(ctx context.Context, timesheetIDs []string) (*dto.PreInvoiceResult, error) {
	m.preInvoiceIDs = timesheetIDs
	return m.preInvoiceResp, m.preInvoiceErr
}

func (m *validatorServiceMock) ValidateEdit(ctx context.Context, entityType, entityID string, proposedChanges map[string]interface{}) (*dto.EditValidationResult, error) {
	m.editEntityType = entityType
	m.editEntityID = entityID
	return m.editResp, m.editErr
}

func (m *validatorServiceMock) DetectDrift(ctx context.Context, invoiceID string) (*dto.DriftResult, error) {
	m.driftInvoiceID = invoiceID
	return m.driftResp, m.driftErr
}

func postValidate(t *testing.T, handler *FinancialHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/financial/validate", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler.Validate(c)
	return w
}

func TestFinancialHandlerPreInvoice(t *testing.T) {
	mockSvc := &validatorServiceMock{
		preInvoiceResp: &dto.PreInvoiceResult{
			Success:          true,
			ValidationPassed: true,
			Recommendation:   dto.RecommendationProceed,
		},
	}
	handler := NewFinancialHandler(mockSvc)

	w := postValidate(t, handler, `{"operation_type":"pre_invoice","timesheet_ids":["ts-1","ts-2"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ts-1", "ts-2"}, mockSvc.preInvoiceIDs)

	var envelope struct {
		Data dto.PreInvoiceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, dto.RecommendationProceed, envelope.Data.Recommendation)
}

func TestFinancialHandlerEditValidation(t *testing.T) {
	mockSvc := &validatorServiceMock{
		editResp: &dto.EditValidationResult{
			Allowed:        false,
			Reason:         dto.ReasonLockViolation,
			ActionRequired: dto.ActionCreateAmendment,
		},
	}
	handler := NewFinancialHandler(mockSvc)

	w := postValidate(t, handler, `{"operation_type":"edit_validation","entity_type":"timesheet","entity_id":"ts-1","proposed_changes":{"charge_rate":40}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "timesheet", mockSvc.editEntityType)
	assert.Equal(t, "ts-1", mockSvc.editEntityID)

	var envelope struct {
		Data dto.EditValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Allowed)
	assert.Equal(t, dto.ReasonLockViolation, envelope.Data.Reason)
}

func TestFinancialHandlerDetectDrift(t *testing.T) {
	mockSvc := &validatorServiceMock{
		driftResp: &dto.DriftResult{HasDrift: false, Recommendation: dto.RecommendationNoActionNeeded},
	}
	handler := NewFinancialHandler(mockSvc)

	w := postValidate(t, handler, `{"operation_type":"detect_drift","invoice_id":"inv-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inv-1", mockSvc.driftInvoiceID)
}

func TestFinancialHandlerDetectDriftRequiresInvoiceID(t *testing.T) {
	mockSvc := &validatorServiceMock{}
	handler := NewFinancialHandler(mockSvc)

	w := postValidate(t, handler, `{"operation_type":"detect_drift"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.driftInvoiceID)
}

func TestFinancialHandlerUnknownOperation(t *testing.T) {
	handler := NewFinancialHandler(&validatorServiceMock{})

	w := postValidate(t, handler, `{"operation_type":"reconcile"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinancialHandlerInvalidBody(t *testing.T) {
	handler := NewFinancialHandler(&validatorServiceMock{})

	w := postValidate(t, handler, `{"operation_type":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinancialHandlerServiceErrorPassesThrough(t *testing.T) {
	mockSvc := &validatorServiceMock{
		driftErr: appErrors.Clone(appErrors.ErrNotFound, "invoice inv-9 not found"),
	}
	handler := NewFinancialHandler(mockSvc)

	w := postValidate(t, handler, `{"operation_type":"detect_drift","invoice_id":"inv-9"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}
