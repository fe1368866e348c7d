package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/models"
	"github.com/stafflink/finance-api/pkg/jobs"
)

type mailerMock struct {
	sent []dto.EmailIntent
	err  error
}

func (m *mailerMock) SendEmail(ctx context.Context, intent dto.EmailIntent) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, intent)
	return nil
}

type pdfRendererMock struct {
	payload []byte
	err     error
}

func (m *pdfRendererMock) Render(invoice *models.Invoice, client *models.Client, agency *models.Agency) ([]byte, error) {
	return m.payload, m.err
}

func notifierFixtures() (*models.Invoice, *models.Client, *models.Agency) {
	invoice := &models.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "INV-2603-0001",
		PeriodStart:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Subtotal:      decimal.NewFromInt(630),
		VATRate:       decimal.NewFromInt(20),
		VATAmount:     decimal.NewFromInt(126),
		Total:         decimal.NewFromInt(756),
	}
	client := &models.Client{ID: "client-1", Name: "Sunrise Care Home"}
	agency := &models.Agency{
		ID:   "agency-1",
		Name: "StaffLink Medical",
		BankDetails: &models.BankDetails{
			AccountName:   "StaffLink Medical Ltd",
			AccountNumber: "12345678",
			SortCode:      "04-00-04",
		},
	}
	return invoice, client, agency
}

func newNotifier(mailer Mailer, renderer InvoicePDFRenderer) *NotifierService {
	return NewNotifierService(mailer, renderer, jobs.QueueConfig{
		Workers: 1,
		Logger:  zap.NewNop(),
	}, zap.NewNop())
}

func TestBuildInvoiceEmailRendersDetails(t *testing.T) {
	invoice, client, agency := notifierFixtures()
	s := newNotifier(&mailerMock{}, &pdfRendererMock{payload: []byte("%PDF-1.4")})

	intent, err := s.buildInvoiceEmail(invoice, client, agency, "billing@sunrise.example")
	require.NoError(t, err)

	assert.Equal(t, dto.IntentInvoiceEmail, intent.Type)
	assert.Equal(t, "billing@sunrise.example", intent.To)
	assert.Equal(t, "Invoice INV-2603-0001 from StaffLink Medical", intent.Subject)
	assert.Equal(t, "INV-2603-0001.pdf", intent.AttachmentName)
	assert.Equal(t, []byte("%PDF-1.4"), intent.Attachment)

	assert.Contains(t, intent.HTML, "Sunrise Care Home")
	assert.Contains(t, intent.HTML, "756.00")
	assert.Contains(t, intent.HTML, "3 Apr 2026")
	assert.Contains(t, intent.HTML, "12345678")
	assert.Contains(t, intent.HTML, "04-00-04")
}

func TestBuildInvoiceEmailWithoutBankDetails(t *testing.T) {
	invoice, client, agency := notifierFixtures()
	agency.BankDetails = nil
	s := newNotifier(&mailerMock{}, &pdfRendererMock{payload: []byte("pdf")})

	intent, err := s.buildInvoiceEmail(invoice, client, agency, "billing@sunrise.example")
	require.NoError(t, err)

	assert.Contains(t, intent.HTML, "Please contact StaffLink Medical for payment details.")
	assert.NotContains(t, intent.HTML, "Account number")
}

func TestBuildInvoiceEmailPDFFailure(t *testing.T) {
	invoice, client, agency := notifierFixtures()
	s := newNotifier(&mailerMock{}, &pdfRendererMock{err: assert.AnError})

	_, err := s.buildInvoiceEmail(invoice, client, agency, "billing@sunrise.example")
	require.Error(t, err)
}

func TestDispatchDeliversEmail(t *testing.T) {
	mailer := &mailerMock{}
	s := newNotifier(mailer, &pdfRendererMock{payload: []byte("pdf")})

	intent := dto.EmailIntent{Type: dto.IntentInvoiceEmail, To: "billing@sunrise.example"}
	err := s.dispatch(context.Background(), jobs.Job{Type: dto.IntentInvoiceEmail, Payload: intent})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "billing@sunrise.example", mailer.sent[0].To)
}

func TestDispatchPropagatesGatewayError(t *testing.T) {
	mailer := &mailerMock{err: assert.AnError}
	s := newNotifier(mailer, &pdfRendererMock{})

	intent := dto.EmailIntent{Type: dto.IntentInvoiceEmail, To: "billing@sunrise.example"}
	err := s.dispatch(context.Background(), jobs.Job{Type: dto.IntentInvoiceEmail, Payload: intent})
	require.Error(t, err)
}
