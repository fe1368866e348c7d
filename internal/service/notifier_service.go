package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/models"
	"github.com/stafflink/finance-api/pkg/jobs"
)

// Mailer delivers rendered notifications to the outbound gateway.
type Mailer interface {
	SendEmail(ctx context.Context, intent dto.EmailIntent) error
}

// InvoicePDFRenderer produces the PDF attachment for an invoice email.
type InvoicePDFRenderer interface {
	Render(invoice *models.Invoice, client *models.Client, agency *models.Agency) ([]byte, error)
}

var invoiceEmailTemplate = template.Must(template.New("invoice_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a2e;">
  <h2>Invoice {{.InvoiceNumber}} from {{.AgencyName}}</h2>
  <p>Dear {{.ClientName}},</p>
  <p>Please find attached invoice <strong>{{.InvoiceNumber}}</strong> covering
  {{.PeriodStart}} to {{.PeriodEnd}}.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td>Subtotal</td><td align="right">{{.Subtotal}}</td></tr>
    <tr><td>VAT ({{.VATRate}}%)</td><td align="right">{{.VATAmount}}</td></tr>
    <tr><td><strong>Total due</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
  </table>
  <p>Payment is due by <strong>{{.DueDate}}</strong>.</p>
  {{if .HasBankDetails}}
  <h3>Payment instructions</h3>
  <p>
    Account name: {{.AccountName}}<br>
    Account number: {{.AccountNumber}}<br>
    Sort code: {{.SortCode}}
  </p>
  {{else}}
  <p>Please contact {{.AgencyName}} for payment details.</p>
  {{end}}
  <p>Kind regards,<br>{{.AgencyName}}</p>
</body>
</html>`))

type invoiceEmailData struct {
	InvoiceNumber  string
	AgencyName     string
	ClientName     string
	PeriodStart    string
	PeriodEnd      string
	Subtotal       string
	VATRate        string
	VATAmount      string
	Total          string
	DueDate        string
	HasBankDetails bool
	AccountName    string
	AccountNumber  string
	SortCode       string
}

// NotifierService renders invoice emails and hands them to the background
// queue. Delivery is fire-and-forget: a gateway failure is retried by the
// queue and then logged, never surfaced to the financial operation that
// produced the intent.
type NotifierService struct {
	mailer Mailer
	pdf    InvoicePDFRenderer
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotifierService wires the renderer and gateway behind a worker queue.
// Call Start before enqueueing and Stop on shutdown.
func NewNotifierService(mailer Mailer, pdf InvoicePDFRenderer, cfg jobs.QueueConfig, logger *zap.Logger) *NotifierService {
	s := &NotifierService{
		mailer: mailer,
		pdf:    pdf,
		logger: logger,
	}
	s.queue = jobs.NewQueue("notifications", s.dispatch, cfg)
	return s
}

// Start launches the dispatch workers.
func (s *NotifierService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotifierService) Stop() {
	s.queue.Stop()
}

// EnqueueInvoiceEmail renders the invoice email and queues it for delivery.
func (s *NotifierService) EnqueueInvoiceEmail(invoice *models.Invoice, client *models.Client, agency *models.Agency, recipient string) error {
	intent, err := s.buildInvoiceEmail(invoice, client, agency, recipient)
	if err != nil {
		return err
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    dto.IntentInvoiceEmail,
		Payload: *intent,
	})
}

func (s *NotifierService) buildInvoiceEmail(invoice *models.Invoice, client *models.Client, agency *models.Agency, recipient string) (*dto.EmailIntent, error) {
	bank := agency.BankDetails
	data := invoiceEmailData{
		InvoiceNumber:  invoice.InvoiceNumber,
		AgencyName:     agency.Name,
		ClientName:     client.Name,
		PeriodStart:    invoice.PeriodStart.Format("2 Jan 2006"),
		PeriodEnd:      invoice.PeriodEnd.Format("2 Jan 2006"),
		Subtotal:       invoice.Subtotal.StringFixed(2),
		VATRate:        invoice.VATRate.String(),
		VATAmount:      invoice.VATAmount.StringFixed(2),
		Total:          invoice.Total.StringFixed(2),
		DueDate:        invoice.DueDate.Format("2 Jan 2006"),
		HasBankDetails: bank.Complete(),
	}
	if data.HasBankDetails {
		data.AccountName = bank.AccountName
		data.AccountNumber = bank.AccountNumber
		data.SortCode = bank.SortCode
	}

	var html bytes.Buffer
	if err := invoiceEmailTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render invoice email: %w", err)
	}

	attachment, err := s.pdf.Render(invoice, client, agency)
	if err != nil {
		return nil, fmt.Errorf("render invoice attachment: %w", err)
	}

	return &dto.EmailIntent{
		Type:           dto.IntentInvoiceEmail,
		To:             recipient,
		FromName:       agency.Name,
		Subject:        fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNumber, agency.Name),
		HTML:           html.String(),
		AttachmentName: fmt.Sprintf("%s.pdf", invoice.InvoiceNumber),
		Attachment:     attachment,
	}, nil
}

func (s *NotifierService) dispatch(ctx context.Context, job jobs.Job) error {
	intent, ok := job.Payload.(dto.EmailIntent)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("type", job.Type))
		return nil
	}
	if err := s.mailer.SendEmail(ctx, intent); err != nil {
		return fmt.Errorf("send %s to %s: %w", intent.Type, intent.To, err)
	}
	s.logger.Info("notification delivered",
		zap.String("type", intent.Type),
		zap.String("to", intent.To))
	return nil
}
