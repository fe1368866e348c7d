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
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

type senderFixture struct {
	invoices   *mockInvoiceStore
	timesheets *mockTimesheetStore
	clients    *mockClientStore
	agencies   *mockAgencyStore
	changeLogs *mockChangeLogStore
	notifier   *mockNotifier
	service    *SenderService
}

func newSenderFixture() *senderFixture {
	f := &senderFixture{
		invoices:   &mockInvoiceStore{invoices: map[string]*models.Invoice{}},
		timesheets: &mockTimesheetStore{timesheets: map[string]*models.Timesheet{}},
		clients:    &mockClientStore{clients: map[string]*models.Client{}},
		agencies:   &mockAgencyStore{agencies: map[string]*models.Agency{}},
		changeLogs: &mockChangeLogStore{},
		notifier:   &mockNotifier{},
	}
	f.service = NewSenderService(
		f.invoices, f.timesheets, f.clients, f.agencies,
		f.changeLogs, f.notifier, nil, nil, zap.NewNop())
	f.service.now = func() time.Time {
		return time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC)
	}

	f.agencies.agencies["agency-1"] = &models.Agency{
		ID:           "agency-1",
		Name:         "StaffLink Medical",
		ContactEmail: "accounts@stafflink.example",
		BankDetails: &models.BankDetails{
			AccountName:   "StaffLink Medical Ltd",
			AccountNumber: "12345678",
			SortCode:      "04-00-04",
		},
	}
	f.clients.clients["client-1"] = &models.Client{
		ID:           "client-1",
		AgencyID:     "agency-1",
		Name:         "Sunrise Care Home",
		BillingEmail: strPtr("billing@sunrise.example"),
	}
	return f
}

func (f *senderFixture) addDraft(invoiceID string, timesheetIDs ...string) *models.Invoice {
	items := make(models.LineItems, 0, len(timesheetIDs))
	total := decimal.Zero
	for _, id := range timesheetIDs {
		ts := &models.Timesheet{
			ID:                 id,
			AgencyID:           "agency-1",
			ClientID:           "client-1",
			StaffName:          "Amara Okafor",
			TotalHours:         decimal.NewFromInt(12),
			PayRate:            decimal.NewFromFloat(24.50),
			ChargeRate:         decimal.NewFromFloat(32.50),
			StaffPayAmount:     decimal.NewFromInt(294),
			ClientChargeAmount: decimal.NewFromInt(390),
			WorkLocation:       strPtr("Willow Ward"),
			Status:             models.TimesheetStatusApproved,
			InvoiceID:          &invoiceID,
		}
		f.timesheets.timesheets[id] = ts
		items = append(items, models.LineItem{
			TimesheetID: id,
			Description: "Amara Okafor - Registered Nurse",
			Hours:       ts.TotalHours,
			Rate:        ts.ChargeRate,
			Amount:      ts.ClientChargeAmount,
		})
		total = total.Add(ts.ClientChargeAmount)
	}

	vat := total.Mul(decimal.NewFromInt(20)).Div(decimal.NewFromInt(100))
	invoice := &models.Invoice{
		ID:            invoiceID,
		AgencyID:      "agency-1",
		ClientID:      "client-1",
		InvoiceNumber: "INV-2603-0001",
		Status:        models.InvoiceStatusDraft,
		LineItems:     items,
		Subtotal:      total,
		VATRate:       decimal.NewFromInt(20),
		VATAmount:     vat,
		Total:         total.Add(vat),
		BalanceDue:    total.Add(vat),
	}
	f.invoices.invoices[invoiceID] = invoice
	return invoice
}

func testActor() *models.JWTClaims {
	return &models.JWTClaims{
		UserID:   "user-9",
		Email:    "finance@stafflink.example",
		AgencyID: "agency-1",
	}
}

func TestSendLocksTimesheetsAndFreezesInvoice(t *testing.T) {
	f := newSenderFixture()
	f.addDraft("inv-1", "ts-1", "ts-2")

	result, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.NoError(t, err)

	assert.Equal(t, "inv-1", result.InvoiceID)
	assert.Equal(t, "billing@sunrise.example", result.SentTo)
	assert.Equal(t, 2, result.TimesheetsLocked)

	sentAt := time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, sentAt, result.SentAt)

	for _, id := range []string{"ts-1", "ts-2"} {
		ts := f.timesheets.timesheets[id]
		assert.True(t, ts.FinancialLocked)
		assert.Equal(t, models.TimesheetStatusInvoiced, ts.Status)
		assert.Equal(t, "user-9", *ts.FinancialLockedBy)
		require.NotNil(t, ts.FinancialSnapshot)
		assert.True(t, ts.FinancialSnapshot.TotalHours.Equal(decimal.NewFromInt(12)))
		assert.True(t, ts.FinancialSnapshot.ChargeRate.Equal(decimal.NewFromFloat(32.50)))
		assert.Equal(t, "Willow Ward", *ts.FinancialSnapshot.WorkLocation)
		assert.Equal(t, sentAt, ts.FinancialSnapshot.LockedAt)
	}

	invoice := f.invoices.invoices["inv-1"]
	assert.Equal(t, models.InvoiceStatusSent, invoice.Status)
	require.NotNil(t, invoice.SentAt)
	require.NotNil(t, invoice.SentSnapshot)
	assert.Equal(t, "INV-2603-0001", invoice.SentSnapshot.InvoiceNumber)
	assert.Equal(t, "billing@sunrise.example", invoice.SentSnapshot.RecipientEmail)
	assert.Equal(t, "Sunrise Care Home", invoice.SentSnapshot.ClientName)
	assert.Equal(t, "StaffLink Medical", invoice.SentSnapshot.AgencyName)
	assert.Equal(t, invoice.LineItems, invoice.SentSnapshot.LineItems)

	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, "billing@sunrise.example", f.notifier.emails[0].recipient)

	lockEntries := f.changeLogs.byType(models.ChangeTypeTimesheetLock)
	require.Len(t, lockEntries, 2)
	for _, entry := range lockEntries {
		assert.Equal(t, models.RiskLevelHigh, entry.RiskLevel)
		assert.Equal(t, "approved", entry.OldValue)
		assert.Equal(t, "invoiced_and_locked", entry.NewValue)
		assert.Equal(t, "user-9", entry.ChangedBy)
	}

	transitions := f.changeLogs.byType(models.ChangeTypeInvoiceTransition)
	require.Len(t, transitions, 1)
	assert.Equal(t, "draft", transitions[0].OldValue)
	assert.Equal(t, "sent", transitions[0].NewValue)
	assert.Equal(t, models.RiskLevelMedium, transitions[0].RiskLevel)
}

func TestSendRejectsNonDraft(t *testing.T) {
	f := newSenderFixture()
	invoice := f.addDraft("inv-1", "ts-1")
	invoice.Status = models.InvoiceStatusSent

	_, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInvoiceStatus.Code, appErrors.FromError(err).Code)

	// Nothing was touched.
	assert.False(t, f.timesheets.timesheets["ts-1"].FinancialLocked)
	assert.Empty(t, f.notifier.emails)
	assert.Empty(t, f.changeLogs.entries)
}

func TestSendUnknownInvoice(t *testing.T) {
	f := newSenderFixture()

	_, err := f.service.Send(context.Background(), "inv-missing", testActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSendFallsBackToContactEmail(t *testing.T) {
	f := newSenderFixture()
	f.addDraft("inv-1", "ts-1")
	client := f.clients.clients["client-1"]
	client.BillingEmail = nil
	client.ContactEmail = strPtr("manager@sunrise.example")

	result, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.NoError(t, err)
	assert.Equal(t, "manager@sunrise.example", result.SentTo)
}

func TestSendRequiresSomeEmail(t *testing.T) {
	f := newSenderFixture()
	f.addDraft("inv-1", "ts-1")
	f.clients.clients["client-1"].BillingEmail = nil

	_, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingBillingEmail.Code, appErrors.FromError(err).Code)
	assert.False(t, f.timesheets.timesheets["ts-1"].FinancialLocked)
}

func TestSendSkipsAlreadyLockedTimesheet(t *testing.T) {
	f := newSenderFixture()
	f.addDraft("inv-1", "ts-1", "ts-2")
	earlier := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	locked := f.timesheets.timesheets["ts-1"]
	locked.FinancialLocked = true
	locked.FinancialLockedAt = &earlier
	locked.FinancialLockedBy = strPtr("user-2")

	result, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TimesheetsLocked)
	// The earlier lock is untouched.
	assert.Equal(t, "user-2", *f.timesheets.timesheets["ts-1"].FinancialLockedBy)
	assert.True(t, earlier.Equal(*f.timesheets.timesheets["ts-1"].FinancialLockedAt))
	assert.Len(t, f.changeLogs.byType(models.ChangeTypeTimesheetLock), 1)
}

// raceInvoiceStore flips the stored invoice to sent after the first read,
// mimicking a concurrent sender winning between read and mark.
type raceInvoiceStore struct {
	*mockInvoiceStore
}

func (r *raceInvoiceStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := r.mockInvoiceStore.GetByID(ctx, id)
	if err == nil {
		r.invoices[id].Status = models.InvoiceStatusSent
	}
	return invoice, err
}

func TestSendLostRaceReturnsConflict(t *testing.T) {
	f := newSenderFixture()
	f.addDraft("inv-1", "ts-1")
	f.service.invoices = &raceInvoiceStore{mockInvoiceStore: f.invoices}

	_, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.notifier.emails)
}

func TestSendSurvivesNotifierFailure(t *testing.T) {
	f := newSenderFixture()
	f.addDraft("inv-1", "ts-1")
	f.notifier.enqueueErr = assert.AnError

	result, err := f.service.Send(context.Background(), "inv-1", testActor())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TimesheetsLocked)
	assert.Equal(t, models.InvoiceStatusSent, f.invoices.invoices["inv-1"].Status)
}

// TestGenerateSendDriftRoundTrip walks the full billing lifecycle: generate
// a draft, send it, then confirm drift detection is quiet until someone
// edits a locked figure.
func TestGenerateSendDriftRoundTrip(t *testing.T) {
	gf := newGeneratorFixture()
	gf.addClient("client-1", "Sunrise Care Home", models.PaymentTermsNet30)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	gf.addBilledShift("ts-1", "shift-1", "client-1", 12, 32.50, day)

	generated, err := gf.service.Generate(context.Background(), dto.GenerateInvoicesRequest{
		TimesheetIDs: []string{"ts-1"},
	})
	require.NoError(t, err)
	require.Len(t, generated.Invoices, 1)
	invoiceID := generated.Invoices[0].InvoiceID

	changeLogs := &mockChangeLogStore{}
	workflows := &mockWorkflowStore{}
	notifier := &mockNotifier{}
	sender := NewSenderService(
		gf.invoices, gf.timesheets, gf.clients, gf.agencies,
		changeLogs, notifier, nil, nil, zap.NewNop())

	sent, err := sender.Send(context.Background(), invoiceID, testActor())
	require.NoError(t, err)
	assert.Equal(t, 1, sent.TimesheetsLocked)

	validator := NewValidatorService(
		gf.timesheets, gf.shifts, gf.clients, gf.invoices,
		changeLogs, workflows, DefaultPolicy(), nil, zap.NewNop())

	clean, err := validator.DetectDrift(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.False(t, clean.HasDrift, "freshly sent invoice must not drift")
	assert.Empty(t, workflows.workflows)

	// Tamper with a locked figure behind the invoice's back.
	gf.timesheets.timesheets["ts-1"].TotalHours = decimal.NewFromInt(10)

	drifted, err := validator.DetectDrift(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.True(t, drifted.HasDrift)
	assert.Equal(t, dto.RecommendationAmendNow, drifted.Recommendation)
	assert.Len(t, workflows.workflows, 1)
}
