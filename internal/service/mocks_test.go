package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stafflink/finance-api/internal/models"
	"github.com/stafflink/finance-api/internal/repository"
)

type mockTimesheetStore struct {
	timesheets map[string]*models.Timesheet
	getErr     error
	lockErr    error
	linkErr    error
	linked     []string
}

func (m *mockTimesheetStore) GetByID(ctx context.Context, id string) (*models.Timesheet, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if ts, ok := m.timesheets[id]; ok {
		copy := *ts
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimesheetStore) GetByIDs(ctx context.Context, ids []string) ([]models.Timesheet, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []models.Timesheet
	for _, id := range ids {
		if ts, ok := m.timesheets[id]; ok {
			result = append(result, *ts)
		}
	}
	return result, nil
}

func (m *mockTimesheetStore) ListCandidates(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []models.Timesheet
	for _, ts := range m.timesheets {
		if filter.Status != "" && ts.Status != filter.Status {
			continue
		}
		if filter.Uninvoiced && ts.InvoiceID != nil {
			continue
		}
		if filter.ClientID != "" && ts.ClientID != filter.ClientID {
			continue
		}
		if filter.PeriodStart != nil && ts.ShiftDate.Before(*filter.PeriodStart) {
			continue
		}
		if filter.PeriodEnd != nil && ts.ShiftDate.After(*filter.PeriodEnd) {
			continue
		}
		result = append(result, *ts)
	}
	return result, nil
}

func (m *mockTimesheetStore) LinkToInvoice(ctx context.Context, timesheetID, invoiceID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	ts, ok := m.timesheets[timesheetID]
	if !ok || ts.FinancialLocked {
		return fmt.Errorf("timesheet %s is locked or missing", timesheetID)
	}
	ts.InvoiceID = &invoiceID
	m.linked = append(m.linked, timesheetID)
	return nil
}

func (m *mockTimesheetStore) Lock(ctx context.Context, params repository.LockParams) (bool, error) {
	if m.lockErr != nil {
		return false, m.lockErr
	}
	ts, ok := m.timesheets[params.TimesheetID]
	if !ok || ts.FinancialLocked {
		return false, nil
	}
	snapshot := params.Snapshot
	ts.Status = models.TimesheetStatusInvoiced
	ts.FinancialLocked = true
	ts.FinancialLockedAt = &params.LockedAt
	ts.FinancialLockedBy = &params.LockedBy
	ts.FinancialSnapshot = &snapshot
	return true, nil
}

type mockShiftStore struct {
	shifts map[string]*models.Shift
	getErr error
}

func (m *mockShiftStore) GetByID(ctx context.Context, id string) (*models.Shift, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if shift, ok := m.shifts[id]; ok {
		copy := *shift
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockShiftStore) FindByDateAndClient(ctx context.Context, date time.Time, clientID string) (*models.Shift, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, shift := range m.shifts {
		if shift.ShiftDate.Equal(date) && shift.ClientID == clientID {
			copy := *shift
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockClientStore struct {
	clients map[string]*models.Client
	getErr  error
}

func (m *mockClientStore) GetByID(ctx context.Context, id string) (*models.Client, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if client, ok := m.clients[id]; ok {
		copy := *client
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type mockAgencyStore struct {
	agencies map[string]*models.Agency
	getErr   error
}

func (m *mockAgencyStore) GetByID(ctx context.Context, id string) (*models.Agency, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if agency, ok := m.agencies[id]; ok {
		copy := *agency
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type mockInvoiceStore struct {
	invoices  map[string]*models.Invoice
	createErr error
	created   []*models.Invoice
}

func (m *mockInvoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	if m.createErr != nil {
		return m.createErr
	}
	if invoice.ID == "" {
		invoice.ID = fmt.Sprintf("inv-%d", len(m.created)+1)
	}
	if m.invoices == nil {
		m.invoices = make(map[string]*models.Invoice)
	}
	copy := *invoice
	m.invoices[invoice.ID] = &copy
	m.created = append(m.created, &copy)
	return nil
}

func (m *mockInvoiceStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	if invoice, ok := m.invoices[id]; ok {
		copy := *invoice
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInvoiceStore) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	var result []models.Invoice
	for _, invoice := range m.invoices {
		result = append(result, *invoice)
	}
	return result, nil
}

func (m *mockInvoiceStore) MarkSent(ctx context.Context, id string, sentAt time.Time, snapshot models.SentSnapshot) (bool, error) {
	invoice, ok := m.invoices[id]
	if !ok || invoice.Status != models.InvoiceStatusDraft {
		return false, nil
	}
	invoice.Status = models.InvoiceStatusSent
	invoice.SentAt = &sentAt
	invoice.SentSnapshot = &snapshot
	return true, nil
}

type mockCounterStore struct {
	counters map[string]int
	err      error
}

func (m *mockCounterStore) NextSequence(ctx context.Context, agencyID, period string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	key := agencyID + ":" + period
	m.counters[key]++
	return m.counters[key], nil
}

type mockChangeLogStore struct {
	entries   []*models.ChangeLog
	createErr error
}

func (m *mockChangeLogStore) Create(ctx context.Context, entry *models.ChangeLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *entry
	m.entries = append(m.entries, &copy)
	return nil
}

func (m *mockChangeLogStore) byType(changeType string) []*models.ChangeLog {
	var result []*models.ChangeLog
	for _, entry := range m.entries {
		if entry.ChangeType == changeType {
			result = append(result, entry)
		}
	}
	return result
}

type mockWorkflowStore struct {
	workflows []*models.AdminWorkflow
	createErr error
}

func (m *mockWorkflowStore) Create(ctx context.Context, workflow *models.AdminWorkflow) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *workflow
	m.workflows = append(m.workflows, &copy)
	return nil
}

type enqueuedEmail struct {
	invoice   *models.Invoice
	recipient string
}

type mockNotifier struct {
	emails     []enqueuedEmail
	enqueueErr error
}

func (m *mockNotifier) EnqueueInvoiceEmail(invoice *models.Invoice, client *models.Client, agency *models.Agency, recipient string) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.emails = append(m.emails, enqueuedEmail{invoice: invoice, recipient: recipient})
	return nil
}

func strPtr(s string) *string { return &s }
