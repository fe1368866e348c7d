package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/models"
	"github.com/stafflink/finance-api/internal/repository"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

type timesheetLockStore interface {
	GetByID(ctx context.Context, id string) (*models.Timesheet, error)
	Lock(ctx context.Context, params repository.LockParams) (bool, error)
}

type invoiceSendStore interface {
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, snapshot models.SentSnapshot) (bool, error)
}

type invoiceNotifier interface {
	EnqueueInvoiceEmail(invoice *models.Invoice, client *models.Client, agency *models.Agency, recipient string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// SenderService owns the draft→sent transition. Sending is the financial
// point of no return: every billed timesheet is locked with a snapshot, the
// invoice freezes its sent facts, and only then is the email queued.
type SenderService struct {
	invoices   invoiceSendStore
	timesheets timesheetLockStore
	clients    clientReader
	agencies   agencyReader
	changeLogs changeLogWriter
	notifier   invoiceNotifier
	cache      cacheInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

func NewSenderService(
	invoices invoiceSendStore,
	timesheets timesheetLockStore,
	clients clientReader,
	agencies agencyReader,
	changeLogs changeLogWriter,
	notifier invoiceNotifier,
	cache cacheInvalidator,
	metrics *MetricsService,
	logger *zap.Logger,
) *SenderService {
	return &SenderService{
		invoices:   invoices,
		timesheets: timesheets,
		clients:    clients,
		agencies:   agencies,
		changeLogs: changeLogs,
		notifier:   notifier,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Send transitions a draft invoice to sent. The timesheet locks and the
// sent-mark are conditional updates, so a concurrent sender loses cleanly
// with a conflict instead of double-locking or double-sending.
func (s *SenderService) Send(ctx context.Context, invoiceID string, actor *models.JWTClaims) (*dto.SendInvoiceResult, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("invoice %s not found", invoiceID))
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}

	if invoice.Status != models.InvoiceStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidInvoiceStatus,
			fmt.Sprintf("invoice %s is %s; only draft invoices can be sent", invoice.InvoiceNumber, invoice.Status))
	}

	client, err := s.clients.GetByID(ctx, invoice.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("client %s not found", invoice.ClientID))
	}
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", invoice.ClientID, err)
	}

	agency, err := s.agencies.GetByID(ctx, invoice.AgencyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("agency %s not found", invoice.AgencyID))
	}
	if err != nil {
		return nil, fmt.Errorf("load agency %s: %w", invoice.AgencyID, err)
	}

	recipient := client.BillingRecipient()
	if recipient == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingBillingEmail,
			fmt.Sprintf("client %s has no billing or contact email", client.Name))
	}

	now := s.now().UTC()
	lockedBy := systemActor
	actorEmail := ""
	if actor != nil {
		lockedBy = actor.UserID
		actorEmail = actor.Email
	}

	lockedCount, err := s.lockTimesheets(ctx, invoice, now, lockedBy, actorEmail)
	if err != nil {
		return nil, err
	}

	snapshot := models.SentSnapshot{
		InvoiceNumber:  invoice.InvoiceNumber,
		Total:          invoice.Total,
		LineItems:      invoice.LineItems,
		SentAt:         now,
		RecipientEmail: recipient,
		ClientName:     client.Name,
		AgencyName:     agency.Name,
	}
	marked, err := s.invoices.MarkSent(ctx, invoice.ID, now, snapshot)
	if err != nil {
		return nil, fmt.Errorf("mark invoice %s sent: %w", invoice.ID, err)
	}
	if !marked {
		// Lost the race: another sender flipped the status after our read.
		// Locks we applied are valid either way; the winner owns the send.
		s.logger.Warn("concurrent send detected",
			zap.String("invoice_id", invoice.ID),
			zap.Int("timesheets_locked", lockedCount))
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("invoice %s was sent by a concurrent request", invoice.InvoiceNumber))
	}

	invoice.Status = models.InvoiceStatusSent
	invoice.SentAt = &now
	invoice.SentSnapshot = &snapshot

	if err := s.notifier.EnqueueInvoiceEmail(invoice, client, agency, recipient); err != nil {
		// The financial transition already happened; delivery is retried or
		// resent manually, never rolled back.
		s.logger.Error("invoice email enqueue failed",
			zap.String("invoice_id", invoice.ID),
			zap.Error(err))
	}

	s.recordTransition(ctx, invoice, lockedCount, lockedBy, actorEmail, now)

	if s.cache != nil {
		s.cache.Invalidate(ctx, invoiceCacheKey(invoice.ID))
	}
	if s.metrics != nil {
		s.metrics.RecordInvoiceSent()
		s.metrics.RecordTimesheetsLocked(lockedCount)
	}

	s.logger.Info("invoice sent",
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("recipient", recipient),
		zap.Int("timesheets_locked", lockedCount))

	return &dto.SendInvoiceResult{
		InvoiceID:        invoice.ID,
		InvoiceNumber:    invoice.InvoiceNumber,
		SentTo:           recipient,
		SentAt:           now,
		TimesheetsLocked: lockedCount,
		Message:          fmt.Sprintf("Invoice %s sent to %s; %d timesheet(s) locked", invoice.InvoiceNumber, recipient, lockedCount),
	}, nil
}

// lockTimesheets applies the one-way lock to every billed timesheet, writing
// the snapshot from the timesheet's current values. Already-locked rows are
// skipped; a missing timesheet is logged and left for drift detection.
func (s *SenderService) lockTimesheets(ctx context.Context, invoice *models.Invoice, now time.Time, lockedBy, actorEmail string) (int, error) {
	locked := 0
	for _, item := range invoice.LineItems {
		ts, err := s.timesheets.GetByID(ctx, item.TimesheetID)
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("billed timesheet missing at send time",
				zap.String("timesheet_id", item.TimesheetID),
				zap.String("invoice_id", invoice.ID))
			continue
		}
		if err != nil {
			return locked, fmt.Errorf("load timesheet %s: %w", item.TimesheetID, err)
		}

		applied, err := s.timesheets.Lock(ctx, repository.LockParams{
			TimesheetID: ts.ID,
			LockedAt:    now,
			LockedBy:    lockedBy,
			Snapshot: models.FinancialSnapshot{
				TotalHours:         ts.TotalHours,
				PayRate:            ts.PayRate,
				ChargeRate:         ts.ChargeRate,
				StaffPayAmount:     ts.StaffPayAmount,
				ClientChargeAmount: ts.ClientChargeAmount,
				WorkLocation:       ts.WorkLocation,
				LockedAt:           now,
			},
		})
		if err != nil {
			return locked, err
		}
		if !applied {
			s.logger.Warn("timesheet already locked",
				zap.String("timesheet_id", ts.ID),
				zap.String("invoice_id", invoice.ID))
			continue
		}
		locked++

		entry := &models.ChangeLog{
			AgencyID:           invoice.AgencyID,
			ChangeType:         models.ChangeTypeTimesheetLock,
			AffectedEntityType: "timesheet",
			AffectedEntityID:   ts.ID,
			OldValue:           string(models.TimesheetStatusApproved),
			NewValue:           "invoiced_and_locked",
			Reason:             fmt.Sprintf("Locked at send time by invoice %s", invoice.InvoiceNumber),
			ChangedBy:          lockedBy,
			ChangedByEmail:     actorEmail,
			RiskLevel:          models.RiskLevelHigh,
		}
		if err := s.changeLogs.Create(ctx, entry); err != nil {
			s.logger.Error("lock change log failed",
				zap.String("timesheet_id", ts.ID),
				zap.Error(err))
		}
	}
	return locked, nil
}

func (s *SenderService) recordTransition(ctx context.Context, invoice *models.Invoice, lockedCount int, changedBy, changedByEmail string, now time.Time) {
	entry := &models.ChangeLog{
		AgencyID:           invoice.AgencyID,
		ChangeType:         models.ChangeTypeInvoiceTransition,
		AffectedEntityType: "invoice",
		AffectedEntityID:   invoice.ID,
		OldValue:           string(models.InvoiceStatusDraft),
		NewValue:           string(models.InvoiceStatusSent),
		Reason:             fmt.Sprintf("Invoice %s sent; %d timesheet(s) locked", invoice.InvoiceNumber, lockedCount),
		ChangedBy:          changedBy,
		ChangedByEmail:     changedByEmail,
		ChangedAt:          now,
		RiskLevel:          models.RiskLevelMedium,
	}
	if err := s.changeLogs.Create(ctx, entry); err != nil {
		s.logger.Error("send change log failed",
			zap.String("invoice_id", invoice.ID),
			zap.Error(err))
	}
}
