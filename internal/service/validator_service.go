package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

// systemActor attributes records created by the core itself rather than a
// human operator.
const systemActor = "system"

type timesheetReader interface {
	GetByID(ctx context.Context, id string) (*models.Timesheet, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Timesheet, error)
}

type shiftReader interface {
	GetByID(ctx context.Context, id string) (*models.Shift, error)
	FindByDateAndClient(ctx context.Context, date time.Time, clientID string) (*models.Shift, error)
}

type clientReader interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
}

type invoiceReader interface {
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
}

type changeLogWriter interface {
	Create(ctx context.Context, entry *models.ChangeLog) error
}

type workflowWriter interface {
	Create(ctx context.Context, workflow *models.AdminWorkflow) error
}

// ValidatorService answers three financial consistency questions: may these
// timesheets be invoiced, may this edit proceed, and has invoiced data
// drifted. Only drift detection writes anything.
type ValidatorService struct {
	timesheets timesheetReader
	shifts     shiftReader
	clients    clientReader
	invoices   invoiceReader
	changeLogs changeLogWriter
	workflows  workflowWriter
	policy     InvoicePolicy
	metrics    *MetricsService
	logger     *zap.Logger
}

func NewValidatorService(
	timesheets timesheetReader,
	shifts shiftReader,
	clients clientReader,
	invoices invoiceReader,
	changeLogs changeLogWriter,
	workflows workflowWriter,
	policy InvoicePolicy,
	metrics *MetricsService,
	logger *zap.Logger,
) *ValidatorService {
	return &ValidatorService{
		timesheets: timesheets,
		shifts:     shifts,
		clients:    clients,
		invoices:   invoices,
		changeLogs: changeLogs,
		workflows:  workflows,
		policy:     policy,
		metrics:    metrics,
		logger:     logger,
	}
}

// PreInvoice checks a batch of timesheets against their shifts before
// invoice generation. Read-only: issues are reported, never persisted.
func (s *ValidatorService) PreInvoice(ctx context.Context, timesheetIDs []string) (*dto.PreInvoiceResult, error) {
	if len(timesheetIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timesheet_ids is required for pre_invoice")
	}

	timesheets, err := s.timesheets.GetByIDs(ctx, timesheetIDs)
	if err != nil {
		return nil, fmt.Errorf("load timesheets: %w", err)
	}

	issues := make([]dto.FinancialIssue, 0)
	for i := range timesheets {
		ts := &timesheets[i]

		if ts.FinancialLocked {
			issues = append(issues, dto.FinancialIssue{
				Severity:    dto.SeverityCritical,
				Issue:       dto.IssueAlreadyInvoiced,
				Message:     fmt.Sprintf("Timesheet %s is already invoiced and locked", ts.ID),
				TimesheetID: ts.ID,
			})
			continue
		}

		shift, err := s.resolveShift(ctx, ts)
		if err != nil {
			return nil, err
		}
		if shift == nil {
			issues = append(issues, dto.FinancialIssue{
				Severity:    dto.SeverityHigh,
				Issue:       dto.IssueMissingShift,
				Message:     fmt.Sprintf("No shift found for timesheet %s", ts.ID),
				TimesheetID: ts.ID,
			})
			continue
		}

		if shift.ChargeRate.Sub(ts.ChargeRate).Abs().GreaterThan(s.policy.RateTolerance) {
			shiftRate := shift.ChargeRate
			tsRate := ts.ChargeRate
			issues = append(issues, dto.FinancialIssue{
				Severity:      dto.SeverityCritical,
				Issue:         dto.IssueRateMismatch,
				Message:       fmt.Sprintf("Rate mismatch: shift charges %s/hr but timesheet records %s/hr", shiftRate.StringFixed(2), tsRate.StringFixed(2)),
				TimesheetID:   ts.ID,
				ShiftID:       shift.ID,
				ShiftRate:     &shiftRate,
				TimesheetRate: &tsRate,
			})
		}

		hoursDiff := ts.TotalHours.Sub(shift.DurationHours).Abs()
		if hoursDiff.GreaterThan(s.policy.HoursAbsTolerance) &&
			hoursDiff.GreaterThan(shift.DurationHours.Mul(s.policy.HoursRelTolerance)) {
			variance := hoursDiff
			issues = append(issues, dto.FinancialIssue{
				Severity:    dto.SeverityMedium,
				Issue:       dto.IssueHoursMismatch,
				Message:     fmt.Sprintf("Hours mismatch: timesheet records %s hours against a %s hour shift", ts.TotalHours.String(), shift.DurationHours.String()),
				TimesheetID: ts.ID,
				ShiftID:     shift.ID,
				Variance:    &variance,
			})
		}

		client, err := s.clients.GetByID(ctx, ts.ClientID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load client %s: %w", ts.ClientID, err)
		}
		if client.RequiresLocation() && (ts.WorkLocation == nil || *ts.WorkLocation == "") {
			issues = append(issues, dto.FinancialIssue{
				Severity:    dto.SeverityCritical,
				Issue:       dto.IssueMissingLocation,
				Message:     fmt.Sprintf("Client %s requires a work location on every billed timesheet", client.Name),
				TimesheetID: ts.ID,
			})
		}
	}

	critical, warnings := countBySeverity(issues)
	result := &dto.PreInvoiceResult{
		Success:          critical == 0,
		ValidationPassed: len(issues) == 0,
		Issues:           issues,
		CriticalCount:    critical,
		WarningCount:     warnings,
		Recommendation:   preInvoiceRecommendation(critical, len(issues)),
	}

	s.logger.Info("pre-invoice validation completed",
		zap.Int("timesheets", len(timesheets)),
		zap.Int("issues", len(issues)),
		zap.Int("critical", critical),
		zap.String("recommendation", result.Recommendation))

	return result, nil
}

// ValidateEdit decides whether a proposed edit to a timesheet or shift may
// proceed. Edits touching protected monetary fields on a locked record are
// denied with amendment guidance; denial is an answer, not an error.
func (s *ValidatorService) ValidateEdit(ctx context.Context, entityType, entityID string, proposedChanges map[string]interface{}) (*dto.EditValidationResult, error) {
	if entityID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entity_id is required for edit_validation")
	}

	switch entityType {
	case "timesheet":
		ts, err := s.timesheets.GetByID(ctx, entityID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundEdit(entityType, entityID), nil
		}
		if err != nil {
			return nil, fmt.Errorf("load timesheet %s: %w", entityID, err)
		}
		if !ts.FinancialLocked {
			return &dto.EditValidationResult{Allowed: true}, nil
		}
		if touched := touchedFields(proposedChanges, models.TimesheetFinancialFields); len(touched) > 0 {
			return lockViolation(ts.FinancialLockedAt, ts.FinancialLockedBy, ts.InvoiceID, touched), nil
		}
		return &dto.EditValidationResult{Allowed: true}, nil

	case "shift":
		shift, err := s.shifts.GetByID(ctx, entityID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundEdit(entityType, entityID), nil
		}
		if err != nil {
			return nil, fmt.Errorf("load shift %s: %w", entityID, err)
		}
		if !shift.FinancialLocked {
			return &dto.EditValidationResult{Allowed: true}, nil
		}
		if touched := touchedFields(proposedChanges, models.ShiftFinancialFields); len(touched) > 0 {
			return lockViolation(shift.FinancialLockedAt, shift.FinancialLockedBy, nil, touched), nil
		}
		return &dto.EditValidationResult{Allowed: true}, nil

	default:
		return &dto.EditValidationResult{
			Allowed: false,
			Reason:  dto.ReasonNotFound,
			Message: fmt.Sprintf("Unknown entity type %q", entityType),
		}, nil
	}
}

// DetectDrift compares a sent invoice's frozen line items against the live
// timesheets behind them. Any finding raises a critical admin workflow and a
// flagged audit entry; drift is never silently resolved.
func (s *ValidatorService) DetectDrift(ctx context.Context, invoiceID string) (*dto.DriftResult, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("invoice %s not found", invoiceID))
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}

	issues := make([]dto.FinancialIssue, 0)
	for _, item := range invoice.LineItems {
		ts, err := s.timesheets.GetByID(ctx, item.TimesheetID)
		if errors.Is(err, sql.ErrNoRows) {
			issues = append(issues, dto.FinancialIssue{
				Severity:    dto.SeverityCritical,
				Issue:       dto.IssueTimesheetDeleted,
				Message:     fmt.Sprintf("Timesheet %s on invoice %s no longer exists", item.TimesheetID, invoice.InvoiceNumber),
				TimesheetID: item.TimesheetID,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load timesheet %s: %w", item.TimesheetID, err)
		}

		if !ts.TotalHours.Equal(item.Hours) {
			issues = append(issues, dto.FinancialIssue{
				Severity:     dto.SeverityCritical,
				Issue:        dto.IssueHoursChanged,
				Message:      fmt.Sprintf("Hours changed after sending: invoiced %s, now %s", item.Hours.String(), ts.TotalHours.String()),
				TimesheetID:  ts.ID,
				InvoiceValue: item.Hours,
				CurrentValue: ts.TotalHours,
			})
		}

		if ts.ChargeRate.Sub(item.Rate).Abs().GreaterThan(s.policy.RateTolerance) {
			issues = append(issues, dto.FinancialIssue{
				Severity:     dto.SeverityCritical,
				Issue:        dto.IssueRateChanged,
				Message:      fmt.Sprintf("Charge rate changed after sending: invoiced %s, now %s", item.Rate.StringFixed(2), ts.ChargeRate.StringFixed(2)),
				TimesheetID:  ts.ID,
				InvoiceValue: item.Rate,
				CurrentValue: ts.ChargeRate,
			})
		}

		if derefString(ts.WorkLocation) != derefString(item.WorkLocation) {
			issues = append(issues, dto.FinancialIssue{
				Severity:     dto.SeverityHigh,
				Issue:        dto.IssueLocationChanged,
				Message:      fmt.Sprintf("Work location changed after sending: invoiced %q, now %q", derefString(item.WorkLocation), derefString(ts.WorkLocation)),
				TimesheetID:  ts.ID,
				InvoiceValue: item.WorkLocation,
				CurrentValue: ts.WorkLocation,
			})
		}

		if snap := ts.FinancialSnapshot; snap != nil &&
			(!snap.TotalHours.Equal(item.Hours) || !snap.ChargeRate.Equal(item.Rate)) {
			issues = append(issues, dto.FinancialIssue{
				Severity:    dto.SeverityCritical,
				Issue:       dto.IssueSnapshotMismatch,
				Message:     fmt.Sprintf("Lock snapshot for timesheet %s disagrees with the invoice line item", ts.ID),
				TimesheetID: ts.ID,
			})
		}
	}

	critical, _ := countBySeverity(issues)
	result := &dto.DriftResult{
		HasDrift:      len(issues) > 0,
		DriftIssues:   issues,
		CriticalCount: critical,
	}
	if critical > 0 {
		result.Recommendation = dto.RecommendationAmendNow
	} else {
		result.Recommendation = dto.RecommendationNoActionNeeded
	}

	if result.HasDrift {
		if err := s.recordDrift(ctx, invoice, issues); err != nil {
			return nil, err
		}
	}
	if s.metrics != nil {
		s.metrics.RecordDriftDetection(result.HasDrift)
	}

	s.logger.Info("drift detection completed",
		zap.String("invoice_id", invoice.ID),
		zap.Bool("has_drift", result.HasDrift),
		zap.Int("critical", critical))

	return result, nil
}

// recordDrift persists the paper trail for a drift finding: one flagged
// audit entry and one critical workflow per detection run.
func (s *ValidatorService) recordDrift(ctx context.Context, invoice *models.Invoice, issues []dto.FinancialIssue) error {
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshal drift issues: %w", err)
	}

	entry := &models.ChangeLog{
		AgencyID:           invoice.AgencyID,
		ChangeType:         models.ChangeTypeDriftDetection,
		AffectedEntityType: "invoice",
		AffectedEntityID:   invoice.ID,
		OldValue:           fmt.Sprintf(`{"invoice_number":%q,"status":%q}`, invoice.InvoiceNumber, invoice.Status),
		NewValue:           string(issuesJSON),
		Reason:             fmt.Sprintf("Detected %d drift issue(s) on sent invoice %s", len(issues), invoice.InvoiceNumber),
		ChangedBy:          systemActor,
		RiskLevel:          models.RiskLevelCritical,
		FlaggedForReview:   true,
	}
	if err := s.changeLogs.Create(ctx, entry); err != nil {
		return fmt.Errorf("record drift change log: %w", err)
	}

	workflow := &models.AdminWorkflow{
		AgencyID:    invoice.AgencyID,
		Type:        models.WorkflowTypeDataDrift,
		Priority:    models.WorkflowPriorityCritical,
		Title:       fmt.Sprintf("Financial data drift on invoice %s", invoice.InvoiceNumber),
		Description: fmt.Sprintf("%d drift issue(s) detected between invoice %s and its underlying timesheets. Create an invoice amendment; do not edit locked records.", len(issues), invoice.InvoiceNumber),
		RelatedEntity: models.RelatedEntity{
			EntityType: "invoice",
			EntityID:   invoice.ID,
		},
		AutoCreated: true,
	}
	if err := s.workflows.Create(ctx, workflow); err != nil {
		return fmt.Errorf("create drift workflow: %w", err)
	}
	return nil
}

// resolveShift looks up the shift behind a timesheet: booking reference
// first, then the (date, client) fallback. A nil shift with nil error means
// genuinely not found.
func (s *ValidatorService) resolveShift(ctx context.Context, ts *models.Timesheet) (*models.Shift, error) {
	if ts.BookingID != "" {
		shift, err := s.shifts.GetByID(ctx, ts.BookingID)
		if err == nil {
			return shift, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load shift %s: %w", ts.BookingID, err)
		}
	}

	shift, err := s.shifts.FindByDateAndClient(ctx, ts.ShiftDate, ts.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve shift for timesheet %s: %w", ts.ID, err)
	}
	return shift, nil
}

func notFoundEdit(entityType, entityID string) *dto.EditValidationResult {
	return &dto.EditValidationResult{
		Allowed: false,
		Reason:  dto.ReasonNotFound,
		Message: fmt.Sprintf("%s %s not found", entityType, entityID),
	}
}

func lockViolation(lockedAt *time.Time, lockedBy, invoiceID *string, touched []string) *dto.EditValidationResult {
	return &dto.EditValidationResult{
		Allowed:        false,
		Reason:         dto.ReasonLockViolation,
		Message:        fmt.Sprintf("Financial fields %v are locked; raise an amendment instead of editing", touched),
		LockedAt:       lockedAt,
		LockedBy:       lockedBy,
		InvoiceID:      invoiceID,
		ActionRequired: dto.ActionCreateAmendment,
	}
}

// touchedFields returns the protected fields present in the proposed change
// set, in the protected-field order.
func touchedFields(changes map[string]interface{}, protected []string) []string {
	if len(changes) == 0 {
		return nil
	}
	var touched []string
	for _, field := range protected {
		if _, ok := changes[field]; ok {
			touched = append(touched, field)
		}
	}
	return touched
}

func countBySeverity(issues []dto.FinancialIssue) (critical, warnings int) {
	for _, issue := range issues {
		if issue.Severity == dto.SeverityCritical {
			critical++
		} else {
			warnings++
		}
	}
	return critical, warnings
}

func preInvoiceRecommendation(critical, total int) string {
	switch {
	case critical > 0:
		return dto.RecommendationBlock
	case total > 0:
		return dto.RecommendationWarn
	default:
		return dto.RecommendationProceed
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
