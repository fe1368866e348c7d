package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

// shiftRejectionReasons maps a non-completed shift status to the operator
// explanation reported for the rejected timesheet.
var shiftRejectionReasons = map[models.ShiftStatus]string{
	models.ShiftStatusOpen:            "Shift is still open (not assigned)",
	models.ShiftStatusAssigned:        "Shift assigned but not completed",
	models.ShiftStatusConfirmed:       "Shift confirmed but not completed",
	models.ShiftStatusInProgress:      "Shift currently in progress",
	"awaiting_staff_confirmation":     "Awaiting staff confirmation",
	models.ShiftStatusAwaitingClosure: "Awaiting admin closure - mark as completed first",
	models.ShiftStatusCancelled:       "Shift was cancelled - cannot invoice",
	models.ShiftStatusNoShow:          "Staff no-show - cannot invoice",
	models.ShiftStatusDisputed:        "Shift is disputed - resolve dispute before invoicing",
	"unfilled_escalated":              "Shift unfilled",
	"archived":                        "Shift archived",
}

type timesheetCandidateStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Timesheet, error)
	ListCandidates(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error)
	LinkToInvoice(ctx context.Context, timesheetID, invoiceID string) error
}

type shiftBatchReader interface {
	GetByID(ctx context.Context, id string) (*models.Shift, error)
}

type invoiceWriter interface {
	Create(ctx context.Context, invoice *models.Invoice) error
}

type agencyReader interface {
	GetByID(ctx context.Context, id string) (*models.Agency, error)
}

type counterStore interface {
	NextSequence(ctx context.Context, agencyID, period string) (int, error)
}

// GeneratorService turns approved, unlocked, shift-completed timesheets into
// draft invoices grouped by client. Drafts never lock their timesheets; the
// lock belongs to the send step.
type GeneratorService struct {
	timesheets timesheetCandidateStore
	shifts     shiftBatchReader
	clients    clientReader
	agencies   agencyReader
	invoices   invoiceWriter
	counters   counterStore
	workflows  workflowWriter
	policy     InvoicePolicy
	metrics    *MetricsService
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

func NewGeneratorService(
	timesheets timesheetCandidateStore,
	shifts shiftBatchReader,
	clients clientReader,
	agencies agencyReader,
	invoices invoiceWriter,
	counters counterStore,
	workflows workflowWriter,
	policy InvoicePolicy,
	metrics *MetricsService,
	logger *zap.Logger,
) *GeneratorService {
	return &GeneratorService{
		timesheets: timesheets,
		shifts:     shifts,
		clients:    clients,
		agencies:   agencies,
		invoices:   invoices,
		counters:   counters,
		workflows:  workflows,
		policy:     policy,
		metrics:    metrics,
		validate:   validator.New(),
		logger:     logger,
		now:        time.Now,
	}
}

// Generate runs one invoice generation pass. A failure in one client group
// is recorded as a validation error and never aborts the others.
func (s *GeneratorService) Generate(ctx context.Context, req dto.GenerateInvoicesRequest) (*dto.GenerateInvoicesResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	if len(req.TimesheetIDs) == 0 && !req.AutoMode {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either timesheet_ids or auto_mode is required")
	}

	candidates, err := s.loadCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &dto.GenerateInvoicesResult{
		Invoices:         make([]dto.CreatedInvoice, 0),
		ValidationErrors: make([]dto.ClientValidationError, 0),
		ValidationSummary: dto.ValidationSummary{
			TotalCandidates: len(candidates),
			RejectedDetails: make([]dto.RejectedTimesheet, 0),
		},
	}

	unlocked := make([]models.Timesheet, 0, len(candidates))
	for _, ts := range candidates {
		if ts.FinancialLocked {
			result.ValidationSummary.ExcludedLocked++
			continue
		}
		unlocked = append(unlocked, ts)
	}

	approved, rejected, err := s.filterByShiftStatus(ctx, unlocked)
	if err != nil {
		return nil, err
	}
	result.ValidationSummary.Rejected = len(rejected)
	result.ValidationSummary.RejectedDetails = rejected
	result.ValidationSummary.ApprovedForInvoicing = len(approved)

	clientIDs, groups := groupByClient(approved)
	for _, clientID := range clientIDs {
		group := groups[clientID]
		created, verrs := s.generateForClient(ctx, clientID, group)
		if len(verrs) > 0 {
			result.ValidationErrors = append(result.ValidationErrors, verrs...)
			result.ValidationSummary.BlockedByValidation += len(group)
			continue
		}
		result.Invoices = append(result.Invoices, *created)
	}

	if s.metrics != nil && len(result.Invoices) > 0 {
		s.metrics.RecordInvoicesCreated(len(result.Invoices))
	}

	s.logger.Info("invoice generation completed",
		zap.Int("candidates", result.ValidationSummary.TotalCandidates),
		zap.Int("excluded_locked", result.ValidationSummary.ExcludedLocked),
		zap.Int("rejected", result.ValidationSummary.Rejected),
		zap.Int("invoices", len(result.Invoices)),
		zap.Int("validation_errors", len(result.ValidationErrors)))

	return result, nil
}

func (s *GeneratorService) loadCandidates(ctx context.Context, req dto.GenerateInvoicesRequest) ([]models.Timesheet, error) {
	if len(req.TimesheetIDs) > 0 {
		timesheets, err := s.timesheets.GetByIDs(ctx, req.TimesheetIDs)
		if err != nil {
			return nil, fmt.Errorf("load timesheets: %w", err)
		}
		return timesheets, nil
	}

	filter := models.TimesheetFilter{
		Status:     models.TimesheetStatusApproved,
		Uninvoiced: true,
		ClientID:   req.ClientID,
	}
	if req.PeriodStart != "" {
		start, _ := time.Parse("2006-01-02", req.PeriodStart)
		filter.PeriodStart = &start
	}
	if req.PeriodEnd != "" {
		end, _ := time.Parse("2006-01-02", req.PeriodEnd)
		filter.PeriodEnd = &end
	}

	timesheets, err := s.timesheets.ListCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list candidate timesheets: %w", err)
	}
	return timesheets, nil
}

// filterByShiftStatus drops candidates whose shift is missing or not yet
// completed, reporting each rejection individually.
func (s *GeneratorService) filterByShiftStatus(ctx context.Context, candidates []models.Timesheet) ([]models.Timesheet, []dto.RejectedTimesheet, error) {
	approved := make([]models.Timesheet, 0, len(candidates))
	rejected := make([]dto.RejectedTimesheet, 0)

	for _, ts := range candidates {
		if ts.BookingID == "" {
			rejected = append(rejected, dto.RejectedTimesheet{
				TimesheetID: ts.ID,
				Reason:      dto.RejectionNoBooking,
				Explanation: "Timesheet has no booking reference",
			})
			continue
		}

		shift, err := s.shifts.GetByID(ctx, ts.BookingID)
		if errors.Is(err, sql.ErrNoRows) {
			rejected = append(rejected, dto.RejectedTimesheet{
				TimesheetID: ts.ID,
				ShiftID:     ts.BookingID,
				Reason:      dto.RejectionShiftNotFound,
				Explanation: "Booked shift no longer exists",
			})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load shift %s: %w", ts.BookingID, err)
		}

		if shift.Status != models.ShiftStatusCompleted {
			rejected = append(rejected, dto.RejectedTimesheet{
				TimesheetID: ts.ID,
				ShiftID:     shift.ID,
				Reason:      dto.RejectionShiftNotCompleted,
				ShiftStatus: string(shift.Status),
				Explanation: rejectionExplanation(shift.Status),
			})
			continue
		}

		approved = append(approved, ts)
	}

	return approved, rejected, nil
}

// generateForClient builds and persists one draft invoice for a client
// group. Blocking conditions come back as validation errors; only those are
// returned to the caller, infrastructure failures included, so one bad group
// cannot sink the run.
func (s *GeneratorService) generateForClient(ctx context.Context, clientID string, group []models.Timesheet) (*dto.CreatedInvoice, []dto.ClientValidationError) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, []dto.ClientValidationError{{
			ClientID: clientID,
			Error:    dto.ErrorClientNotFound,
			Message:  fmt.Sprintf("Client %s could not be loaded", clientID),
		}}
	}

	agency, err := s.agencies.GetByID(ctx, group[0].AgencyID)
	if err != nil {
		return nil, []dto.ClientValidationError{{
			ClientID:   clientID,
			ClientName: client.Name,
			Error:      dto.ErrorClientNotFound,
			Message:    fmt.Sprintf("Agency %s could not be loaded", group[0].AgencyID),
		}}
	}

	now := s.now().UTC()

	if !agency.BankDetails.Complete() {
		s.raiseWorkflow(ctx, &models.AdminWorkflow{
			AgencyID:    agency.ID,
			Type:        models.WorkflowTypeMissingBankDetails,
			Priority:    models.WorkflowPriorityCritical,
			Title:       "Bank details required before invoicing",
			Description: fmt.Sprintf("Invoice generation for %s is blocked: the agency has no complete bank details on file.", client.Name),
			RelatedEntity: models.RelatedEntity{
				EntityType: "client",
				EntityID:   client.ID,
			},
			Deadline:    deadline(now, 24*time.Hour),
			AutoCreated: true,
		})
		return nil, []dto.ClientValidationError{{
			ClientID:           client.ID,
			ClientName:         client.Name,
			Error:              dto.ErrorMissingBankDetails,
			Message:            "Agency bank details are incomplete; invoices cannot carry payment instructions",
			ActionRequired:     "Add account name, account number and sort code to the agency profile",
			TimesheetsAffected: len(group),
		}}
	}

	if client.RequiresLocation() {
		var missing []string
		for _, ts := range group {
			if ts.WorkLocation == nil || *ts.WorkLocation == "" {
				missing = append(missing, ts.ID)
			}
		}
		if len(missing) > 0 {
			s.raiseWorkflow(ctx, &models.AdminWorkflow{
				AgencyID:    agency.ID,
				Type:        models.WorkflowTypeMissingStaffInfo,
				Priority:    models.WorkflowPriorityHigh,
				Title:       fmt.Sprintf("Work locations missing for %s", client.Name),
				Description: fmt.Sprintf("%d timesheet(s) for %s have no work location, but the client contract requires one on every billed line.", len(missing), client.Name),
				RelatedEntity: models.RelatedEntity{
					EntityType: "client",
					EntityID:   client.ID,
				},
				Deadline:    deadline(now, 48*time.Hour),
				AutoCreated: true,
			})
			return nil, []dto.ClientValidationError{{
				ClientID:            client.ID,
				ClientName:          client.Name,
				Error:               dto.ErrorMissingLocation,
				Message:             fmt.Sprintf("Client contract requires a work location on every billed timesheet; %d are missing one", len(missing)),
				ActionRequired:      "Record the work location on the listed timesheets, then regenerate",
				MissingTimesheetIDs: missing,
			}}
		}
	}

	invoice, err := s.buildInvoice(ctx, agency, client, group, now)
	if err != nil {
		s.logger.Error("invoice build failed", zap.String("client_id", client.ID), zap.Error(err))
		return nil, []dto.ClientValidationError{{
			ClientID:   client.ID,
			ClientName: client.Name,
			Error:      dto.ErrorGenerationFailed,
			Message:    err.Error(),
		}}
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		s.logger.Error("invoice insert failed", zap.String("client_id", client.ID), zap.Error(err))
		return nil, []dto.ClientValidationError{{
			ClientID:   client.ID,
			ClientName: client.Name,
			Error:      dto.ErrorGenerationFailed,
			Message:    "invoice could not be persisted",
		}}
	}

	var verrs []dto.ClientValidationError
	for _, ts := range group {
		if err := s.timesheets.LinkToInvoice(ctx, ts.ID, invoice.ID); err != nil {
			s.logger.Warn("timesheet link failed",
				zap.String("timesheet_id", ts.ID),
				zap.String("invoice_id", invoice.ID),
				zap.Error(err))
			verrs = append(verrs, dto.ClientValidationError{
				ClientID:            client.ID,
				ClientName:          client.Name,
				Error:               dto.ErrorGenerationFailed,
				Message:             fmt.Sprintf("timesheet %s could not be linked to invoice %s", ts.ID, invoice.InvoiceNumber),
				MissingTimesheetIDs: []string{ts.ID},
			})
		}
	}
	if len(verrs) > 0 {
		// The draft exists; report the partial linkage rather than unwind it.
		return nil, verrs
	}

	return &dto.CreatedInvoice{
		InvoiceID:        invoice.ID,
		InvoiceNumber:    invoice.InvoiceNumber,
		ClientName:       client.Name,
		Total:            invoice.Total,
		TimesheetsCount:  len(group),
		TimesheetsLocked: false,
		Status:           string(invoice.Status),
	}, nil
}

// buildInvoice assembles the draft: line items, totals, number and dates.
func (s *GeneratorService) buildInvoice(ctx context.Context, agency *models.Agency, client *models.Client, group []models.Timesheet, now time.Time) (*models.Invoice, error) {
	requiresLocation := client.RequiresLocation()

	items := make(models.LineItems, 0, len(group))
	subtotal := decimal.Zero
	periodStart, periodEnd := group[0].ShiftDate, group[0].ShiftDate

	for _, ts := range group {
		shift, err := s.shifts.GetByID(ctx, ts.BookingID)
		if err != nil {
			return nil, fmt.Errorf("load shift %s: %w", ts.BookingID, err)
		}

		role := humaniseRole(shift.RoleRequired)
		item := models.LineItem{
			TimesheetID: ts.ID,
			Description: fmt.Sprintf("%s - %s", ts.StaffName, role),
			StaffName:   ts.StaffName,
			Role:        role,
			ShiftType:   shift.ShiftType,
			ShiftDate:   ts.ShiftDate.Format("2006-01-02"),
			Hours:       ts.TotalHours,
			Rate:        ts.ChargeRate,
			Amount:      ts.ClientChargeAmount,
		}
		if requiresLocation {
			item.WorkLocation = ts.WorkLocation
		}
		items = append(items, item)
		subtotal = subtotal.Add(ts.ClientChargeAmount)

		if ts.ShiftDate.Before(periodStart) {
			periodStart = ts.ShiftDate
		}
		if ts.ShiftDate.After(periodEnd) {
			periodEnd = ts.ShiftDate
		}
	}

	vatAmount := subtotal.Mul(s.policy.VATRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(vatAmount)

	number, err := s.nextInvoiceNumber(ctx, agency.ID, now)
	if err != nil {
		return nil, err
	}

	paymentDays := client.PaymentTerms.Days(s.policy.DefaultPaymentDays)

	return &models.Invoice{
		AgencyID:      agency.ID,
		ClientID:      client.ID,
		InvoiceNumber: number,
		InvoiceDate:   now,
		DueDate:       now.AddDate(0, 0, paymentDays),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Status:        models.InvoiceStatusDraft,
		LineItems:     items,
		Subtotal:      subtotal,
		VATRate:       s.policy.VATRatePercent,
		VATAmount:     vatAmount,
		Total:         total,
		AmountPaid:    decimal.Zero,
		BalanceDue:    total,
	}, nil
}

// nextInvoiceNumber allocates <prefix>-YYMM-NNNN from the per-agency,
// per-month counter. The counter upsert is atomic, so concurrent runs never
// collide.
func (s *GeneratorService) nextInvoiceNumber(ctx context.Context, agencyID string, now time.Time) (string, error) {
	period := now.Format("0601")
	seq, err := s.counters.NextSequence(ctx, agencyID, period)
	if err != nil {
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", s.policy.NumberPrefix, period, seq), nil
}

// raiseWorkflow creates an admin task; a failure here is logged but never
// blocks the validation error that triggered it.
func (s *GeneratorService) raiseWorkflow(ctx context.Context, workflow *models.AdminWorkflow) {
	if err := s.workflows.Create(ctx, workflow); err != nil {
		s.logger.Error("workflow creation failed",
			zap.String("type", workflow.Type),
			zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordWorkflowRaised(workflow.Type)
	}
}

// groupByClient buckets timesheets by client, preserving first-seen order.
func groupByClient(timesheets []models.Timesheet) ([]string, map[string][]models.Timesheet) {
	var order []string
	groups := make(map[string][]models.Timesheet)
	for _, ts := range timesheets {
		if _, seen := groups[ts.ClientID]; !seen {
			order = append(order, ts.ClientID)
		}
		groups[ts.ClientID] = append(groups[ts.ClientID], ts)
	}
	return order, groups
}

func rejectionExplanation(status models.ShiftStatus) string {
	if reason, ok := shiftRejectionReasons[status]; ok {
		return reason
	}
	return fmt.Sprintf("Shift status %q not eligible for invoicing", status)
}

// humaniseRole turns a role code like "registered_nurse" into
// "Registered Nurse".
func humaniseRole(role string) string {
	words := strings.Split(role, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func deadline(now time.Time, in time.Duration) *time.Time {
	d := now.Add(in)
	return &d
}
