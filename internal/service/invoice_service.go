package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stafflink/finance-api/internal/models"
	appErrors "github.com/stafflink/finance-api/pkg/errors"
)

type invoiceLister interface {
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
}

type invoiceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

func invoiceCacheKey(id string) string {
	return "invoice:" + id
}

// InvoiceService is the read surface over invoices, with an optional
// per-invoice cache. Listing always hits the database since filters do not
// cache well.
type InvoiceService struct {
	invoices invoiceLister
	cache    invoiceCache
	ttl      time.Duration
	logger   *zap.Logger
}

func NewInvoiceService(invoices invoiceLister, cache invoiceCache, ttl time.Duration, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Get fetches one invoice, serving from cache when possible.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	if s.cache != nil {
		var cached models.Invoice
		if err := s.cache.Get(ctx, invoiceCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	invoice, err := s.invoices.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("invoice %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, invoiceCacheKey(id), invoice, s.ttl); err != nil {
			s.logger.Warn("invoice cache set failed", zap.String("invoice_id", id), zap.Error(err))
		}
	}
	return invoice, nil
}

// List returns invoices matching the filter.
func (s *InvoiceService) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	invoices, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}
