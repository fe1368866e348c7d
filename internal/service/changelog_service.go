package service

import (
	"context"
	"fmt"

	"github.com/stafflink/finance-api/internal/models"
)

type changeLogLister interface {
	List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error)
}

// ChangeLogService exposes the append-only audit trail for review.
type ChangeLogService struct {
	changeLogs changeLogLister
}

func NewChangeLogService(changeLogs changeLogLister) *ChangeLogService {
	return &ChangeLogService{changeLogs: changeLogs}
}

func (s *ChangeLogService) List(ctx context.Context, filter models.ChangeLogFilter) ([]models.ChangeLog, error) {
	entries, err := s.changeLogs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list change logs: %w", err)
	}
	return entries, nil
}
