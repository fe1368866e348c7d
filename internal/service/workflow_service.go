package service

import (
	"context"
	"fmt"

	"github.com/stafflink/finance-api/internal/models"
)

type workflowLister interface {
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.AdminWorkflow, error)
}

// WorkflowService exposes the admin task queue the core raises into.
type WorkflowService struct {
	workflows workflowLister
}

func NewWorkflowService(workflows workflowLister) *WorkflowService {
	return &WorkflowService{workflows: workflows}
}

func (s *WorkflowService) List(ctx context.Context, filter models.WorkflowFilter) ([]models.AdminWorkflow, error) {
	workflows, err := s.workflows.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return workflows, nil
}
