package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

type LeadService struct {
	repo         domain.LeadRepository
	pipelineRepo domain.PipelineRepository
	authService  domain.AuthService
	logger       logger.Logger
}

func NewLeadService(repo domain.LeadRepository, pipelineRepo domain.PipelineRepository, authService domain.AuthService, logger logger.Logger) *LeadService {
	return &LeadService{
		repo:         repo,
		pipelineRepo: pipelineRepo,
		authService:  authService,
		logger:       logger,
	}
}

func (s *LeadService) ListLeads(ctx context.Context, params domain.LeadListParams) (*domain.LeadListResponse, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	resp, err := s.repo.ListLeads(ctx, auth.TenantID, params)
	if err != nil {
		if _, ok := err.(domain.ValidationError); ok {
			return nil, err
		}
		s.logger.Error(fmt.Sprintf("Failed to list leads: %v", err))
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return resp, nil
}

func (s *LeadService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	return s.getLead(ctx, auth.TenantID, id)
}

func (s *LeadService) getLead(ctx context.Context, tenantID string, id string) (*domain.Lead, error) {
	lead, err := s.repo.GetLeadByID(ctx, tenantID, id)
	if err != nil {
		if _, ok := err.(*domain.ErrLeadNotFound); ok {
			return nil, err
		}
		s.logger.WithField("lead_id", id).Error(fmt.Sprintf("Failed to get lead: %v", err))
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// CreateLead places the lead in its pipeline. An empty status defaults to
// the pipeline's first stage; a non-empty one goes through full
// transition validation, so a lead can be created directly into any
// stage or closure outcome.
func (s *LeadService) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadCreate)
	if err != nil {
		return nil, err
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	pipeline, err := s.pipelineRepo.GetPipelineByID(ctx, auth.TenantID, lead.PipelineID)
	if err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); ok {
			return nil, domain.NewValidationError(fmt.Sprintf("pipeline %q does not exist", lead.PipelineID))
		}
		s.logger.WithField("pipeline_id", lead.PipelineID).Error(fmt.Sprintf("Failed to get pipeline: %v", err))
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	if lead.Status == "" {
		lead.Status = pipeline.Stages[0].Name
	}
	resolution, err := domain.ResolveTransition(pipeline, lead.Status, lead.ClosedReason)
	if err != nil {
		return nil, err
	}
	lead.Status = resolution.Status
	lead.StageID = resolution.StageID
	lead.ClosedReason = resolution.ClosedReason
	if resolution.Closed {
		now := time.Now().UTC()
		lead.ClosedTime = &now
	} else {
		lead.ClosedTime = nil
	}

	if err := s.repo.CreateLead(ctx, auth.TenantID, lead); err != nil {
		s.logger.WithField("lead_id", lead.ID).Error(fmt.Sprintf("Failed to create lead: %v", err))
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	return s.getLead(ctx, auth.TenantID, lead.ID)
}

// UpdateLead applies a partial update. A status inside the patch is a
// transition request and goes through the same validation as a board
// move; the patch then carries the resolved stage reference and closure
// fields to the repository.
func (s *LeadService) UpdateLead(ctx context.Context, patch *domain.LeadPatch) (*domain.Lead, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadUpdate)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		lead, err := s.getLead(ctx, auth.TenantID, patch.ID)
		if err != nil {
			return nil, err
		}
		if err := s.resolveStatusChange(ctx, auth.TenantID, lead.PipelineID, patch); err != nil {
			return nil, err
		}
	}

	if err := s.applyPatch(ctx, auth.TenantID, patch); err != nil {
		return nil, err
	}

	return s.getLead(ctx, auth.TenantID, patch.ID)
}

// resolveStatusChange validates the requested status against the lead's
// pipeline and rewrites the patch with the canonical resolution.
// Reopening a closed lead clears its closure fields.
func (s *LeadService) resolveStatusChange(ctx context.Context, tenantID string, pipelineID string, patch *domain.LeadPatch) error {
	pipeline, err := s.pipelineRepo.GetPipelineByID(ctx, tenantID, pipelineID)
	if err != nil {
		s.logger.WithField("pipeline_id", pipelineID).Error(fmt.Sprintf("Failed to get pipeline: %v", err))
		return fmt.Errorf("failed to get pipeline: %w", err)
	}

	requestedReason := ""
	if patch.ClosedReason != nil {
		requestedReason = *patch.ClosedReason
	}

	resolution, err := domain.ResolveTransition(pipeline, *patch.Status, requestedReason)
	if err != nil {
		return err
	}

	patch.Status = &resolution.Status
	patch.StageID = resolution.StageID
	patch.StageIDSet = true
	reason := resolution.ClosedReason
	patch.ClosedReason = &reason
	patch.ClosedTimeSet = true
	if resolution.Closed {
		now := time.Now().UTC()
		patch.ClosedTime = &now
	} else {
		patch.ClosedTime = nil
	}

	return nil
}

func (s *LeadService) applyPatch(ctx context.Context, tenantID string, patch *domain.LeadPatch) error {
	if err := s.repo.UpdateLead(ctx, tenantID, patch); err != nil {
		switch err.(type) {
		case *domain.ErrLeadNotFound, *domain.ErrLeadStaleWrite:
			return err
		}
		s.logger.WithField("lead_id", patch.ID).Error(fmt.Sprintf("Failed to update lead: %v", err))
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return nil
}

func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadDelete)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteLead(ctx, auth.TenantID, id); err != nil {
		if _, ok := err.(*domain.ErrLeadNotFound); ok {
			return err
		}
		s.logger.WithField("lead_id", id).Error(fmt.Sprintf("Failed to delete lead: %v", err))
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	return nil
}

// TransitionLead commits a confirmed stage or closure transition
func (s *LeadService) TransitionLead(ctx context.Context, req *domain.TransitionLeadRequest) (*domain.Lead, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadUpdate)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.getLead(ctx, auth.TenantID, req.ID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	reason := req.ClosedReason
	patch := &domain.LeadPatch{
		ID:                req.ID,
		Status:            &status,
		ClosedReason:      &reason,
		ExpectedUpdatedAt: req.UpdatedAt,
	}
	if err := s.resolveStatusChange(ctx, auth.TenantID, lead.PipelineID, patch); err != nil {
		return nil, err
	}

	if err := s.applyPatch(ctx, auth.TenantID, patch); err != nil {
		return nil, err
	}

	return s.getLead(ctx, auth.TenantID, req.ID)
}

// GetProgression returns the lead's classified stage bar and closure
// options, optionally highlighting a pending target stage.
func (s *LeadService) GetProgression(ctx context.Context, id string, target string) (*domain.Progression, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	lead, err := s.getLead(ctx, auth.TenantID, id)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.pipelineRepo.GetPipelineByID(ctx, auth.TenantID, lead.PipelineID)
	if err != nil {
		s.logger.WithField("pipeline_id", lead.PipelineID).Error(fmt.Sprintf("Failed to get pipeline: %v", err))
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	if target != "" {
		if _, ok := pipeline.StageByName(target); !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("target %q is not a stage of pipeline %q", target, pipeline.Name))
		}
	}

	return domain.BuildProgression(pipeline, lead, target), nil
}
