package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

type PipelineService struct {
	repo        domain.PipelineRepository
	leadRepo    domain.LeadRepository
	authService domain.AuthService
	logger      logger.Logger
}

func NewPipelineService(repo domain.PipelineRepository, leadRepo domain.LeadRepository, authService domain.AuthService, logger logger.Logger) *PipelineService {
	return &PipelineService{
		repo:        repo,
		leadRepo:    leadRepo,
		authService: authService,
		logger:      logger,
	}
}

func (s *PipelineService) ListPipelines(ctx context.Context, module string) ([]*domain.Pipeline, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	pipelines, err := s.repo.ListPipelines(ctx, auth.TenantID, module)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to list pipelines: %v", err))
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}

	return pipelines, nil
}

func (s *PipelineService) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.repo.GetPipelineByID(ctx, auth.TenantID, id)
	if err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); ok {
			return nil, err
		}
		s.logger.WithField("pipeline_id", id).Error(fmt.Sprintf("Failed to get pipeline: %v", err))
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	return pipeline, nil
}

// SavePipeline creates the pipeline when it carries no id, otherwise
// reconciles the stored one against the submitted stage and reason lists.
func (s *PipelineService) SavePipeline(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionSettingsUpdate)
	if err != nil {
		return nil, err
	}

	if err := pipeline.Validate(); err != nil {
		return nil, err
	}

	if pipeline.ID == "" {
		pipeline.ID = uuid.New().String()
		if err := s.repo.CreatePipeline(ctx, auth.TenantID, pipeline); err != nil {
			s.logger.WithField("pipeline_id", pipeline.ID).Error(fmt.Sprintf("Failed to create pipeline: %v", err))
			return nil, fmt.Errorf("failed to create pipeline: %w", err)
		}
	} else {
		if err := s.repo.UpdatePipeline(ctx, auth.TenantID, pipeline); err != nil {
			if _, ok := err.(*domain.ErrPipelineNotFound); ok {
				return nil, err
			}
			s.logger.WithField("pipeline_id", pipeline.ID).Error(fmt.Sprintf("Failed to update pipeline: %v", err))
			return nil, fmt.Errorf("failed to update pipeline: %w", err)
		}
	}

	// Re-read so generated stage and reason ids come back to the caller
	saved, err := s.repo.GetPipelineByID(ctx, auth.TenantID, pipeline.ID)
	if err != nil {
		s.logger.WithField("pipeline_id", pipeline.ID).Error(fmt.Sprintf("Failed to reload saved pipeline: %v", err))
		return nil, fmt.Errorf("failed to reload saved pipeline: %w", err)
	}

	return saved, nil
}

// DeletePipeline refuses to remove a pipeline that still has live leads
func (s *PipelineService) DeletePipeline(ctx context.Context, id string) error {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionSettingsUpdate)
	if err != nil {
		return err
	}

	count, err := s.leadRepo.CountActiveByPipeline(ctx, auth.TenantID, id)
	if err != nil {
		s.logger.WithField("pipeline_id", id).Error(fmt.Sprintf("Failed to count pipeline leads: %v", err))
		return fmt.Errorf("failed to count pipeline leads: %w", err)
	}
	if count > 0 {
		return &domain.ErrPipelineHasLeads{PipelineID: id, LeadCount: count}
	}

	if err := s.repo.DeletePipeline(ctx, auth.TenantID, id); err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); ok {
			return err
		}
		s.logger.WithField("pipeline_id", id).Error(fmt.Sprintf("Failed to delete pipeline: %v", err))
		return fmt.Errorf("failed to delete pipeline: %w", err)
	}

	return nil
}
