package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

type BoardService struct {
	pipelineRepo domain.PipelineRepository
	leadRepo     domain.LeadRepository
	leadService  domain.LeadService
	authService  domain.AuthService
	logger       logger.Logger
}

func NewBoardService(pipelineRepo domain.PipelineRepository, leadRepo domain.LeadRepository, leadService domain.LeadService, authService domain.AuthService, logger logger.Logger) *BoardService {
	return &BoardService{
		pipelineRepo: pipelineRepo,
		leadRepo:     leadRepo,
		leadService:  leadService,
		authService:  authService,
		logger:       logger,
	}
}

// columnKeys lists the board's columns in render order: one per stage,
// then the three closure outcomes.
func columnKeys(pipeline *domain.Pipeline) []domain.BoardColumn {
	columns := make([]domain.BoardColumn, 0, len(pipeline.Stages)+3)
	for _, stage := range pipeline.Stages {
		stageID := stage.ID
		columns = append(columns, domain.BoardColumn{Key: stage.Name, StageID: &stageID})
	}
	for _, outcome := range domain.ClosureOutcomes() {
		columns = append(columns, domain.BoardColumn{Key: pipeline.OutcomeLabel(outcome), IsClosure: true})
	}
	return columns
}

// GetBoard loads page 1 of every column concurrently. Column fetches are
// independent queries, so a board with eight columns costs one round of
// parallel reads instead of eight sequential ones.
func (s *BoardService) GetBoard(ctx context.Context, req *domain.GetBoardRequest) (*domain.Board, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.pipelineRepo.GetPipelineByID(ctx, auth.TenantID, req.PipelineID)
	if err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); ok {
			return nil, err
		}
		s.logger.WithField("pipeline_id", req.PipelineID).Error(fmt.Sprintf("Failed to get pipeline: %v", err))
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	columns := columnKeys(pipeline)
	g, gctx := errgroup.WithContext(ctx)
	for i := range columns {
		i := i
		g.Go(func() error {
			page, err := s.loadColumnPage(gctx, auth.TenantID, req.PipelineID, columns[i].Key, 1, req.Limit, req.Search)
			if err != nil {
				return err
			}
			columns[i].Leads = page.Data
			columns[i].Pagination = page.Pagination
			columns[i].HasMore = page.Pagination.TotalPages > 1
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WithField("pipeline_id", req.PipelineID).Error(fmt.Sprintf("Failed to load board columns: %v", err))
		return nil, fmt.Errorf("failed to load board columns: %w", err)
	}

	return &domain.Board{
		PipelineID: pipeline.ID,
		Columns:    columns,
	}, nil
}

func (s *BoardService) loadColumnPage(ctx context.Context, tenantID string, pipelineID string, status string, page int, limit int, search string) (*domain.LeadListResponse, error) {
	return s.leadRepo.ListLeads(ctx, tenantID, domain.LeadListParams{
		Page:       page,
		Limit:      limit,
		Search:     search,
		PipelineID: pipelineID,
		Status:     status,
	})
}

// GetColumn loads one page of a single column
func (s *BoardService) GetColumn(ctx context.Context, req *domain.GetBoardColumnRequest) (*domain.BoardColumn, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadRead)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.pipelineRepo.GetPipelineByID(ctx, auth.TenantID, req.PipelineID)
	if err != nil {
		if _, ok := err.(*domain.ErrPipelineNotFound); ok {
			return nil, err
		}
		s.logger.WithField("pipeline_id", req.PipelineID).Error(fmt.Sprintf("Failed to get pipeline: %v", err))
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	return s.buildColumn(ctx, auth.TenantID, pipeline, req.Status, req.Page, req.Limit, req.Search)
}

// buildColumn resolves the status against the pipeline's columns and
// loads the requested page.
func (s *BoardService) buildColumn(ctx context.Context, tenantID string, pipeline *domain.Pipeline, status string, page int, limit int, search string) (*domain.BoardColumn, error) {
	column := domain.BoardColumn{Key: status}
	if stage, ok := pipeline.StageByName(status); ok {
		stageID := stage.ID
		column.Key = stage.Name
		column.StageID = &stageID
	} else if outcome, ok := pipeline.ResolveOutcome(status); ok {
		column.Key = pipeline.OutcomeLabel(outcome)
		column.IsClosure = true
	} else {
		return nil, domain.NewValidationError(fmt.Sprintf("status %q is not a column of pipeline %q", status, pipeline.Name))
	}

	resp, err := s.loadColumnPage(ctx, tenantID, pipeline.ID, column.Key, page, limit, search)
	if err != nil {
		s.logger.WithField("pipeline_id", pipeline.ID).Error(fmt.Sprintf("Failed to load board column: %v", err))
		return nil, fmt.Errorf("failed to load board column: %w", err)
	}

	column.Leads = resp.Data
	column.Pagination = resp.Pagination
	column.HasMore = resp.Pagination.TotalPages > resp.Pagination.Page
	return &column, nil
}

// MoveLead commits a drag-and-drop between columns. A rejected transition
// or a stale write does not error the call: the response carries fresh
// page-1 snapshots of the source and target columns so the client can
// roll back its optimistic move.
func (s *BoardService) MoveLead(ctx context.Context, req *domain.MoveLeadRequest) (*domain.MoveLeadResponse, error) {
	auth, err := s.authService.RequirePermission(ctx, domain.PermissionLeadUpdate)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.leadRepo.GetLeadByID(ctx, auth.TenantID, req.LeadID)
	if err != nil {
		if _, ok := err.(*domain.ErrLeadNotFound); ok {
			return nil, err
		}
		s.logger.WithField("lead_id", req.LeadID).Error(fmt.Sprintf("Failed to get lead: %v", err))
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	sourceStatus := lead.Status

	moved, err := s.leadService.TransitionLead(ctx, &domain.TransitionLeadRequest{
		ID:           req.LeadID,
		Status:       req.Status,
		ClosedReason: req.ClosedReason,
	})
	if err == nil {
		return &domain.MoveLeadResponse{Moved: true, Lead: moved}, nil
	}

	switch err.(type) {
	case domain.ValidationError, *domain.ErrLeadStaleWrite:
	default:
		return nil, err
	}

	resync := &domain.MoveLeadResponse{Error: err.Error()}
	pipeline, pipeErr := s.pipelineRepo.GetPipelineByID(ctx, auth.TenantID, lead.PipelineID)
	if pipeErr != nil {
		s.logger.WithField("pipeline_id", lead.PipelineID).Error(fmt.Sprintf("Failed to get pipeline for resync: %v", pipeErr))
		return nil, fmt.Errorf("failed to get pipeline for resync: %w", pipeErr)
	}

	source, srcErr := s.buildColumn(ctx, auth.TenantID, pipeline, sourceStatus, 1, req.Limit, "")
	if srcErr != nil {
		return nil, srcErr
	}
	resync.SourceColumn = source

	// The requested target may not be a real column at all; skip the
	// snapshot rather than fail the resync
	if target, tgtErr := s.buildColumn(ctx, auth.TenantID, pipeline, req.Status, 1, req.Limit, ""); tgtErr == nil {
		resync.TargetColumn = target
	}

	return resync, nil
}
