package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/internal/repository"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

func newLeadService(t *testing.T) (*LeadService, *repository.MockLeadRepository, *repository.MockPipelineRepository, *MockAuthService) {
	mockRepo := new(repository.MockLeadRepository)
	mockPipelineRepo := new(repository.MockPipelineRepository)
	mockAuth := new(MockAuthService)
	s := NewLeadService(mockRepo, mockPipelineRepo, mockAuth, logger.NewMockLogger(t))
	return s, mockRepo, mockPipelineRepo, mockAuth
}

func TestLeadService_ListLeads(t *testing.T) {
	s, mockRepo, _, mockAuth := newLeadService(t)

	params := domain.LeadListParams{Page: 1, Limit: 10}
	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadRead).
		Return(testAuthContext(domain.PermissionLeadRead), nil)
	mockRepo.On("ListLeads", mock.Anything, "tenant1", params).
		Return(&domain.LeadListResponse{
			Data:       []*domain.Lead{{ID: "l1", Title: "Acme deal"}},
			Pagination: domain.NewPagination(1, 1, 10),
		}, nil)

	resp, err := s.ListLeads(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestLeadService_CreateLead_DefaultsToFirstStage(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadCreate).
		Return(testAuthContext(domain.PermissionLeadCreate), nil)
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)
	mockRepo.On("CreateLead", mock.Anything, "tenant1", mock.AnythingOfType("*domain.Lead")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*domain.Lead).ID = "l1"
		}).
		Return(nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", Status: "New", Title: "Acme deal"}, nil)

	lead := &domain.Lead{PipelineID: "p1", Title: "Acme deal"}
	created, err := s.CreateLead(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, "New", created.Status)
	require.NotNil(t, lead.StageID)
	assert.Equal(t, "s1", *lead.StageID)
}

func TestLeadService_CreateLead_UnknownPipeline(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadCreate).
		Return(testAuthContext(domain.PermissionLeadCreate), nil)
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "missing").
		Return(nil, &domain.ErrPipelineNotFound{Message: "pipeline not found"})

	_, err := s.CreateLead(context.Background(), &domain.Lead{PipelineID: "missing", Title: "Acme deal"})
	var validationErr domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeadService_UpdateLead_ScalarOnlySkipsPipelineLookup(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	title := "Bigger deal"
	patch := &domain.LeadPatch{ID: "l1", Title: &title}

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadUpdate).
		Return(testAuthContext(domain.PermissionLeadUpdate), nil)
	mockRepo.On("UpdateLead", mock.Anything, "tenant1", patch).Return(nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", Title: title}, nil)

	updated, err := s.UpdateLead(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	mockPipelineRepo.AssertNotCalled(t, "GetPipelineByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeadService_UpdateLead_StatusChangeResolvesTransition(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	status := "Contacted"
	patch := &domain.LeadPatch{ID: "l1", Status: &status}

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadUpdate).
		Return(testAuthContext(domain.PermissionLeadUpdate), nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "New", Title: "Acme deal"}, nil).Once()
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)
	mockRepo.On("UpdateLead", mock.Anything, "tenant1", patch).Return(nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "Contacted", Title: "Acme deal"}, nil)

	updated, err := s.UpdateLead(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, "Contacted", updated.Status)

	require.True(t, patch.StageIDSet)
	require.NotNil(t, patch.StageID)
	assert.Equal(t, "s2", *patch.StageID)
	assert.True(t, patch.ClosedTimeSet)
	assert.Nil(t, patch.ClosedTime)
}

func TestLeadService_TransitionLead_ClosureRequiresReason(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadUpdate).
		Return(testAuthContext(domain.PermissionLeadUpdate), nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "Qualified", Title: "Acme deal"}, nil)
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)

	_, err := s.TransitionLead(context.Background(), &domain.TransitionLeadRequest{
		ID:     "l1",
		Status: "Won",
	})
	var validationErr domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeadService_TransitionLead_Closure(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadUpdate).
		Return(testAuthContext(domain.PermissionLeadUpdate), nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "Qualified", Title: "Acme deal"}, nil).Once()
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)

	var applied *domain.LeadPatch
	mockRepo.On("UpdateLead", mock.Anything, "tenant1", mock.AnythingOfType("*domain.LeadPatch")).
		Run(func(args mock.Arguments) {
			applied = args.Get(2).(*domain.LeadPatch)
		}).
		Return(nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "Won", ClosedReason: "Good fit", Title: "Acme deal"}, nil)

	lead, err := s.TransitionLead(context.Background(), &domain.TransitionLeadRequest{
		ID:           "l1",
		Status:       "Won",
		ClosedReason: "Good fit",
	})
	require.NoError(t, err)
	assert.Equal(t, "Won", lead.Status)

	require.NotNil(t, applied)
	assert.Equal(t, "Won", *applied.Status)
	assert.Nil(t, applied.StageID)
	assert.True(t, applied.StageIDSet)
	assert.Equal(t, "Good fit", *applied.ClosedReason)
	require.True(t, applied.ClosedTimeSet)
	require.NotNil(t, applied.ClosedTime)
}

func TestLeadService_TransitionLead_StaleWrite(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	staleTime := time.Now().Add(-time.Minute)
	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadUpdate).
		Return(testAuthContext(domain.PermissionLeadUpdate), nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "New", Title: "Acme deal"}, nil)
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)
	mockRepo.On("UpdateLead", mock.Anything, "tenant1", mock.AnythingOfType("*domain.LeadPatch")).
		Return(&domain.ErrLeadStaleWrite{LeadID: "l1"})

	_, err := s.TransitionLead(context.Background(), &domain.TransitionLeadRequest{
		ID:        "l1",
		Status:    "Contacted",
		UpdatedAt: &staleTime,
	})
	var stale *domain.ErrLeadStaleWrite
	assert.ErrorAs(t, err, &stale)
}

func TestLeadService_GetProgression(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadRead).
		Return(testAuthContext(domain.PermissionLeadRead), nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "Contacted", Title: "Acme deal"}, nil)
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)

	progression, err := s.GetProgression(context.Background(), "l1", "Qualified")
	require.NoError(t, err)
	assert.False(t, progression.Closed)
	require.Len(t, progression.Stages, 3)
	assert.Equal(t, domain.StagePast, progression.Stages[0].Position)
	assert.Equal(t, domain.StageActive, progression.Stages[1].Position)
	assert.Equal(t, domain.StageTarget, progression.Stages[2].Position)
	require.Len(t, progression.ClosureOptions, 3)
	assert.True(t, progression.ClosureOptions[0].ReasonRequired)
	assert.False(t, progression.ClosureOptions[2].ReasonRequired)
}

func TestLeadService_GetProgression_UnknownTarget(t *testing.T) {
	s, mockRepo, mockPipelineRepo, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadRead).
		Return(testAuthContext(domain.PermissionLeadRead), nil)
	mockRepo.On("GetLeadByID", mock.Anything, "tenant1", "l1").
		Return(&domain.Lead{ID: "l1", PipelineID: "p1", Status: "Contacted", Title: "Acme deal"}, nil)
	mockPipelineRepo.On("GetPipelineByID", mock.Anything, "tenant1", "p1").
		Return(testPipeline(), nil)

	_, err := s.GetProgression(context.Background(), "l1", "Imaginary")
	var validationErr domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLeadService_DeleteLead_NotFound(t *testing.T) {
	s, mockRepo, _, mockAuth := newLeadService(t)

	mockAuth.On("RequirePermission", mock.Anything, domain.PermissionLeadDelete).
		Return(testAuthContext(domain.PermissionLeadDelete), nil)
	mockRepo.On("DeleteLead", mock.Anything, "tenant1", "missing").
		Return(&domain.ErrLeadNotFound{Message: "lead not found"})

	err := s.DeleteLead(context.Background(), "missing")
	var notFound *domain.ErrLeadNotFound
	assert.ErrorAs(t, err, &notFound)
}
