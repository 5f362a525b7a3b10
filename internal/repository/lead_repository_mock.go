package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) ListLeads(ctx context.Context, tenantID string, params domain.LeadListParams) (*domain.LeadListResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeadListResponse), args.Error(1)
}

func (m *MockLeadRepository) GetLeadByID(ctx context.Context, tenantID string, id string) (*domain.Lead, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadRepository) CreateLead(ctx context.Context, tenantID string, lead *domain.Lead) error {
	args := m.Called(ctx, tenantID, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateLead(ctx context.Context, tenantID string, patch *domain.LeadPatch) error {
	args := m.Called(ctx, tenantID, patch)
	return args.Error(0)
}

func (m *MockLeadRepository) DeleteLead(ctx context.Context, tenantID string, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockLeadRepository) CountActiveByPipeline(ctx context.Context, tenantID string, pipelineID string) (int, error) {
	args := m.Called(ctx, tenantID, pipelineID)
	return args.Int(0), args.Error(1)
}
