package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type MockPipelineRepository struct {
	mock.Mock
}

func (m *MockPipelineRepository) ListPipelines(ctx context.Context, tenantID string, module string) ([]*domain.Pipeline, error) {
	args := m.Called(ctx, tenantID, module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) GetPipelineByID(ctx context.Context, tenantID string, id string) (*domain.Pipeline, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) CreatePipeline(ctx context.Context, tenantID string, pipeline *domain.Pipeline) error {
	args := m.Called(ctx, tenantID, pipeline)
	return args.Error(0)
}

func (m *MockPipelineRepository) UpdatePipeline(ctx context.Context, tenantID string, pipeline *domain.Pipeline) error {
	args := m.Called(ctx, tenantID, pipeline)
	return args.Error(0)
}

func (m *MockPipelineRepository) DeletePipeline(ctx context.Context, tenantID string, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}
