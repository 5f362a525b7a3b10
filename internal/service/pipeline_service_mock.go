package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) ListPipelines(ctx context.Context, module string) ([]*domain.Pipeline, error) {
	args := m.Called(ctx, module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Pipeline), args.Error(1)
}

func (m *MockPipelineService) SavePipeline(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	args := m.Called(ctx, pipeline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pipeline), args.Error(1)
}

func (m *MockPipelineService) DeletePipeline(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPipelineService) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pipeline), args.Error(1)
}
