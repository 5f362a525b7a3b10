package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) ListLeads(ctx context.Context, params domain.LeadListParams) (*domain.LeadListResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeadListResponse), args.Error(1)
}

func (m *MockLeadService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadService) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadService) UpdateLead(ctx context.Context, patch *domain.LeadPatch) (*domain.Lead, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadService) DeleteLead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLeadService) TransitionLead(ctx context.Context, req *domain.TransitionLeadRequest) (*domain.Lead, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadService) GetProgression(ctx context.Context, id string, target string) (*domain.Progression, error) {
	args := m.Called(ctx, id, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Progression), args.Error(1)
}
