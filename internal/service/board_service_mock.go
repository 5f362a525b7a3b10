package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) GetBoard(ctx context.Context, req *domain.GetBoardRequest) (*domain.Board, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Board), args.Error(1)
}

func (m *MockBoardService) GetColumn(ctx context.Context, req *domain.GetBoardColumnRequest) (*domain.BoardColumn, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BoardColumn), args.Error(1)
}

func (m *MockBoardService) MoveLead(ctx context.Context, req *domain.MoveLeadRequest) (*domain.MoveLeadResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MoveLeadResponse), args.Error(1)
}
