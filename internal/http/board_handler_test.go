package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pipeboard/pipeboard/internal/domain"
	"github.com/Pipeboard/pipeboard/internal/service"
	"github.com/Pipeboard/pipeboard/pkg/logger"
)

func newBoardMux(t *testing.T) (*http.ServeMux, *service.MockBoardService) {
	mockService := new(service.MockBoardService)
	handler := NewBoardHandler(mockService, logger.NewMockLogger(t))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux, mockService
}

func TestBoardHandler_Get(t *testing.T) {
	mux, mockService := newBoardMux(t)

	stageID := "s1"
	mockService.On("GetBoard", mock.Anything, &domain.GetBoardRequest{PipelineID: "p1", Limit: 15}).
		Return(&domain.Board{
			PipelineID: "p1",
			Columns: []domain.BoardColumn{
				{Key: "New", StageID: &stageID, Leads: []*domain.Lead{}},
				{Key: "Won", IsClosure: true, Leads: []*domain.Lead{}},
			},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/board.get?pipeline_id=p1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var board domain.Board
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&board))
	require.Len(t, board.Columns, 2)
	assert.Equal(t, "New", board.Columns[0].Key)
	assert.True(t, board.Columns[1].IsClosure)
}

func TestBoardHandler_Get_MissingPipelineID(t *testing.T) {
	mux, mockService := newBoardMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/board.get", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "GetBoard", mock.Anything, mock.Anything)
}

func TestBoardHandler_Column(t *testing.T) {
	mux, mockService := newBoardMux(t)

	mockService.On("GetColumn", mock.Anything, &domain.GetBoardColumnRequest{
		PipelineID: "p1",
		Status:     "Contacted",
		Page:       2,
		Limit:      15,
	}).Return(&domain.BoardColumn{
		Key:        "Contacted",
		Leads:      []*domain.Lead{{ID: "l1", Title: "Acme deal"}},
		Pagination: domain.NewPagination(31, 2, 15),
		HasMore:    true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/board.column?pipeline_id=p1&status=Contacted&page=2", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var column domain.BoardColumn
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&column))
	assert.True(t, column.HasMore)
}

func TestBoardHandler_Move(t *testing.T) {
	mux, mockService := newBoardMux(t)

	mockService.On("MoveLead", mock.Anything, mock.AnythingOfType("*domain.MoveLeadRequest")).
		Return(&domain.MoveLeadResponse{
			Moved: true,
			Lead:  &domain.Lead{ID: "l1", Status: "Contacted"},
		}, nil)

	body, _ := json.Marshal(map[string]string{"lead_id": "l1", "status": "Contacted"})
	req := httptest.NewRequest(http.MethodPost, "/api/board.move", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.MoveLeadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Moved)
}

func TestBoardHandler_Move_RejectedCarriesResync(t *testing.T) {
	mux, mockService := newBoardMux(t)

	mockService.On("MoveLead", mock.Anything, mock.AnythingOfType("*domain.MoveLeadRequest")).
		Return(&domain.MoveLeadResponse{
			Moved:        false,
			Error:        "a closure reason is required for Won",
			SourceColumn: &domain.BoardColumn{Key: "Qualified", Leads: []*domain.Lead{}},
			TargetColumn: &domain.BoardColumn{Key: "Won", IsClosure: true, Leads: []*domain.Lead{}},
		}, nil)

	body, _ := json.Marshal(map[string]string{"lead_id": "l1", "status": "Won"})
	req := httptest.NewRequest(http.MethodPost, "/api/board.move", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// Rejection is a domain outcome, not a transport failure
	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.MoveLeadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Moved)
	require.NotNil(t, resp.SourceColumn)
	assert.Equal(t, "Qualified", resp.SourceColumn.Key)
	require.NotNil(t, resp.TargetColumn)
}

func TestBoardHandler_Move_LeadNotFound(t *testing.T) {
	mux, mockService := newBoardMux(t)

	mockService.On("MoveLead", mock.Anything, mock.AnythingOfType("*domain.MoveLeadRequest")).
		Return(nil, &domain.ErrLeadNotFound{Message: "lead not found"})

	body, _ := json.Marshal(map[string]string{"lead_id": "missing", "status": "Contacted"})
	req := httptest.NewRequest(http.MethodPost, "/api/board.move", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
