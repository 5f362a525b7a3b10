package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBoardRequestFromURLParams(t *testing.T) {
	var req GetBoardRequest
	require.NoError(t, req.FromURLParams(url.Values{"pipeline_id": {"p1"}}))
	assert.Equal(t, "p1", req.PipelineID)
	assert.Equal(t, 15, req.Limit)

	req = GetBoardRequest{}
	require.NoError(t, req.FromURLParams(url.Values{"pipeline_id": {"p1"}, "limit": {"200"}}))
	assert.Equal(t, 50, req.Limit)

	req = GetBoardRequest{}
	assert.Error(t, req.FromURLParams(url.Values{}))

	req = GetBoardRequest{}
	assert.Error(t, req.FromURLParams(url.Values{"pipeline_id": {"p1"}, "limit": {"many"}}))
}

func TestGetBoardColumnRequestFromURLParams(t *testing.T) {
	var req GetBoardColumnRequest
	require.NoError(t, req.FromURLParams(url.Values{
		"pipeline_id": {"p1"},
		"status":      {"Contacted"},
		"page":        {"3"},
	}))
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 15, req.Limit)

	req = GetBoardColumnRequest{}
	assert.Error(t, req.FromURLParams(url.Values{"pipeline_id": {"p1"}}))
}

func TestMoveLeadRequestValidate(t *testing.T) {
	req := &MoveLeadRequest{LeadID: "l1", Status: "Contacted"}
	require.NoError(t, req.Validate())
	assert.Equal(t, 15, req.Limit)

	assert.Error(t, (&MoveLeadRequest{Status: "Contacted"}).Validate())
	assert.Error(t, (&MoveLeadRequest{LeadID: "l1"}).Validate())
}
