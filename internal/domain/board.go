package domain

import (
	"context"
	"net/url"
	"strconv"
)

const (
	defaultBoardPageSize = 15
	maxBoardPageSize     = 50
)

// BoardColumn is one independently paginated kanban column: all leads of
// one pipeline whose status equals the column key.
type BoardColumn struct {
	Key        string     `json:"key"`
	StageID    *string    `json:"stage_id,omitempty"`
	IsClosure  bool       `json:"is_closure"`
	Leads      []*Lead    `json:"leads"`
	Pagination Pagination `json:"pagination"`
	HasMore    bool       `json:"has_more"`
}

// Board is the per-pipeline kanban view: one column per stage in order,
// then the three closure columns.
type Board struct {
	PipelineID string        `json:"pipeline_id"`
	Columns    []BoardColumn `json:"columns"`
}

type GetBoardRequest struct {
	PipelineID string `json:"pipeline_id"`
	Limit      int    `json:"limit"`
	Search     string `json:"search,omitempty"`
}

func (r *GetBoardRequest) FromURLParams(queryParams url.Values) error {
	r.PipelineID = queryParams.Get("pipeline_id")
	if r.PipelineID == "" {
		return NewValidationError("pipeline_id is required")
	}
	if raw := queryParams.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("limit must be an integer")
		}
		r.Limit = limit
	}
	if r.Limit <= 0 {
		r.Limit = defaultBoardPageSize
	}
	if r.Limit > maxBoardPageSize {
		r.Limit = maxBoardPageSize
	}
	r.Search = queryParams.Get("search")
	if len(r.Search) > 255 {
		return NewValidationError("search length must be between 0 and 255")
	}
	return nil
}

type GetBoardColumnRequest struct {
	PipelineID string `json:"pipeline_id"`
	Status     string `json:"status"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Search     string `json:"search,omitempty"`
}

func (r *GetBoardColumnRequest) FromURLParams(queryParams url.Values) error {
	r.PipelineID = queryParams.Get("pipeline_id")
	r.Status = queryParams.Get("status")
	if r.PipelineID == "" {
		return NewValidationError("pipeline_id is required")
	}
	if r.Status == "" {
		return NewValidationError("status is required")
	}
	if raw := queryParams.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("page must be an integer")
		}
		r.Page = page
	}
	if r.Page <= 0 {
		r.Page = 1
	}
	if raw := queryParams.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("limit must be an integer")
		}
		r.Limit = limit
	}
	if r.Limit <= 0 {
		r.Limit = defaultBoardPageSize
	}
	if r.Limit > maxBoardPageSize {
		r.Limit = maxBoardPageSize
	}
	r.Search = queryParams.Get("search")
	return nil
}

// MoveLeadRequest is the server side of a drag-and-drop between columns
type MoveLeadRequest struct {
	LeadID       string `json:"lead_id"`
	Status       string `json:"status"`
	ClosedReason string `json:"closed_reason,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

func (r *MoveLeadRequest) Validate() error {
	if r.LeadID == "" {
		return NewValidationError("lead_id is required")
	}
	if r.Status == "" {
		return NewValidationError("status is required")
	}
	if r.Limit <= 0 {
		r.Limit = defaultBoardPageSize
	}
	return nil
}

// MoveLeadResponse reports the outcome of a move. When the transition is
// rejected the response carries fresh page-1 snapshots of the source and
// target columns so the client can roll back its optimistic move.
type MoveLeadResponse struct {
	Moved        bool         `json:"moved"`
	Lead         *Lead        `json:"lead,omitempty"`
	Error        string       `json:"error,omitempty"`
	SourceColumn *BoardColumn `json:"source_column,omitempty"`
	TargetColumn *BoardColumn `json:"target_column,omitempty"`
}

// BoardService provides the kanban board operations
type BoardService interface {
	// GetBoard loads page 1 of every column of a pipeline
	GetBoard(ctx context.Context, req *GetBoardRequest) (*Board, error)

	// GetColumn loads one page of a single column
	GetColumn(ctx context.Context, req *GetBoardColumnRequest) (*BoardColumn, error)

	// MoveLead commits a cross-column move, returning resync columns on a
	// rejected transition
	MoveLead(ctx context.Context, req *MoveLeadRequest) (*MoveLeadResponse, error)
}
