package domain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// LeadPhone is a phone number attached to a lead
type LeadPhone struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number"`
}

// LeadEmail is an email address attached to a lead
type LeadEmail struct {
	Type    string `json:"type,omitempty"`
	Address string `json:"address"`
}

// LeadAddress is the postal address attached to a lead
type LeadAddress struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

// Lead is a sales lead progressing through one pipeline. Status holds the
// display label of the current stage or closure outcome; StageID is the
// canonical stage reference (nil when the lead sits in a closure state).
type Lead struct {
	ID           string       `json:"id"`
	PipelineID   string       `json:"pipeline_id"`
	StageID      *string      `json:"stage_id,omitempty"`
	Status       string       `json:"status"`
	Title        string       `json:"title"`
	Company      string       `json:"company,omitempty"`
	Email        string       `json:"email,omitempty"`
	OwnerID      string       `json:"owner_id,omitempty"`
	OwnerName    string       `json:"owner_name,omitempty"`
	ReqAmount    float64      `json:"req_amount,omitempty"`
	ClosedReason string       `json:"closed_reason,omitempty"`
	ClosedTime   *time.Time   `json:"closed_time,omitempty"`
	Phones       []LeadPhone  `json:"phones,omitempty"`
	Emails       []LeadEmail  `json:"emails,omitempty"`
	Address      *LeadAddress `json:"address,omitempty"`
	IsDeleted    bool         `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Validate performs validation on the lead fields
func (l *Lead) Validate() error {
	if l.PipelineID == "" {
		return NewValidationError("pipeline_id is required")
	}
	if l.Title == "" {
		return NewValidationError("title is required")
	}
	if len(l.Title) > 255 {
		return NewValidationError("title length must be between 1 and 255")
	}
	if l.Email != "" && !govalidator.IsEmail(l.Email) {
		return NewValidationError("email is not valid")
	}
	if l.ReqAmount < 0 {
		return NewValidationError("req_amount must not be negative")
	}
	return nil
}

// Pagination describes the page window of a list response
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes total_pages = ceil(total/limit)
func NewPagination(total, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// LeadListResponse is a page of leads plus its pagination window
type LeadListResponse struct {
	Data       []*Lead    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// leadSortColumns is the allow-list for sort keys. The repository
// interpolates the validated key into ORDER BY, so nothing outside this
// set may ever pass validation.
var leadSortColumns = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"title":       true,
	"company":     true,
	"email":       true,
	"status":      true,
	"req_amount":  true,
	"closed_time": true,
}

const (
	defaultLeadPageSize = 50
	maxLeadPageSize     = 100
)

// LeadListParams are the filtering, sorting and paging knobs of leads.list.
// Filters are conjunctive; pipeline and status are exact matches so the
// kanban board can ask for page N of one column.
type LeadListParams struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Search     string `json:"search,omitempty"`
	PipelineID string `json:"pipeline_id,omitempty"`
	Status     string `json:"status,omitempty"`
	SortBy     string `json:"sort_by,omitempty"`
	SortOrder  string `json:"sort_order,omitempty"`
}

// Validate applies defaults and rejects unknown sort keys
func (p *LeadListParams) Validate() error {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultLeadPageSize
	}
	if p.Limit > maxLeadPageSize {
		p.Limit = maxLeadPageSize
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if !leadSortColumns[p.SortBy] {
		return NewValidationError(fmt.Sprintf("sort_by %q is not a sortable column", p.SortBy))
	}
	switch strings.ToLower(p.SortOrder) {
	case "":
		p.SortOrder = "desc"
	case "asc", "desc":
		p.SortOrder = strings.ToLower(p.SortOrder)
	default:
		return NewValidationError("sort_order must be asc or desc")
	}
	if len(p.Search) > 255 {
		return NewValidationError("search length must be between 0 and 255")
	}
	return nil
}

// Offset returns the OFFSET for the validated page window
func (p *LeadListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FromURLParams parses list parameters from the query string
func (p *LeadListParams) FromURLParams(queryParams url.Values) error {
	if raw := queryParams.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("page must be an integer")
		}
		p.Page = page
	}
	if raw := queryParams.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("limit must be an integer")
		}
		p.Limit = limit
	}
	p.Search = queryParams.Get("search")
	p.PipelineID = queryParams.Get("pipeline_id")
	p.Status = queryParams.Get("status")
	p.SortBy = queryParams.Get("sort_by")
	p.SortOrder = queryParams.Get("sort_order")

	return p.Validate()
}

// Request/Response types

type CreateLeadRequest struct {
	PipelineID string       `json:"pipeline_id"`
	Status     string       `json:"status,omitempty"`
	Title      string       `json:"title"`
	Company    string       `json:"company,omitempty"`
	Email      string       `json:"email,omitempty"`
	OwnerID    string       `json:"owner_id,omitempty"`
	ReqAmount  float64      `json:"req_amount,omitempty"`
	Phones     []LeadPhone  `json:"phones,omitempty"`
	Emails     []LeadEmail  `json:"emails,omitempty"`
	Address    *LeadAddress `json:"address,omitempty"`
}

func (r *CreateLeadRequest) Validate() (*Lead, error) {
	lead := &Lead{
		PipelineID: r.PipelineID,
		Status:     r.Status,
		Title:      r.Title,
		Company:    r.Company,
		Email:      r.Email,
		OwnerID:    r.OwnerID,
		ReqAmount:  r.ReqAmount,
		Phones:     r.Phones,
		Emails:     r.Emails,
		Address:    r.Address,
	}
	if err := lead.Validate(); err != nil {
		return nil, err
	}
	return lead, nil
}

// LeadPatch is a partial update: nil pointers leave the stored value
// untouched. Child collections are replaced only when their Set flag is
// true, so a status-only patch never wipes phones/emails/address.
type LeadPatch struct {
	ID        string
	Title     *string
	Company   *string
	Email     *string
	OwnerID   *string
	ReqAmount *float64

	// Status transition, resolved by the service before hitting the
	// repository
	Status        *string
	StageID       *string
	StageIDSet    bool
	ClosedReason  *string
	ClosedTime    *time.Time
	ClosedTimeSet bool

	Phones     []LeadPhone
	PhonesSet  bool
	Emails     []LeadEmail
	EmailsSet  bool
	Address    *LeadAddress
	AddressSet bool

	// Optional optimistic-concurrency precondition
	ExpectedUpdatedAt *time.Time
}

// HasScalarChanges reports whether the patch touches any lead column
func (p *LeadPatch) HasScalarChanges() bool {
	return p.Title != nil || p.Company != nil || p.Email != nil ||
		p.OwnerID != nil || p.ReqAmount != nil || p.Status != nil
}

// UpdateLeadRequest is the wire form of leads.update. The handler fills
// the Set flags from key presence in the raw payload.
type UpdateLeadRequest struct {
	ID           string       `json:"id"`
	Title        *string      `json:"title,omitempty"`
	Company      *string      `json:"company,omitempty"`
	Email        *string      `json:"email,omitempty"`
	OwnerID      *string      `json:"owner_id,omitempty"`
	ReqAmount    *float64     `json:"req_amount,omitempty"`
	Status       *string      `json:"status,omitempty"`
	ClosedReason *string      `json:"closed_reason,omitempty"`
	Phones       []LeadPhone  `json:"phones,omitempty"`
	Emails       []LeadEmail  `json:"emails,omitempty"`
	Address      *LeadAddress `json:"address,omitempty"`
	UpdatedAt    *time.Time   `json:"updated_at,omitempty"`

	PhonesSet  bool `json:"-"`
	EmailsSet  bool `json:"-"`
	AddressSet bool `json:"-"`
}

func (r *UpdateLeadRequest) Validate() (*LeadPatch, error) {
	if r.ID == "" {
		return nil, NewValidationError("id is required")
	}
	if r.Title != nil {
		if *r.Title == "" {
			return nil, NewValidationError("title must not be empty")
		}
		if len(*r.Title) > 255 {
			return nil, NewValidationError("title length must be between 1 and 255")
		}
	}
	if r.Email != nil && *r.Email != "" && !govalidator.IsEmail(*r.Email) {
		return nil, NewValidationError("email is not valid")
	}
	if r.ReqAmount != nil && *r.ReqAmount < 0 {
		return nil, NewValidationError("req_amount must not be negative")
	}
	if r.Status != nil && *r.Status == "" {
		return nil, NewValidationError("status must not be empty")
	}

	return &LeadPatch{
		ID:                r.ID,
		Title:             r.Title,
		Company:           r.Company,
		Email:             r.Email,
		OwnerID:           r.OwnerID,
		ReqAmount:         r.ReqAmount,
		Status:            r.Status,
		ClosedReason:      r.ClosedReason,
		Phones:            r.Phones,
		PhonesSet:         r.PhonesSet,
		Emails:            r.Emails,
		EmailsSet:         r.EmailsSet,
		Address:           r.Address,
		AddressSet:        r.AddressSet,
		ExpectedUpdatedAt: r.UpdatedAt,
	}, nil
}

type GetLeadRequest struct {
	ID string `json:"id"`
}

func (r *GetLeadRequest) FromURLParams(queryParams url.Values) error {
	r.ID = queryParams.Get("id")
	if r.ID == "" {
		return NewValidationError("id is required")
	}
	return nil
}

type DeleteLeadRequest struct {
	ID string `json:"id"`
}

func (r *DeleteLeadRequest) Validate() error {
	if r.ID == "" {
		return NewValidationError("id is required")
	}
	return nil
}

// TransitionLeadRequest commits a stage-bar or closure transition.
// ClosedReason is mandatory when the target outcome has configured
// reasons; UpdatedAt, when present, is a stale-write precondition.
type TransitionLeadRequest struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	ClosedReason string     `json:"closed_reason,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (r *TransitionLeadRequest) Validate() error {
	if r.ID == "" {
		return NewValidationError("id is required")
	}
	if r.Status == "" {
		return NewValidationError("status is required")
	}
	return nil
}

type GetProgressionRequest struct {
	ID     string `json:"id"`
	Target string `json:"target,omitempty"`
}

func (r *GetProgressionRequest) FromURLParams(queryParams url.Values) error {
	r.ID = queryParams.Get("id")
	r.Target = queryParams.Get("target")
	if r.ID == "" {
		return NewValidationError("id is required")
	}
	return nil
}

// LeadService provides operations for managing leads
type LeadService interface {
	ListLeads(ctx context.Context, params LeadListParams) (*LeadListResponse, error)

	GetLead(ctx context.Context, id string) (*Lead, error)

	CreateLead(ctx context.Context, lead *Lead) (*Lead, error)

	// UpdateLead applies a partial update; a status change inside the
	// patch goes through full transition validation
	UpdateLead(ctx context.Context, patch *LeadPatch) (*Lead, error)

	DeleteLead(ctx context.Context, id string) error

	// TransitionLead commits a stage or closure transition
	TransitionLead(ctx context.Context, req *TransitionLeadRequest) (*Lead, error)

	// GetProgression returns the classified stage bar and closure options
	GetProgression(ctx context.Context, id string, target string) (*Progression, error)
}

// LeadRepository defines lead persistence operations
type LeadRepository interface {
	ListLeads(ctx context.Context, tenantID string, params LeadListParams) (*LeadListResponse, error)

	GetLeadByID(ctx context.Context, tenantID string, id string) (*Lead, error)

	// CreateLead inserts the lead and its child rows in one transaction
	CreateLead(ctx context.Context, tenantID string, lead *Lead) error

	// UpdateLead applies the patch in one transaction: scalar columns for
	// non-nil pointers, full child replace for set collections
	UpdateLead(ctx context.Context, tenantID string, patch *LeadPatch) error

	// DeleteLead soft-deletes the lead
	DeleteLead(ctx context.Context, tenantID string, id string) error

	// CountActiveByPipeline counts non-deleted leads referencing a pipeline
	CountActiveByPipeline(ctx context.Context, tenantID string, pipelineID string) (int, error)
}
