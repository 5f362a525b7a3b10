package domain

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// ClosureOutcome is one of the three fixed terminal categories a lead can
// close into. Display labels are configurable per pipeline; the category
// keys are not.
type ClosureOutcome string

const (
	OutcomeWon         ClosureOutcome = "Won"
	OutcomeLost        ClosureOutcome = "Lost"
	OutcomeUnqualified ClosureOutcome = "Unqualified"
)

// ClosureOutcomes returns the three outcome categories in display order
func ClosureOutcomes() []ClosureOutcome {
	return []ClosureOutcome{OutcomeWon, OutcomeLost, OutcomeUnqualified}
}

// Validate checks the outcome is one of the three known categories
func (o ClosureOutcome) Validate() error {
	switch o {
	case OutcomeWon, OutcomeLost, OutcomeUnqualified:
		return nil
	}
	return NewValidationError(fmt.Sprintf("invalid closure outcome: %s", o))
}

// Stage is one named step in a pipeline's active progression.
// The id is a stable surrogate key; leads reference it so renaming a
// stage does not orphan them.
type Stage struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WinLikelihood int    `json:"win_likelihood"`
	Description   string `json:"description,omitempty"`
	Order         int    `json:"order"`
}

// ExitReason is a closure-outcome-scoped justification selectable when closing a lead
type ExitReason struct {
	ID          string         `json:"id"`
	ReasonType  ClosureOutcome `json:"reason_type"`
	Description string         `json:"description"`
	Order       int            `json:"order"`
}

// Pipeline is a tenant-defined ordered sequence of sales stages plus
// closure-outcome configuration, applied to a set of leads.
type Pipeline struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"pipeline_name"`
	Module               string       `json:"module,omitempty"`
	IsActive             bool         `json:"is_active"`
	WonStageName         string       `json:"won_stage_name"`
	LostStageName        string       `json:"lost_stage_name"`
	UnqualifiedStageName string       `json:"unqualified_stage_name"`
	Stages               []Stage      `json:"stages"`
	ExitReasons          []ExitReason `json:"exit_reasons"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Validate performs validation on the pipeline fields
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return NewValidationError("pipeline name is required")
	}
	if len(p.Name) > 255 {
		return NewValidationError("pipeline name length must be between 1 and 255")
	}
	if len(p.Stages) == 0 {
		return NewValidationError("pipeline must have at least one stage")
	}

	seen := make(map[string]bool, len(p.Stages))
	for i, stage := range p.Stages {
		if stage.Name == "" {
			return NewValidationError(fmt.Sprintf("stage %d: name is required", i+1))
		}
		if len(stage.Name) > 255 {
			return NewValidationError(fmt.Sprintf("stage %q: name length must be between 1 and 255", stage.Name))
		}
		if seen[stage.Name] {
			return NewValidationError(fmt.Sprintf("stage %q: name must be unique within the pipeline", stage.Name))
		}
		seen[stage.Name] = true
		if stage.WinLikelihood < 0 || stage.WinLikelihood > 100 {
			return NewValidationError(fmt.Sprintf("stage %q: win_likelihood must be between 0 and 100", stage.Name))
		}
	}

	for _, reason := range p.ExitReasons {
		if err := reason.ReasonType.Validate(); err != nil {
			return err
		}
		if reason.Description == "" {
			return NewValidationError("exit reason description is required")
		}
	}

	return nil
}

// OutcomeLabel returns the display label for an outcome, falling back to
// the category key when no override is configured.
func (p *Pipeline) OutcomeLabel(outcome ClosureOutcome) string {
	switch outcome {
	case OutcomeWon:
		if p.WonStageName != "" {
			return p.WonStageName
		}
	case OutcomeLost:
		if p.LostStageName != "" {
			return p.LostStageName
		}
	case OutcomeUnqualified:
		if p.UnqualifiedStageName != "" {
			return p.UnqualifiedStageName
		}
	}
	return string(outcome)
}

// ResolveOutcome matches a status string against the pipeline's closure
// labels and category keys. Labels take precedence so a tenant renaming
// "Won" to "Closed Won" still closes leads correctly.
func (p *Pipeline) ResolveOutcome(status string) (ClosureOutcome, bool) {
	for _, outcome := range ClosureOutcomes() {
		if status == p.OutcomeLabel(outcome) || status == string(outcome) {
			return outcome, true
		}
	}
	return "", false
}

// StageByName returns the stage with the given name, if any
func (p *Pipeline) StageByName(name string) (*Stage, bool) {
	for i := range p.Stages {
		if p.Stages[i].Name == name {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

// ReasonsFor returns the configured exit reasons for an outcome, in order
func (p *Pipeline) ReasonsFor(outcome ClosureOutcome) []ExitReason {
	reasons := []ExitReason{}
	for _, r := range p.ExitReasons {
		if r.ReasonType == outcome {
			reasons = append(reasons, r)
		}
	}
	return reasons
}

// Request/Response types

// StageInput is a submitted stage row; order comes from array position.
// An id is present when the row existed before this save.
type StageInput struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	WinLikelihood int    `json:"win_likelihood"`
	Description   string `json:"description,omitempty"`
}

// ExitReasonInput is a submitted exit reason row
type ExitReasonInput struct {
	ID          string `json:"id,omitempty"`
	ReasonType  string `json:"reason_type"`
	Description string `json:"description"`
}

// SavePipelineRequest creates a pipeline when id is absent, updates it otherwise
type SavePipelineRequest struct {
	ID                   string            `json:"id,omitempty"`
	Name                 string            `json:"pipeline_name"`
	Module               string            `json:"module,omitempty"`
	IsActive             bool              `json:"is_active"`
	WonStageName         string            `json:"won_stage_name,omitempty"`
	LostStageName        string            `json:"lost_stage_name,omitempty"`
	UnqualifiedStageName string            `json:"unqualified_stage_name,omitempty"`
	Stages               []StageInput      `json:"stages"`
	ExitReasons          []ExitReasonInput `json:"exit_reasons,omitempty"`
}

// Validate builds a pipeline from the request, assigning 1-based sequence
// numbers from input array order.
func (r *SavePipelineRequest) Validate() (*Pipeline, error) {
	pipeline := &Pipeline{
		ID:                   r.ID,
		Name:                 r.Name,
		Module:               r.Module,
		IsActive:             r.IsActive,
		WonStageName:         r.WonStageName,
		LostStageName:        r.LostStageName,
		UnqualifiedStageName: r.UnqualifiedStageName,
		Stages:               make([]Stage, 0, len(r.Stages)),
		ExitReasons:          make([]ExitReason, 0, len(r.ExitReasons)),
	}

	for i, s := range r.Stages {
		pipeline.Stages = append(pipeline.Stages, Stage{
			ID:            s.ID,
			Name:          s.Name,
			WinLikelihood: s.WinLikelihood,
			Description:   s.Description,
			Order:         i + 1,
		})
	}

	for i, er := range r.ExitReasons {
		pipeline.ExitReasons = append(pipeline.ExitReasons, ExitReason{
			ID:          er.ID,
			ReasonType:  ClosureOutcome(er.ReasonType),
			Description: er.Description,
			Order:       i + 1,
		})
	}

	if err := pipeline.Validate(); err != nil {
		return nil, err
	}

	return pipeline, nil
}

type ListPipelinesRequest struct {
	Module string `json:"module,omitempty"`
}

func (r *ListPipelinesRequest) FromURLParams(queryParams url.Values) error {
	r.Module = queryParams.Get("module")
	if len(r.Module) > 100 {
		return NewValidationError("module length must be between 0 and 100")
	}
	return nil
}

type DeletePipelineRequest struct {
	ID string `json:"id"`
}

func (r *DeletePipelineRequest) Validate() error {
	if r.ID == "" {
		return NewValidationError("id is required")
	}
	return nil
}

// PipelineService provides operations for managing pipeline configuration
type PipelineService interface {
	// ListPipelines returns the tenant's pipelines with nested stages and
	// exit reasons, newest first
	ListPipelines(ctx context.Context, module string) ([]*Pipeline, error)

	// SavePipeline creates or updates a pipeline atomically
	SavePipeline(ctx context.Context, pipeline *Pipeline) (*Pipeline, error)

	// DeletePipeline removes a pipeline that has no live leads
	DeletePipeline(ctx context.Context, id string) error

	// GetPipeline returns a single pipeline with children
	GetPipeline(ctx context.Context, id string) (*Pipeline, error)
}

// PipelineRepository defines pipeline persistence operations
type PipelineRepository interface {
	ListPipelines(ctx context.Context, tenantID string, module string) ([]*Pipeline, error)

	GetPipelineByID(ctx context.Context, tenantID string, id string) (*Pipeline, error)

	// CreatePipeline inserts the pipeline with all stage and reason rows
	CreatePipeline(ctx context.Context, tenantID string, pipeline *Pipeline) error

	// UpdatePipeline reconciles stored stage and reason rows against the
	// submitted lists by id, cascading stage renames into lead status
	// labels, all within one transaction
	UpdatePipeline(ctx context.Context, tenantID string, pipeline *Pipeline) error

	// DeletePipeline removes the pipeline and its child rows
	DeletePipeline(ctx context.Context, tenantID string, id string) error
}
