package domain

import (
	"fmt"
)

// StagePosition is the visual classification of one stage in the progress bar
type StagePosition string

const (
	StagePast   StagePosition = "past"
	StageActive StagePosition = "active"
	StageFuture StagePosition = "future"
	// StageTarget marks a pending, unconfirmed selection; it takes
	// precedence over the other three.
	StageTarget StagePosition = "target"
)

// StageState pairs a stage with its computed position
type StageState struct {
	Stage    Stage         `json:"stage"`
	Position StagePosition `json:"position"`
}

// ClassifyStages computes the progress-bar state of every stage.
// A stage is past when its index is below the current stage's index, or
// when the lead is closed (all stages render completed). The pending
// target overrides past/active/future.
func ClassifyStages(stages []Stage, currentStatus string, targetStage string, closed bool) []StageState {
	currentIndex := -1
	for i, stage := range stages {
		if stage.Name == currentStatus {
			currentIndex = i
			break
		}
	}

	states := make([]StageState, 0, len(stages))
	for i, stage := range stages {
		var position StagePosition
		switch {
		case targetStage != "" && stage.Name == targetStage:
			position = StageTarget
		case closed:
			position = StagePast
		case currentIndex >= 0 && i < currentIndex:
			position = StagePast
		case currentIndex >= 0 && i == currentIndex:
			position = StageActive
		default:
			position = StageFuture
		}
		states = append(states, StageState{Stage: stage, Position: position})
	}
	return states
}

// ClosureOption is one of the three outcomes offered by the closure
// dropdown, with its configured reason taxonomy.
type ClosureOption struct {
	Outcome        ClosureOutcome `json:"outcome"`
	Label          string         `json:"label"`
	Reasons        []ExitReason   `json:"reasons"`
	ReasonRequired bool           `json:"reason_required"`
}

// Progression is the single-lead view of the stage-transition engine:
// the classified stage bar plus the closure options.
type Progression struct {
	LeadID         string          `json:"lead_id"`
	PipelineID     string          `json:"pipeline_id"`
	Status         string          `json:"status"`
	Target         string          `json:"target,omitempty"`
	Closed         bool            `json:"closed"`
	Outcome        *ClosureOutcome `json:"outcome,omitempty"`
	Stages         []StageState    `json:"stages"`
	ClosureOptions []ClosureOption `json:"closure_options"`
}

// BuildProgression assembles the progression for a lead within its pipeline
func BuildProgression(pipeline *Pipeline, lead *Lead, target string) *Progression {
	var outcomePtr *ClosureOutcome
	closed := false
	if outcome, ok := pipeline.ResolveOutcome(lead.Status); ok {
		closed = true
		outcomePtr = &outcome
	}

	options := make([]ClosureOption, 0, 3)
	for _, outcome := range ClosureOutcomes() {
		reasons := pipeline.ReasonsFor(outcome)
		options = append(options, ClosureOption{
			Outcome:        outcome,
			Label:          pipeline.OutcomeLabel(outcome),
			Reasons:        reasons,
			ReasonRequired: len(reasons) > 0,
		})
	}

	return &Progression{
		LeadID:         lead.ID,
		PipelineID:     pipeline.ID,
		Status:         lead.Status,
		Target:         target,
		Closed:         closed,
		Outcome:        outcomePtr,
		Stages:         ClassifyStages(pipeline.Stages, lead.Status, target, closed),
		ClosureOptions: options,
	}
}

// TransitionResolution is a validated transition target ready to persist
type TransitionResolution struct {
	// Status is the canonical label stored on the lead
	Status string
	// StageID is set for active stages, nil for closure outcomes
	StageID *string
	Closed  bool
	Outcome ClosureOutcome
	// ClosedReason is the confirmed reason description, empty when the
	// outcome has no configured reasons or the target is an active stage
	ClosedReason string
}

// ResolveTransition validates a requested status against the pipeline's
// stage set and closure configuration. Closure gating: an outcome with at
// least one configured reason requires a matching reason; an outcome with
// none proceeds without one.
func ResolveTransition(pipeline *Pipeline, status string, closedReason string) (*TransitionResolution, error) {
	if outcome, ok := pipeline.ResolveOutcome(status); ok {
		reasons := pipeline.ReasonsFor(outcome)
		if len(reasons) > 0 {
			matched := false
			for _, r := range reasons {
				if r.Description == closedReason {
					matched = true
					break
				}
			}
			if !matched {
				return nil, NewValidationError(fmt.Sprintf("a closure reason is required for %s", pipeline.OutcomeLabel(outcome)))
			}
		} else {
			closedReason = ""
		}
		return &TransitionResolution{
			Status:       pipeline.OutcomeLabel(outcome),
			Closed:       true,
			Outcome:      outcome,
			ClosedReason: closedReason,
		}, nil
	}

	stage, ok := pipeline.StageByName(status)
	if !ok {
		return nil, NewValidationError(fmt.Sprintf("status %q is not a stage of pipeline %q", status, pipeline.Name))
	}
	stageID := stage.ID
	return &TransitionResolution{
		Status:  stage.Name,
		StageID: &stageID,
	}, nil
}
