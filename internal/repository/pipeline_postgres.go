package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type pipelineRepository struct {
	db *sql.DB
}

// NewPipelineRepository creates a new PostgreSQL pipeline repository
func NewPipelineRepository(db *sql.DB) domain.PipelineRepository {
	return &pipelineRepository{
		db: db,
	}
}

// WithTransaction executes a function within a transaction
func (r *pipelineRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// No-op if we successfully commit
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func scanPipeline(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Pipeline, error) {
	var p domain.Pipeline
	if err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.Module,
		&p.IsActive,
		&p.WonStageName,
		&p.LostStageName,
		&p.UnqualifiedStageName,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// Children always serialize as arrays, never null
	p.Stages = []domain.Stage{}
	p.ExitReasons = []domain.ExitReason{}
	return &p, nil
}

func (r *pipelineRepository) ListPipelines(ctx context.Context, tenantID string, module string) ([]*domain.Pipeline, error) {
	query := `
		SELECT id, name, module, is_active, won_stage_name, lost_stage_name, unqualified_stage_name, created_at, updated_at
		FROM pipelines
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	if module != "" {
		query += ` AND module = $2`
		args = append(args, module)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := []*domain.Pipeline{}
	byID := make(map[string]*domain.Pipeline)
	ids := []string{}
	for rows.Next() {
		pipeline, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		pipelines = append(pipelines, pipeline)
		byID[pipeline.ID] = pipeline
		ids = append(ids, pipeline.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pipeline rows: %w", err)
	}

	if len(ids) == 0 {
		return pipelines, nil
	}

	if err := r.loadChildren(ctx, ids, byID); err != nil {
		return nil, err
	}

	return pipelines, nil
}

// loadChildren attaches ordered stages and exit reasons to the given pipelines
func (r *pipelineRepository) loadChildren(ctx context.Context, ids []string, byID map[string]*domain.Pipeline) error {
	stageQuery := `
		SELECT id, pipeline_id, name, win_likelihood, description, stage_order
		FROM pipeline_stages
		WHERE pipeline_id = ANY($1)
		ORDER BY pipeline_id, stage_order
	`
	rows, err := r.db.QueryContext(ctx, stageQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load pipeline stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage domain.Stage
		var pipelineID string
		if err := rows.Scan(&stage.ID, &pipelineID, &stage.Name, &stage.WinLikelihood, &stage.Description, &stage.Order); err != nil {
			return fmt.Errorf("failed to scan stage: %w", err)
		}
		if pipeline, ok := byID[pipelineID]; ok {
			pipeline.Stages = append(pipeline.Stages, stage)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating stage rows: %w", err)
	}

	reasonQuery := `
		SELECT id, pipeline_id, reason_type, description, reason_order
		FROM pipeline_exit_reasons
		WHERE pipeline_id = ANY($1)
		ORDER BY pipeline_id, reason_order
	`
	reasonRows, err := r.db.QueryContext(ctx, reasonQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load exit reasons: %w", err)
	}
	defer reasonRows.Close()

	for reasonRows.Next() {
		var reason domain.ExitReason
		var pipelineID string
		if err := reasonRows.Scan(&reason.ID, &pipelineID, &reason.ReasonType, &reason.Description, &reason.Order); err != nil {
			return fmt.Errorf("failed to scan exit reason: %w", err)
		}
		if pipeline, ok := byID[pipelineID]; ok {
			pipeline.ExitReasons = append(pipeline.ExitReasons, reason)
		}
	}
	if err := reasonRows.Err(); err != nil {
		return fmt.Errorf("error iterating exit reason rows: %w", err)
	}

	return nil
}

func (r *pipelineRepository) GetPipelineByID(ctx context.Context, tenantID string, id string) (*domain.Pipeline, error) {
	query := `
		SELECT id, name, module, is_active, won_stage_name, lost_stage_name, unqualified_stage_name, created_at, updated_at
		FROM pipelines
		WHERE tenant_id = $1 AND id = $2
	`
	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	pipeline, err := scanPipeline(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrPipelineNotFound{Message: "pipeline not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	if err := r.loadChildren(ctx, []string{pipeline.ID}, map[string]*domain.Pipeline{pipeline.ID: pipeline}); err != nil {
		return nil, err
	}

	return pipeline, nil
}

func (r *pipelineRepository) CreatePipeline(ctx context.Context, tenantID string, pipeline *domain.Pipeline) error {
	now := time.Now().UTC()
	pipeline.CreatedAt = now
	pipeline.UpdatedAt = now

	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO pipelines (id, tenant_id, name, module, is_active, won_stage_name, lost_stage_name, unqualified_stage_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := tx.ExecContext(ctx, query,
			pipeline.ID,
			tenantID,
			pipeline.Name,
			pipeline.Module,
			pipeline.IsActive,
			pipeline.WonStageName,
			pipeline.LostStageName,
			pipeline.UnqualifiedStageName,
			pipeline.CreatedAt,
			pipeline.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		for i := range pipeline.Stages {
			if pipeline.Stages[i].ID == "" {
				pipeline.Stages[i].ID = uuid.New().String()
			}
			if err := insertStage(ctx, tx, pipeline.ID, &pipeline.Stages[i]); err != nil {
				return err
			}
		}

		for i := range pipeline.ExitReasons {
			if pipeline.ExitReasons[i].ID == "" {
				pipeline.ExitReasons[i].ID = uuid.New().String()
			}
			if err := insertExitReason(ctx, tx, pipeline.ID, &pipeline.ExitReasons[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func insertStage(ctx context.Context, tx *sql.Tx, pipelineID string, stage *domain.Stage) error {
	query := `
		INSERT INTO pipeline_stages (id, pipeline_id, name, win_likelihood, description, stage_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, stage.ID, pipelineID, stage.Name, stage.WinLikelihood, stage.Description, stage.Order)
	if err != nil {
		return fmt.Errorf("failed to insert stage: %w", err)
	}
	return nil
}

func insertExitReason(ctx context.Context, tx *sql.Tx, pipelineID string, reason *domain.ExitReason) error {
	query := `
		INSERT INTO pipeline_exit_reasons (id, pipeline_id, reason_type, description, reason_order)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, reason.ID, pipelineID, reason.ReasonType, reason.Description, reason.Order)
	if err != nil {
		return fmt.Errorf("failed to insert exit reason: %w", err)
	}
	return nil
}

// UpdatePipeline reconciles the submitted stage and reason lists against
// the stored rows by id. Rows with a known id are updated in place so
// stage identity survives edits; a stage rename cascades its new label to
// leads still holding that stage id. Everything runs in one transaction.
func (r *pipelineRepository) UpdatePipeline(ctx context.Context, tenantID string, pipeline *domain.Pipeline) error {
	pipeline.UpdatedAt = time.Now().UTC()

	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE pipelines
			SET name = $1, module = $2, is_active = $3, won_stage_name = $4, lost_stage_name = $5, unqualified_stage_name = $6, updated_at = $7
			WHERE tenant_id = $8 AND id = $9
		`
		result, err := tx.ExecContext(ctx, query,
			pipeline.Name,
			pipeline.Module,
			pipeline.IsActive,
			pipeline.WonStageName,
			pipeline.LostStageName,
			pipeline.UnqualifiedStageName,
			pipeline.UpdatedAt,
			tenantID,
			pipeline.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update pipeline: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rowsAffected == 0 {
			return &domain.ErrPipelineNotFound{Message: "pipeline not found"}
		}

		if err := r.reconcileStages(ctx, tx, tenantID, pipeline); err != nil {
			return err
		}

		return r.reconcileExitReasons(ctx, tx, pipeline)
	})
}

func (r *pipelineRepository) reconcileStages(ctx context.Context, tx *sql.Tx, tenantID string, pipeline *domain.Pipeline) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name FROM pipeline_stages WHERE pipeline_id = $1`, pipeline.ID)
	if err != nil {
		return fmt.Errorf("failed to load existing stages: %w", err)
	}
	existing := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan existing stage: %w", err)
		}
		existing[id] = name
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating existing stages: %w", err)
	}

	kept := make(map[string]bool, len(pipeline.Stages))
	for i := range pipeline.Stages {
		stage := &pipeline.Stages[i]
		oldName, known := "", false
		if stage.ID != "" {
			oldName, known = existing[stage.ID]
		}

		if known {
			kept[stage.ID] = true
			_, err := tx.ExecContext(ctx,
				`UPDATE pipeline_stages SET name = $1, win_likelihood = $2, description = $3, stage_order = $4 WHERE id = $5`,
				stage.Name, stage.WinLikelihood, stage.Description, stage.Order, stage.ID)
			if err != nil {
				return fmt.Errorf("failed to update stage: %w", err)
			}
			if oldName != stage.Name {
				// Cascade the rename to leads referencing the stage
				_, err := tx.ExecContext(ctx,
					`UPDATE leads SET status = $1 WHERE tenant_id = $2 AND stage_id = $3 AND is_deleted = FALSE`,
					stage.Name, tenantID, stage.ID)
				if err != nil {
					return fmt.Errorf("failed to cascade stage rename: %w", err)
				}
			}
			continue
		}

		stage.ID = uuid.New().String()
		kept[stage.ID] = true
		if err := insertStage(ctx, tx, pipeline.ID, stage); err != nil {
			return err
		}
	}

	removed := []string{}
	for id := range existing {
		if !kept[id] {
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		// Leads pointing at a removed stage keep their status label but
		// lose the canonical reference
		_, err := tx.ExecContext(ctx,
			`UPDATE leads SET stage_id = NULL WHERE tenant_id = $1 AND stage_id = ANY($2)`,
			tenantID, pq.Array(removed))
		if err != nil {
			return fmt.Errorf("failed to detach leads from removed stages: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM pipeline_stages WHERE pipeline_id = $1 AND id = ANY($2)`,
			pipeline.ID, pq.Array(removed))
		if err != nil {
			return fmt.Errorf("failed to delete removed stages: %w", err)
		}
	}

	return nil
}

func (r *pipelineRepository) reconcileExitReasons(ctx context.Context, tx *sql.Tx, pipeline *domain.Pipeline) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM pipeline_exit_reasons WHERE pipeline_id = $1`, pipeline.ID)
	if err != nil {
		return fmt.Errorf("failed to load existing exit reasons: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan existing exit reason: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating existing exit reasons: %w", err)
	}

	kept := make(map[string]bool, len(pipeline.ExitReasons))
	for i := range pipeline.ExitReasons {
		reason := &pipeline.ExitReasons[i]
		if reason.ID != "" && existing[reason.ID] {
			kept[reason.ID] = true
			_, err := tx.ExecContext(ctx,
				`UPDATE pipeline_exit_reasons SET reason_type = $1, description = $2, reason_order = $3 WHERE id = $4`,
				reason.ReasonType, reason.Description, reason.Order, reason.ID)
			if err != nil {
				return fmt.Errorf("failed to update exit reason: %w", err)
			}
			continue
		}
		reason.ID = uuid.New().String()
		kept[reason.ID] = true
		if err := insertExitReason(ctx, tx, pipeline.ID, reason); err != nil {
			return err
		}
	}

	removed := []string{}
	for id := range existing {
		if !kept[id] {
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM pipeline_exit_reasons WHERE pipeline_id = $1 AND id = ANY($2)`,
			pipeline.ID, pq.Array(removed))
		if err != nil {
			return fmt.Errorf("failed to delete removed exit reasons: %w", err)
		}
	}

	return nil
}

func (r *pipelineRepository) DeletePipeline(ctx context.Context, tenantID string, id string) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM pipelines WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return fmt.Errorf("failed to delete pipeline: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rowsAffected == 0 {
			return &domain.ErrPipelineNotFound{Message: "pipeline not found"}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pipeline_stages WHERE pipeline_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete pipeline stages: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pipeline_exit_reasons WHERE pipeline_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete pipeline exit reasons: %w", err)
		}

		return nil
	})
}
