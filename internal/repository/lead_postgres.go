package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Pipeboard/pipeboard/internal/domain"
)

type leadRepository struct {
	db *sql.DB
}

// NewLeadRepository creates a new PostgreSQL lead repository
func NewLeadRepository(db *sql.DB) domain.LeadRepository {
	return &leadRepository{
		db: db,
	}
}

// WithTransaction executes a function within a transaction
func (r *leadRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
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

// leadSelectColumns are the columns fetched for every lead read, with the
// owner name resolved from the user directory at read time
func leadSelectColumns() []string {
	return []string{
		"l.id", "l.pipeline_id", "l.stage_id", "l.status", "l.title", "l.company",
		"l.email", "l.owner_id", "COALESCE(u.name, '') AS owner_name", "l.req_amount",
		"l.closed_reason", "l.closed_time", "l.created_at", "l.updated_at",
	}
}

func scanLead(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Lead, error) {
	var lead domain.Lead
	var stageID sql.NullString
	var ownerID sql.NullString
	var closedTime sql.NullTime

	if err := scanner.Scan(
		&lead.ID,
		&lead.PipelineID,
		&stageID,
		&lead.Status,
		&lead.Title,
		&lead.Company,
		&lead.Email,
		&ownerID,
		&lead.OwnerName,
		&lead.ReqAmount,
		&lead.ClosedReason,
		&closedTime,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if stageID.Valid {
		lead.StageID = &stageID.String
	}
	if ownerID.Valid {
		lead.OwnerID = ownerID.String
	}
	if closedTime.Valid {
		t := closedTime.Time
		lead.ClosedTime = &t
	}

	return &lead, nil
}

// leadConditions builds the shared predicate of the count and data queries
func leadConditions(tenantID string, params domain.LeadListParams) sq.And {
	conditions := sq.And{
		sq.Eq{"l.tenant_id": tenantID},
		sq.Eq{"l.is_deleted": false},
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		conditions = append(conditions, sq.Or{
			sq.ILike{"l.title": pattern},
			sq.ILike{"l.company": pattern},
			sq.ILike{"l.email": pattern},
		})
	}
	if params.PipelineID != "" {
		conditions = append(conditions, sq.Eq{"l.pipeline_id": params.PipelineID})
	}
	if params.Status != "" {
		conditions = append(conditions, sq.Eq{"l.status": params.Status})
	}
	return conditions
}

func (r *leadRepository) ListLeads(ctx context.Context, tenantID string, params domain.LeadListParams) (*domain.LeadListResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	conditions := leadConditions(tenantID, params)

	countSQL, countArgs, err := psql.Select("COUNT(*)").
		From("leads l").
		Where(conditions).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	// params.SortBy passed Validate's allow-list, so interpolation is safe
	dataSQL, dataArgs, err := psql.Select(leadSelectColumns()...).
		From("leads l").
		LeftJoin("users u ON u.id = l.owner_id AND u.tenant_id = l.tenant_id").
		Where(conditions).
		OrderBy(fmt.Sprintf("l.%s %s", params.SortBy, params.SortOrder)).
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lead rows: %w", err)
	}

	return &domain.LeadListResponse{
		Data:       leads,
		Pagination: domain.NewPagination(total, params.Page, params.Limit),
	}, nil
}

func (r *leadRepository) GetLeadByID(ctx context.Context, tenantID string, id string) (*domain.Lead, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(leadSelectColumns()...).
		From("leads l").
		LeftJoin("users u ON u.id = l.owner_id AND u.tenant_id = l.tenant_id").
		Where(sq.And{
			sq.Eq{"l.tenant_id": tenantID},
			sq.Eq{"l.id": id},
			sq.Eq{"l.is_deleted": false},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrLeadNotFound{Message: "lead not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if err := r.loadChildren(ctx, lead); err != nil {
		return nil, err
	}

	return lead, nil
}

func (r *leadRepository) loadChildren(ctx context.Context, lead *domain.Lead) error {
	phoneRows, err := r.db.QueryContext(ctx,
		`SELECT type, number FROM lead_phones WHERE lead_id = $1 ORDER BY id`, lead.ID)
	if err != nil {
		return fmt.Errorf("failed to load lead phones: %w", err)
	}
	defer phoneRows.Close()
	lead.Phones = []domain.LeadPhone{}
	for phoneRows.Next() {
		var phone domain.LeadPhone
		if err := phoneRows.Scan(&phone.Type, &phone.Number); err != nil {
			return fmt.Errorf("failed to scan lead phone: %w", err)
		}
		lead.Phones = append(lead.Phones, phone)
	}
	if err := phoneRows.Err(); err != nil {
		return fmt.Errorf("error iterating lead phones: %w", err)
	}

	emailRows, err := r.db.QueryContext(ctx,
		`SELECT type, address FROM lead_emails WHERE lead_id = $1 ORDER BY id`, lead.ID)
	if err != nil {
		return fmt.Errorf("failed to load lead emails: %w", err)
	}
	defer emailRows.Close()
	lead.Emails = []domain.LeadEmail{}
	for emailRows.Next() {
		var email domain.LeadEmail
		if err := emailRows.Scan(&email.Type, &email.Address); err != nil {
			return fmt.Errorf("failed to scan lead email: %w", err)
		}
		lead.Emails = append(lead.Emails, email)
	}
	if err := emailRows.Err(); err != nil {
		return fmt.Errorf("error iterating lead emails: %w", err)
	}

	var address domain.LeadAddress
	err = r.db.QueryRowContext(ctx,
		`SELECT line1, line2, city, state, country, postcode FROM lead_addresses WHERE lead_id = $1`, lead.ID).
		Scan(&address.Line1, &address.Line2, &address.City, &address.State, &address.Country, &address.Postcode)
	if err == nil {
		lead.Address = &address
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("failed to load lead address: %w", err)
	}

	return nil
}

func (r *leadRepository) CreateLead(ctx context.Context, tenantID string, lead *domain.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO leads (
				id, tenant_id, pipeline_id, stage_id, status, title, company, email,
				owner_id, req_amount, closed_reason, closed_time, is_deleted, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13, $14
			)
		`
		var ownerID interface{}
		if lead.OwnerID != "" {
			ownerID = lead.OwnerID
		}
		_, err := tx.ExecContext(ctx, query,
			lead.ID,
			tenantID,
			lead.PipelineID,
			lead.StageID,
			lead.Status,
			lead.Title,
			lead.Company,
			lead.Email,
			ownerID,
			lead.ReqAmount,
			lead.ClosedReason,
			lead.ClosedTime,
			lead.CreatedAt,
			lead.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create lead: %w", err)
		}

		if err := replacePhones(ctx, tx, lead.ID, lead.Phones); err != nil {
			return err
		}
		if err := replaceEmails(ctx, tx, lead.ID, lead.Emails); err != nil {
			return err
		}
		if lead.Address != nil {
			if err := replaceAddress(ctx, tx, lead.ID, lead.Address); err != nil {
				return err
			}
		}

		return nil
	})
}

// UpdateLead applies a partial update: non-nil scalar pointers change
// their column, set child collections fully replace their rows, and
// everything else is left untouched. An updated_at precondition that no
// longer matches yields ErrLeadStaleWrite.
func (r *leadRepository) UpdateLead(ctx context.Context, tenantID string, patch *domain.LeadPatch) error {
	now := time.Now().UTC()

	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
		update := psql.Update("leads").Set("updated_at", now)

		if patch.Title != nil {
			update = update.Set("title", *patch.Title)
		}
		if patch.Company != nil {
			update = update.Set("company", *patch.Company)
		}
		if patch.Email != nil {
			update = update.Set("email", *patch.Email)
		}
		if patch.OwnerID != nil {
			if *patch.OwnerID == "" {
				update = update.Set("owner_id", nil)
			} else {
				update = update.Set("owner_id", *patch.OwnerID)
			}
		}
		if patch.ReqAmount != nil {
			update = update.Set("req_amount", *patch.ReqAmount)
		}
		if patch.Status != nil {
			update = update.Set("status", *patch.Status)
		}
		if patch.StageIDSet {
			update = update.Set("stage_id", patch.StageID)
		}
		if patch.ClosedReason != nil {
			update = update.Set("closed_reason", *patch.ClosedReason)
		}
		if patch.ClosedTimeSet {
			update = update.Set("closed_time", patch.ClosedTime)
		}

		update = update.Where(sq.And{
			sq.Eq{"tenant_id": tenantID},
			sq.Eq{"id": patch.ID},
			sq.Eq{"is_deleted": false},
		})
		if patch.ExpectedUpdatedAt != nil {
			update = update.Where(sq.Eq{"updated_at": patch.ExpectedUpdatedAt.UTC()})
		}

		updateSQL, updateArgs, err := update.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update query: %w", err)
		}

		result, err := tx.ExecContext(ctx, updateSQL, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update lead: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rowsAffected == 0 {
			// Distinguish a stale precondition from a missing lead
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM leads WHERE tenant_id = $1 AND id = $2 AND is_deleted = FALSE)`,
				tenantID, patch.ID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check lead existence: %w", err)
			}
			if exists && patch.ExpectedUpdatedAt != nil {
				return &domain.ErrLeadStaleWrite{LeadID: patch.ID}
			}
			return &domain.ErrLeadNotFound{Message: "lead not found"}
		}

		if patch.PhonesSet {
			if err := deletePhones(ctx, tx, patch.ID); err != nil {
				return err
			}
			if err := replacePhones(ctx, tx, patch.ID, patch.Phones); err != nil {
				return err
			}
		}
		if patch.EmailsSet {
			if err := deleteEmails(ctx, tx, patch.ID); err != nil {
				return err
			}
			if err := replaceEmails(ctx, tx, patch.ID, patch.Emails); err != nil {
				return err
			}
		}
		if patch.AddressSet {
			if err := deleteAddress(ctx, tx, patch.ID); err != nil {
				return err
			}
			if patch.Address != nil {
				if err := replaceAddress(ctx, tx, patch.ID, patch.Address); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func replacePhones(ctx context.Context, tx *sql.Tx, leadID string, phones []domain.LeadPhone) error {
	for _, phone := range phones {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lead_phones (id, lead_id, type, number) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), leadID, phone.Type, phone.Number)
		if err != nil {
			return fmt.Errorf("failed to insert lead phone: %w", err)
		}
	}
	return nil
}

func deletePhones(ctx context.Context, tx *sql.Tx, leadID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lead_phones WHERE lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to delete lead phones: %w", err)
	}
	return nil
}

func replaceEmails(ctx context.Context, tx *sql.Tx, leadID string, emails []domain.LeadEmail) error {
	for _, email := range emails {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lead_emails (id, lead_id, type, address) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), leadID, email.Type, email.Address)
		if err != nil {
			return fmt.Errorf("failed to insert lead email: %w", err)
		}
	}
	return nil
}

func deleteEmails(ctx context.Context, tx *sql.Tx, leadID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lead_emails WHERE lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to delete lead emails: %w", err)
	}
	return nil
}

func replaceAddress(ctx context.Context, tx *sql.Tx, leadID string, address *domain.LeadAddress) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO lead_addresses (lead_id, line1, line2, city, state, country, postcode)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		leadID, address.Line1, address.Line2, address.City, address.State, address.Country, address.Postcode)
	if err != nil {
		return fmt.Errorf("failed to insert lead address: %w", err)
	}
	return nil
}

func deleteAddress(ctx context.Context, tx *sql.Tx, leadID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lead_addresses WHERE lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to delete lead address: %w", err)
	}
	return nil
}

func (r *leadRepository) DeleteLead(ctx context.Context, tenantID string, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leads SET is_deleted = TRUE, updated_at = $1 WHERE tenant_id = $2 AND id = $3 AND is_deleted = FALSE`,
		time.Now().UTC(), tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.ErrLeadNotFound{Message: "lead not found"}
	}

	return nil
}

func (r *leadRepository) CountActiveByPipeline(ctx context.Context, tenantID string, pipelineID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE tenant_id = $1 AND pipeline_id = $2 AND is_deleted = FALSE`,
		tenantID, pipelineID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pipeline leads: %w", err)
	}
	return count, nil
}
