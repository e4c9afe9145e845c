package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

// OperationClassification is the CB classification written on the dossier row
// together with the TYPE_OPERATION records. Nil means the write carries no
// classification.
type OperationClassification struct {
	TypeOperation   string
	NatureOperation string
	Commentaire     string
	At              time.Time
}

// ValidationRepository persists validation records and their derived
// synthesis. Records for a (dossier, domain) are only ever written as a
// coherent set together with the synthesis computed from them.
type ValidationRepository struct {
	db *sqlx.DB
}

// NewValidationRepository constructs the repository.
func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// ReplaceDomainRecords atomically swaps all records for (dossier, domain) with
// the supplied set and upserts the synthesis in the same transaction. When a
// classification is supplied it is written on the dossier row inside that
// transaction too, so records and classification commit or roll back as one.
func (r *ValidationRepository) ReplaceDomainRecords(ctx context.Context, records []models.ValidationRecord, synthesis models.Synthesis, classification *OperationClassification) error {
	if len(records) == 0 {
		return fmt.Errorf("replace validation records: empty record set")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin validation tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const deleteQuery = `DELETE FROM validation_records WHERE dossier_id = $1 AND domain = $2`
	if _, err := tx.ExecContext(ctx, deleteQuery, synthesis.DossierID, synthesis.Domain); err != nil {
		return fmt.Errorf("delete prior validation records: %w", err)
	}

	const insertQuery = `INSERT INTO validation_records
	(id, dossier_id, item_id, domain, valid, comment, validated_by, validated_at)
	VALUES (:id, :dossier_id, :item_id, :domain, :valid, :comment, :validated_by, :validated_at)`
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, insertQuery, records[i]); err != nil {
			return fmt.Errorf("insert validation record: %w", err)
		}
	}

	const upsertQuery = `INSERT INTO syntheses
	(dossier_id, domain, total, valid_count, rejected_count, status, computed_at)
	VALUES (:dossier_id, :domain, :total, :valid_count, :rejected_count, :status, :computed_at)
	ON CONFLICT (dossier_id, domain) DO UPDATE SET
	total = EXCLUDED.total, valid_count = EXCLUDED.valid_count,
	rejected_count = EXCLUDED.rejected_count, status = EXCLUDED.status,
	computed_at = EXCLUDED.computed_at`
	if _, err := tx.NamedExecContext(ctx, upsertQuery, synthesis); err != nil {
		return fmt.Errorf("upsert synthesis: %w", err)
	}

	if classification != nil {
		var commentaire *string
		if classification.Commentaire != "" {
			commentaire = &classification.Commentaire
		}
		const classifyQuery = `UPDATE dossiers SET type_operation = $1, nature_operation = $2,
	commentaire_cb = $3, updated_at = $4 WHERE id = $5`
		result, err := tx.ExecContext(ctx, classifyQuery,
			classification.TypeOperation, classification.NatureOperation, commentaire,
			classification.At, synthesis.DossierID)
		if err != nil {
			return fmt.Errorf("classify dossier operation: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("classify dossier operation: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("classify dossier operation: %w", sql.ErrNoRows)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit validation tx: %w", err)
	}
	return nil
}

// ListByDossier returns all validation records for a dossier, newest domain
// writes keeping their per-item order.
func (r *ValidationRepository) ListByDossier(ctx context.Context, dossierID string) ([]models.ValidationRecord, error) {
	const query = `SELECT id, dossier_id, item_id, domain, valid, comment, validated_by, validated_at
	FROM validation_records WHERE dossier_id = $1 ORDER BY domain ASC, item_id ASC`
	var records []models.ValidationRecord
	if err := r.db.SelectContext(ctx, &records, query, dossierID); err != nil {
		return nil, fmt.Errorf("list validation records: %w", err)
	}
	return records, nil
}

// GetSynthesis returns the synthesis for (dossier, domain); sql.ErrNoRows when
// the domain has never been recorded.
func (r *ValidationRepository) GetSynthesis(ctx context.Context, dossierID string, domain models.ChecklistDomain) (*models.Synthesis, error) {
	const query = `SELECT dossier_id, domain, total, valid_count, rejected_count, status, computed_at
	FROM syntheses WHERE dossier_id = $1 AND domain = $2`
	var synthesis models.Synthesis
	if err := r.db.GetContext(ctx, &synthesis, query, dossierID, domain); err != nil {
		return nil, err
	}
	return &synthesis, nil
}

// ListSyntheses returns every synthesis recorded for a dossier.
func (r *ValidationRepository) ListSyntheses(ctx context.Context, dossierID string) ([]models.Synthesis, error) {
	const query = `SELECT dossier_id, domain, total, valid_count, rejected_count, status, computed_at
	FROM syntheses WHERE dossier_id = $1 ORDER BY domain ASC`
	var syntheses []models.Synthesis
	if err := r.db.SelectContext(ctx, &syntheses, query, dossierID); err != nil {
		return nil, fmt.Errorf("list syntheses: %w", err)
	}
	return syntheses, nil
}
