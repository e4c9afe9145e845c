package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

// ErrQuitusExists signals that a quitus already exists for the dossier. The
// unique constraint on dossier_id is the arbiter under concurrent generation.
var ErrQuitusExists = errors.New("quitus already exists for dossier")

const pqUniqueViolation = "23505"

// QuitusRepository persists clearance certificates. Rows are insert-only.
type QuitusRepository struct {
	db *sqlx.DB
}

// NewQuitusRepository constructs the repository.
func NewQuitusRepository(db *sqlx.DB) *QuitusRepository {
	return &QuitusRepository{db: db}
}

// Create inserts the quitus. A concurrent duplicate insert loses the unique
// constraint race and gets ErrQuitusExists instead of a second row.
func (r *QuitusRepository) Create(ctx context.Context, quitus *models.Quitus) error {
	if quitus.ID == "" {
		quitus.ID = uuid.NewString()
	}
	if quitus.GeneratedAt.IsZero() {
		quitus.GeneratedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quitus
	(id, dossier_id, numero, snapshot, conforme, generated_by, generated_at)
	VALUES (:id, :dossier_id, :numero, :snapshot, :conforme, :generated_by, :generated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quitus); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrQuitusExists
		}
		return fmt.Errorf("create quitus: %w", err)
	}
	return nil
}

// GetByDossierID fetches the quitus owned by a dossier.
func (r *QuitusRepository) GetByDossierID(ctx context.Context, dossierID string) (*models.Quitus, error) {
	const query = `SELECT id, dossier_id, numero, snapshot, conforme, generated_by, generated_at
	FROM quitus WHERE dossier_id = $1`
	var quitus models.Quitus
	if err := r.db.GetContext(ctx, &quitus, query, dossierID); err != nil {
		return nil, err
	}
	return &quitus, nil
}
