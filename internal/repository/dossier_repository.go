package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

const dossierColumns = `id, numero, objet, beneficiaire, montant_demande, montant_ordonnance,
       type_operation, nature_operation, commentaire_cb, statut,
       motif_rejet, details_rejet, commentaire_ordonnateur, created_by, submitted_at,
       validated_cb_at, ordonnanced_at, validated_def_at, rejected_at, updated_at`

// DossierRepository persists dossiers. All status transitions are conditional
// updates keyed on the expected current status; zero affected rows surfaces as
// sql.ErrNoRows so the service can distinguish a lost race from a missing row.
type DossierRepository struct {
	db *sqlx.DB
}

// NewDossierRepository constructs the repository.
func NewDossierRepository(db *sqlx.DB) *DossierRepository {
	return &DossierRepository{db: db}
}

// Create inserts a new dossier row.
func (r *DossierRepository) Create(ctx context.Context, dossier *models.Dossier) error {
	if dossier.ID == "" {
		dossier.ID = uuid.NewString()
	}
	if dossier.Statut == "" {
		dossier.Statut = models.StatutEnAttente
	}
	now := time.Now().UTC()
	if dossier.SubmittedAt.IsZero() {
		dossier.SubmittedAt = now
	}
	dossier.UpdatedAt = now
	const query = `INSERT INTO dossiers
	(id, numero, objet, beneficiaire, montant_demande, statut, created_by, submitted_at, updated_at)
	VALUES (:id, :numero, :objet, :beneficiaire, :montant_demande, :statut, :created_by, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dossier); err != nil {
		return fmt.Errorf("create dossier: %w", err)
	}
	return nil
}

// GetByID fetches a dossier by identifier.
func (r *DossierRepository) GetByID(ctx context.Context, id string) (*models.Dossier, error) {
	query := fmt.Sprintf(`SELECT %s FROM dossiers WHERE id = $1`, dossierColumns)
	var dossier models.Dossier
	if err := r.db.GetContext(ctx, &dossier, query, id); err != nil {
		return nil, err
	}
	return &dossier, nil
}

// List returns dossiers matching the filter (latest submissions first).
func (r *DossierRepository) List(ctx context.Context, filter models.DossierFilter) ([]models.Dossier, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM dossiers", dossierColumns))

	conditions := make([]string, 0, 3)
	if len(filter.Statut) > 0 {
		placeholders := make([]string, len(filter.Statut))
		for i, statut := range filter.Statut {
			args = append(args, statut)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("statut IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(numero ILIKE $%d OR objet ILIKE $%d OR beneficiaire ILIKE $%d)", len(args), len(args), len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var dossiers []models.Dossier
	if err := r.db.SelectContext(ctx, &dossiers, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}
	return dossiers, nil
}

// PromoteToValidCB moves EN_ATTENTE -> VALIDE_CB.
func (r *DossierRepository) PromoteToValidCB(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE dossiers SET statut = $1, validated_cb_at = $2, updated_at = $2
	WHERE id = $3 AND statut = $4`
	result, err := r.db.ExecContext(ctx, query, models.StatutValideCB, at, id, models.StatutEnAttente)
	if err != nil {
		return fmt.Errorf("promote dossier to valide_cb: %w", err)
	}
	return requireRow(result)
}

// RejectByCB moves EN_ATTENTE -> REJETE_CB and stores the rejection reason.
func (r *DossierRepository) RejectByCB(ctx context.Context, id, motif, details string, at time.Time) error {
	const query = `UPDATE dossiers SET statut = $1, motif_rejet = $2, details_rejet = NULLIF($3, ''),
	rejected_at = $4, updated_at = $4
	WHERE id = $5 AND statut = $6`
	result, err := r.db.ExecContext(ctx, query, models.StatutRejeteCB, motif, details, at, id, models.StatutEnAttente)
	if err != nil {
		return fmt.Errorf("reject dossier: %w", err)
	}
	return requireRow(result)
}

// ResubmitParams groups the fields a secretary may change while resubmitting.
type ResubmitParams struct {
	ID             string
	Objet          *string
	Beneficiaire   *string
	MontantDemande *decimal.Decimal
	At             time.Time
}

// Resubmit moves REJETE_CB -> EN_ATTENTE, applies edits and clears the
// rejection fields in the same statement.
func (r *DossierRepository) Resubmit(ctx context.Context, params ResubmitParams) error {
	setParts := []string{
		"statut = :statut",
		"motif_rejet = NULL",
		"details_rejet = NULL",
		"rejected_at = NULL",
		"updated_at = :at",
	}
	namedArgs := map[string]interface{}{
		"id":       params.ID,
		"statut":   models.StatutEnAttente,
		"expected": models.StatutRejeteCB,
		"at":       params.At,
	}
	if params.Objet != nil {
		setParts = append(setParts, "objet = :objet")
		namedArgs["objet"] = *params.Objet
	}
	if params.Beneficiaire != nil {
		setParts = append(setParts, "beneficiaire = :beneficiaire")
		namedArgs["beneficiaire"] = *params.Beneficiaire
	}
	if params.MontantDemande != nil {
		setParts = append(setParts, "montant_demande = :montant_demande")
		namedArgs["montant_demande"] = *params.MontantDemande
	}
	query := fmt.Sprintf("UPDATE dossiers SET %s WHERE id = :id AND statut = :expected", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, namedArgs)
	if err != nil {
		return fmt.Errorf("resubmit dossier: %w", err)
	}
	return requireRow(result)
}

// Ordonnance moves VALIDE_CB -> VALIDE_ORDONNATEUR and records the amount.
func (r *DossierRepository) Ordonnance(ctx context.Context, id string, montant decimal.Decimal, commentaire string, at time.Time) error {
	const query = `UPDATE dossiers SET statut = $1, montant_ordonnance = $2,
	commentaire_ordonnateur = NULLIF($3, ''), ordonnanced_at = $4, updated_at = $4
	WHERE id = $5 AND statut = $6`
	result, err := r.db.ExecContext(ctx, query, models.StatutValideOrdonnateur, montant, commentaire, at, id, models.StatutValideCB)
	if err != nil {
		return fmt.Errorf("ordonnance dossier: %w", err)
	}
	return requireRow(result)
}

// ValidateDefinitively moves VALIDE_ORDONNATEUR -> VALIDE_DEFINITIVEMENT.
func (r *DossierRepository) ValidateDefinitively(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE dossiers SET statut = $1, validated_def_at = $2, updated_at = $2
	WHERE id = $3 AND statut = $4`
	result, err := r.db.ExecContext(ctx, query, models.StatutValideDefinitivement, at, id, models.StatutValideOrdonnateur)
	if err != nil {
		return fmt.Errorf("validate dossier definitively: %w", err)
	}
	return requireRow(result)
}

// Delete removes a dossier still owned by its secretary. Only EN_ATTENTE and
// REJETE_CB rows are deletable; anything further along is immutable history.
func (r *DossierRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM dossiers WHERE id = $1 AND statut IN ($2, $3)`
	result, err := r.db.ExecContext(ctx, query, id, models.StatutEnAttente, models.StatutRejeteCB)
	if err != nil {
		return fmt.Errorf("delete dossier: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
