package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func dossierRows(id string, statut models.DossierStatut) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "numero", "objet", "beneficiaire", "montant_demande", "montant_ordonnance",
		"type_operation", "nature_operation", "commentaire_cb", "statut",
		"motif_rejet", "details_rejet", "commentaire_ordonnateur", "created_by", "submitted_at",
		"validated_cb_at", "ordonnanced_at", "validated_def_at", "rejected_at", "updated_at",
	}).AddRow(id, "D-2026-001", "Achat", "Fournisseur", "1500.00", nil,
		nil, nil, nil, string(statut),
		nil, nil, nil, "sec-1", now,
		nil, nil, nil, nil, now)
}

func TestDossierRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dossiers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	dossier := &models.Dossier{
		Numero:         "D-2026-001",
		Objet:          "Achat",
		Beneficiaire:   "Fournisseur",
		MontantDemande: decimal.RequireFromString("1500.00"),
		CreatedBy:      "sec-1",
	}
	require.NoError(t, repo.Create(context.Background(), dossier))
	require.NotEmpty(t, dossier.ID)
	require.Equal(t, models.StatutEnAttente, dossier.Statut)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, numero, objet, beneficiaire")).
		WithArgs(dossier.ID).
		WillReturnRows(dossierRows(dossier.ID, models.StatutEnAttente))

	found, err := repo.GetByID(context.Background(), dossier.ID)
	require.NoError(t, err)
	require.Equal(t, dossier.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("statut IN ($1)")).
		WithArgs("EN_ATTENTE", "sec-1", "%achat%").
		WillReturnRows(dossierRows("dossier-1", models.StatutEnAttente))

	list, err := repo.List(context.Background(), models.DossierFilter{
		Statut:    []models.DossierStatut{models.StatutEnAttente},
		CreatedBy: "sec-1",
		Search:    "achat",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierRepositoryPromoteToValidCB(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dossiers SET statut")).
		WithArgs("VALIDE_CB", at, "dossier-1", "EN_ATTENTE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.PromoteToValidCB(context.Background(), "dossier-1", at))

	// A guard miss touches zero rows and surfaces as sql.ErrNoRows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE dossiers SET statut")).
		WithArgs("VALIDE_CB", at, "dossier-1", "EN_ATTENTE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.PromoteToValidCB(context.Background(), "dossier-1", at)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierRepositoryRejectByCB(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dossiers SET statut")).
		WithArgs("REJETE_CB", "pièces manquantes", "", at, "dossier-1", "EN_ATTENTE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RejectByCB(context.Background(), "dossier-1", "pièces manquantes", "", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierRepositoryResubmit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	objet := "Achat corrigé"
	montant := decimal.RequireFromString("1200.00")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dossiers SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Resubmit(context.Background(), ResubmitParams{
		ID:             "dossier-1",
		Objet:          &objet,
		MontantDemande: &montant,
		At:             time.Now().UTC(),
	}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dossiers SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Resubmit(context.Background(), ResubmitParams{ID: "dossier-1", At: time.Now().UTC()})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierRepositoryOrdonnance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	at := time.Now().UTC()
	montant := decimal.RequireFromString("1450.00")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE dossiers SET statut")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Ordonnance(context.Background(), "dossier-1", montant, "conforme", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierRepositoryDeleteOnlyEarlyStates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDossierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM dossiers")).
		WithArgs("dossier-1", "EN_ATTENTE", "REJETE_CB").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "dossier-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
