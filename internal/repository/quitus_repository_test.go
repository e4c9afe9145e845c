package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

func TestQuitusRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuitusRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quitus")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	quitus := &models.Quitus{
		DossierID:   "dossier-1",
		Numero:      "QUITUS-D-2026-001",
		Snapshot:    []byte(`{"conforme":true}`),
		Conforme:    true,
		GeneratedBy: "ac-1",
	}
	require.NoError(t, repo.Create(context.Background(), quitus))
	require.NotEmpty(t, quitus.ID)
	require.False(t, quitus.GeneratedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuitusRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuitusRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quitus")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Quitus{
		DossierID: "dossier-1",
		Numero:    "QUITUS-D-2026-001",
		Snapshot:  []byte(`{}`),
	})
	require.ErrorIs(t, err, ErrQuitusExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuitusRepositoryGetByDossierID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewQuitusRepository(db)
	rows := sqlmock.NewRows([]string{"id", "dossier_id", "numero", "snapshot", "conforme", "generated_by", "generated_at"}).
		AddRow("quitus-1", "dossier-1", "QUITUS-D-2026-001", []byte(`{"conforme":true}`), true, "ac-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dossier_id, numero, snapshot")).
		WithArgs("dossier-1").
		WillReturnRows(rows)

	quitus, err := repo.GetByDossierID(context.Background(), "dossier-1")
	require.NoError(t, err)
	require.Equal(t, "QUITUS-D-2026-001", quitus.Numero)
	require.True(t, quitus.Conforme)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dossier_id, numero, snapshot")).
		WithArgs("dossier-2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByDossierID(context.Background(), "dossier-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
