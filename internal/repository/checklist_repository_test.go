package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

func TestChecklistRepositoryLoadCatalog(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)
	categoryRows := sqlmock.NewRows([]string{"id", "domain", "label", "position"}).
		AddRow("cat-1", "CONTROLES_FOND", "Pièces justificatives", 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM checklist_categories")).
		WithArgs("CONTROLES_FOND").
		WillReturnRows(categoryRows)

	itemRows := sqlmock.NewRows([]string{"id", "category_id", "domain", "name", "description", "obligatory", "active"}).
		AddRow("item-1", "cat-1", "CONTROLES_FOND", "Pièce A", "", true, true).
		AddRow("item-2", "cat-1", "CONTROLES_FOND", "Pièce B", "", false, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM checklist_items")).
		WithArgs("CONTROLES_FOND").
		WillReturnRows(itemRows)

	catalog, err := repo.LoadCatalog(context.Background(), models.DomainControlesFond)
	require.NoError(t, err)
	require.Equal(t, models.DomainControlesFond, catalog.Domain)
	require.Len(t, catalog.Categories, 1)
	require.Len(t, catalog.Items, 2)
	require.Equal(t, []string{"item-1"}, catalog.ObligatoryIDs())
	require.NoError(t, mock.ExpectationsWereMet())
}
