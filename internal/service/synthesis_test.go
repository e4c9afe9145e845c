package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

func testCatalog(domain models.ChecklistDomain) *models.Catalog {
	return &models.Catalog{
		Domain: domain,
		Categories: []models.ChecklistCategory{
			{ID: "cat-1", Domain: domain, Label: "Pièces justificatives", Position: 1},
		},
		Items: []models.ChecklistItem{
			{ID: "item-1", CategoryID: "cat-1", Domain: domain, Name: "Pièce A", Obligatory: true, Active: true},
			{ID: "item-2", CategoryID: "cat-1", Domain: domain, Name: "Pièce B", Obligatory: true, Active: true},
			{ID: "item-3", CategoryID: "cat-1", Domain: domain, Name: "Pièce C", Obligatory: false, Active: true},
			{ID: "item-4", CategoryID: "cat-1", Domain: domain, Name: "Pièce D", Obligatory: true, Active: false},
		},
	}
}

func record(itemID string, valid bool) models.ValidationRecord {
	return models.ValidationRecord{
		DossierID:   "dossier-1",
		ItemID:      itemID,
		Domain:      models.DomainControlesFond,
		Valid:       valid,
		ValidatedBy: "cb-1",
		ValidatedAt: time.Now().UTC(),
	}
}

func TestComputeSynthesisValidated(t *testing.T) {
	catalog := testCatalog(models.DomainControlesFond)
	records := []models.ValidationRecord{
		record("item-1", true),
		record("item-2", true),
	}
	synthesis := ComputeSynthesis("dossier-1", catalog, records, time.Now().UTC())
	require.Equal(t, models.SynthesisValidated, synthesis.Status)
	require.Equal(t, 2, synthesis.Total)
	require.Equal(t, 2, synthesis.ValidCount)
	require.Equal(t, 0, synthesis.RejectedCount)
}

func TestComputeSynthesisNotDoneUntilObligatoryCovered(t *testing.T) {
	catalog := testCatalog(models.DomainControlesFond)
	records := []models.ValidationRecord{
		record("item-1", true),
	}
	synthesis := ComputeSynthesis("dossier-1", catalog, records, time.Now().UTC())
	require.Equal(t, models.SynthesisNotDone, synthesis.Status)
}

func TestComputeSynthesisRejectionDominates(t *testing.T) {
	catalog := testCatalog(models.DomainControlesFond)

	// An invalid obligatory item forces REJECTED.
	records := []models.ValidationRecord{
		record("item-1", true),
		record("item-2", false),
	}
	synthesis := ComputeSynthesis("dossier-1", catalog, records, time.Now().UTC())
	require.Equal(t, models.SynthesisRejected, synthesis.Status)
	require.Equal(t, 1, synthesis.RejectedCount)

	// So does an invalid non-obligatory item, even with full obligatory coverage.
	records = []models.ValidationRecord{
		record("item-1", true),
		record("item-2", true),
		record("item-3", false),
	}
	synthesis = ComputeSynthesis("dossier-1", catalog, records, time.Now().UTC())
	require.Equal(t, models.SynthesisRejected, synthesis.Status)
}

func TestComputeSynthesisIgnoresInactiveObligatoryItems(t *testing.T) {
	catalog := testCatalog(models.DomainControlesFond)
	// item-4 is obligatory but inactive; coverage of item-1 and item-2 suffices.
	records := []models.ValidationRecord{
		record("item-1", true),
		record("item-2", true),
	}
	synthesis := ComputeSynthesis("dossier-1", catalog, records, time.Now().UTC())
	require.Equal(t, models.SynthesisValidated, synthesis.Status)
}

func TestComputeSynthesisDeterministic(t *testing.T) {
	catalog := testCatalog(models.DomainControlesFond)
	records := []models.ValidationRecord{
		record("item-1", true),
		record("item-2", false),
		record("item-3", true),
	}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := ComputeSynthesis("dossier-1", catalog, records, at)
	second := ComputeSynthesis("dossier-1", catalog, records, at)
	require.Equal(t, first, second)
}
