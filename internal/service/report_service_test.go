package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/export"
)

func newTestReportService(statut models.DossierStatut) (*ReportService, *dossierRepoStub, *validationReaderStub) {
	repo := newDossierRepoStub()
	seedDossier(repo, statut)
	reader := fullyValidatedReader()
	svc := NewReportService(repo, reader, catalogProviderStub{}, NewConsistencyService(), export.NewCSVExporter(), nil)
	return svc, repo, reader
}

func TestReportServiceGetVerificationReport(t *testing.T) {
	svc, _, _ := newTestReportService(models.StatutValideDefinitivement)

	report, err := svc.GetVerificationReport(context.Background(), "dossier-1")
	require.NoError(t, err)
	require.Equal(t, "D-2026-001", report.Numero)
	require.Len(t, report.CBSyntheses, 2)
	require.NotNil(t, report.OrdonnateurSynthesis)
	require.Len(t, report.Records, 6)
	require.Empty(t, report.Discrepancies)
}

func TestReportServiceEnrichesRecords(t *testing.T) {
	svc, _, _ := newTestReportService(models.StatutValideDefinitivement)

	report, err := svc.GetVerificationReport(context.Background(), "dossier-1")
	require.NoError(t, err)
	for _, record := range report.Records {
		require.NotEmpty(t, record.ItemName)
		require.Equal(t, "Pièces justificatives", record.CategoryLabel)
		require.True(t, record.Obligatory)
	}
}

func TestReportServiceIncludesDiscrepancies(t *testing.T) {
	svc, _, reader := newTestReportService(models.StatutValideDefinitivement)
	ord := &reader.syntheses[2]
	ord.RejectedCount = 1

	report, err := svc.GetVerificationReport(context.Background(), "dossier-1")
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)
	require.Equal(t, models.DiscrepancyDivergenceControles, report.Discrepancies[0].Type)
}

func TestReportServiceNotFound(t *testing.T) {
	svc, _, _ := newTestReportService(models.StatutValideDefinitivement)

	_, err := svc.GetVerificationReport(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportServiceExportCSV(t *testing.T) {
	svc, _, reader := newTestReportService(models.StatutValideDefinitivement)
	comment := "vérifié"
	reader.records[0].Comment = &comment
	reader.records[0].ValidatedAt = time.Date(2026, 2, 12, 9, 30, 0, 0, time.UTC)

	data, err := svc.ExportVerificationReportCSV(context.Background(), "dossier-1")
	require.NoError(t, err)
	csv := string(data)
	require.Contains(t, csv, "domaine,categorie,controle,obligatoire,verdict,commentaire,valideur,date")
	require.Contains(t, csv, "TYPE_OPERATION")
	require.Contains(t, csv, "VALIDE")
	require.Contains(t, csv, "vérifié")
	require.Contains(t, csv, "2026-02-12T09:30:00Z")
}
