package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

func consistencyDossier(demande, ordonnance string) models.Dossier {
	d := models.Dossier{
		ID:             "dossier-1",
		Numero:         "D-2026-001",
		MontantDemande: decimal.RequireFromString(demande),
	}
	if ordonnance != "" {
		d.MontantOrdonnance = decimal.NewNullDecimal(decimal.RequireFromString(ordonnance))
	}
	return d
}

func TestConsistencyAmountMatchNoFinding(t *testing.T) {
	svc := NewConsistencyService()
	findings := svc.Analyze(ConsistencyInput{Dossier: consistencyDossier("1000", "1000")})
	require.Empty(t, findings)
}

func TestConsistencyAmountMismatchMedium(t *testing.T) {
	svc := NewConsistencyService()
	findings := svc.Analyze(ConsistencyInput{Dossier: consistencyDossier("1000", "950")})
	require.Len(t, findings, 1)
	require.Equal(t, models.DiscrepancyMontantDifferent, findings[0].Type)
	require.Equal(t, models.SeverityMedium, findings[0].Severity)
}

func TestConsistencyAmountMismatchHighAboveTenPercent(t *testing.T) {
	svc := NewConsistencyService()
	findings := svc.Analyze(ConsistencyInput{Dossier: consistencyDossier("1000", "750")})
	require.Len(t, findings, 1)
	require.Equal(t, models.SeverityHigh, findings[0].Severity)
}

func TestConsistencyTemporalInversion(t *testing.T) {
	svc := NewConsistencyService()
	validated := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	ordonnanced := validated.Add(-48 * time.Hour)

	dossier := consistencyDossier("1000", "")
	dossier.ValidatedCBAt = &validated
	dossier.OrdonnancedAt = &ordonnanced

	findings := svc.Analyze(ConsistencyInput{Dossier: dossier})
	require.Len(t, findings, 1)
	require.Equal(t, models.DiscrepancyOrdreTemporelInverse, findings[0].Type)
	require.Equal(t, models.SeverityHigh, findings[0].Severity)

	// Normal ordering yields nothing.
	ordered := validated.Add(24 * time.Hour)
	dossier.OrdonnancedAt = &ordered
	require.Empty(t, svc.Analyze(ConsistencyInput{Dossier: dossier}))
}

func TestConsistencyCrossValidationDivergence(t *testing.T) {
	svc := NewConsistencyService()
	cb := []models.Synthesis{
		{Domain: models.DomainTypeOperation, Status: models.SynthesisValidated},
		{Domain: models.DomainControlesFond, Status: models.SynthesisValidated, RejectedCount: 2},
	}
	ord := &models.Synthesis{Domain: models.DomainVerificationsOrdonnateur, Status: models.SynthesisValidated}

	findings := svc.Analyze(ConsistencyInput{
		Dossier:              consistencyDossier("1000", ""),
		CBSyntheses:          cb,
		OrdonnateurSynthesis: ord,
	})
	require.Len(t, findings, 1)
	require.Equal(t, models.DiscrepancyDivergenceControles, findings[0].Type)
	require.Equal(t, models.SeverityMedium, findings[0].Severity)

	// Both sides rejecting is not a divergence.
	ord.RejectedCount = 1
	require.Empty(t, svc.Analyze(ConsistencyInput{
		Dossier:              consistencyDossier("1000", ""),
		CBSyntheses:          cb,
		OrdonnateurSynthesis: ord,
	}))
}

func TestConsistencyExtraRule(t *testing.T) {
	called := false
	extra := func(ConsistencyInput) []models.Discrepancy {
		called = true
		return nil
	}
	svc := NewConsistencyService(extra)
	svc.Analyze(ConsistencyInput{Dossier: consistencyDossier("1000", "")})
	require.True(t, called)
}
