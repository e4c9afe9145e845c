package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

// ConsistencyInput bundles everything a rule may inspect.
type ConsistencyInput struct {
	Dossier              models.Dossier
	CBSyntheses          []models.Synthesis
	OrdonnateurSynthesis *models.Synthesis
}

// ConsistencyRule derives zero or more discrepancies from the input.
type ConsistencyRule func(ConsistencyInput) []models.Discrepancy

// ConsistencyService cross-checks CB and ordonnateur outcomes. Findings are
// advisory: they never block a transition, and the quitus embeds them
// verbatim. New rules slot in without touching the workflow service.
type ConsistencyService struct {
	rules []ConsistencyRule
}

// NewConsistencyService constructs the analyzer with the default rule set.
func NewConsistencyService(extra ...ConsistencyRule) *ConsistencyService {
	rules := []ConsistencyRule{
		amountMismatchRule,
		temporalInversionRule,
		crossValidationDivergenceRule,
	}
	rules = append(rules, extra...)
	return &ConsistencyService{rules: rules}
}

// Analyze runs every rule and concatenates the findings.
func (s *ConsistencyService) Analyze(input ConsistencyInput) []models.Discrepancy {
	discrepancies := make([]models.Discrepancy, 0, 4)
	for _, rule := range s.rules {
		discrepancies = append(discrepancies, rule(input)...)
	}
	return discrepancies
}

// amountMismatchRule flags an ordonnanced amount that differs from the
// requested one; a delta above 10% of the requested amount is HIGH.
func amountMismatchRule(input ConsistencyInput) []models.Discrepancy {
	if !input.Dossier.MontantOrdonnance.Valid {
		return nil
	}
	demande := input.Dossier.MontantDemande
	ordonnance := input.Dossier.MontantOrdonnance.Decimal
	if ordonnance.Equal(demande) {
		return nil
	}
	delta := ordonnance.Sub(demande).Abs()
	severity := models.SeverityMedium
	if demande.IsPositive() && delta.GreaterThan(demande.Mul(decimal.NewFromFloat(0.1))) {
		severity = models.SeverityHigh
	}
	return []models.Discrepancy{{
		Type:     models.DiscrepancyMontantDifferent,
		Severity: severity,
		Message:  fmt.Sprintf("montant ordonnancé (%s) differs from montant demandé (%s)", ordonnance.String(), demande.String()),
		Details: map[string]interface{}{
			"montantDemande":    demande.String(),
			"montantOrdonnance": ordonnance.String(),
			"delta":             delta.String(),
		},
	}}
}

// temporalInversionRule flags an ordonnancement stamped before CB validation.
func temporalInversionRule(input ConsistencyInput) []models.Discrepancy {
	d := input.Dossier
	if d.OrdonnancedAt == nil || d.ValidatedCBAt == nil {
		return nil
	}
	if !d.OrdonnancedAt.Before(*d.ValidatedCBAt) {
		return nil
	}
	return []models.Discrepancy{{
		Type:     models.DiscrepancyOrdreTemporelInverse,
		Severity: models.SeverityHigh,
		Message:  "ordonnancement predates CB validation",
		Details: map[string]interface{}{
			"ordonnancedAt": d.OrdonnancedAt,
			"validatedCbAt": d.ValidatedCBAt,
		},
	}}
}

// crossValidationDivergenceRule flags one reviewer recording rejections while
// the other recorded none, suggesting a missed issue.
func crossValidationDivergenceRule(input ConsistencyInput) []models.Discrepancy {
	if input.OrdonnateurSynthesis == nil || len(input.CBSyntheses) == 0 {
		return nil
	}
	cbRejected := 0
	for _, synthesis := range input.CBSyntheses {
		cbRejected += synthesis.RejectedCount
	}
	ordRejected := input.OrdonnateurSynthesis.RejectedCount
	if (cbRejected > 0) == (ordRejected > 0) {
		return nil
	}
	return []models.Discrepancy{{
		Type:     models.DiscrepancyDivergenceControles,
		Severity: models.SeverityMedium,
		Message:  "CB and ordonnateur rejection outcomes diverge",
		Details: map[string]interface{}{
			"cbRejectedCount":          cbRejected,
			"ordonnateurRejectedCount": ordRejected,
		},
	}}
}
