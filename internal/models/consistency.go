package models

// DiscrepancyType identifies a consistency rule.
type DiscrepancyType string

const (
	DiscrepancyMontantDifferent     DiscrepancyType = "MONTANT_DIFFERENT"
	DiscrepancyOrdreTemporelInverse DiscrepancyType = "ORDRE_TEMPOREL_INVERSE"
	DiscrepancyDivergenceControles  DiscrepancyType = "DIVERGENCE_CONTROLES"
)

// DiscrepancySeverity grades a discrepancy.
type DiscrepancySeverity string

const (
	SeverityLow    DiscrepancySeverity = "LOW"
	SeverityMedium DiscrepancySeverity = "MEDIUM"
	SeverityHigh   DiscrepancySeverity = "HIGH"
)

// Discrepancy is an advisory finding from the consistency analyzer. It never
// blocks a transition; it is embedded verbatim into the quitus snapshot.
type Discrepancy struct {
	Type     DiscrepancyType        `json:"type"`
	Severity DiscrepancySeverity    `json:"severity"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}
