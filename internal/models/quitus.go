package models

import (
	"encoding/json"
	"time"
)

// Quitus is the immutable clearance certificate closing the workflow. The
// snapshot freezes dossier, syntheses and consistency results at generation
// time; at most one quitus exists per dossier.
type Quitus struct {
	ID          string          `db:"id" json:"id"`
	DossierID   string          `db:"dossier_id" json:"dossierId"`
	Numero      string          `db:"numero" json:"numero"`
	Snapshot    json.RawMessage `db:"snapshot" json:"snapshot"`
	Conforme    bool            `db:"conforme" json:"conforme"`
	GeneratedBy string          `db:"generated_by" json:"generatedBy"`
	GeneratedAt time.Time       `db:"generated_at" json:"generatedAt"`
}

// QuitusSnapshot is the frozen payload persisted inside a quitus.
type QuitusSnapshot struct {
	Dossier       Dossier             `json:"dossier"`
	CBSyntheses   []Synthesis         `json:"cbSyntheses"`
	OrdSynthesis  *Synthesis          `json:"ordonnateurSynthesis,omitempty"`
	Breakdown     []CategoryBreakdown `json:"breakdown"`
	Discrepancies []Discrepancy       `json:"discrepancies"`
	Conforme      bool                `json:"conforme"`
	GeneratedAt   time.Time           `json:"generatedAt"`
}

// CategoryBreakdown flattens per-category validation results for reporting.
type CategoryBreakdown struct {
	Domain        ChecklistDomain `json:"domain"`
	CategoryID    string          `json:"categoryId"`
	CategoryLabel string          `json:"categoryLabel"`
	Total         int             `json:"total"`
	ValidCount    int             `json:"validCount"`
	RejectedCount int             `json:"rejectedCount"`
}
