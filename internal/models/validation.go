package models

import "time"

// ValidationRecord ties one checklist item decision to one dossier. At most
// one record exists per (dossier, item); resubmission replaces the whole set
// for the domain.
type ValidationRecord struct {
	ID          string          `db:"id" json:"id"`
	DossierID   string          `db:"dossier_id" json:"dossierId"`
	ItemID      string          `db:"item_id" json:"itemId"`
	Domain      ChecklistDomain `db:"domain" json:"domain"`
	Valid       bool            `db:"valid" json:"valid"`
	Comment     *string         `db:"comment" json:"comment,omitempty"`
	ValidatedBy string          `db:"validated_by" json:"validatedBy"`
	ValidatedAt time.Time       `db:"validated_at" json:"validatedAt"`
}

// SynthesisStatus is the aggregated verdict for one (dossier, domain).
type SynthesisStatus string

const (
	SynthesisValidated SynthesisStatus = "VALIDATED"
	SynthesisRejected  SynthesisStatus = "REJECTED"
	SynthesisNotDone   SynthesisStatus = "NOT_DONE"
)

// Synthesis is derived from validation records and recomputed on every write;
// it is never edited directly.
type Synthesis struct {
	DossierID     string          `db:"dossier_id" json:"dossierId"`
	Domain        ChecklistDomain `db:"domain" json:"domain"`
	Total         int             `db:"total" json:"total"`
	ValidCount    int             `db:"valid_count" json:"validCount"`
	RejectedCount int             `db:"rejected_count" json:"rejectedCount"`
	Status        SynthesisStatus `db:"status" json:"status"`
	ComputedAt    time.Time       `db:"computed_at" json:"computedAt"`
}
