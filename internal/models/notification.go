package models

import "time"

// EventKind identifies a workflow transition notification.
type EventKind string

const (
	EventDossierSubmitted     EventKind = "DOSSIER_SUBMITTED"
	EventDossierRejectedCB    EventKind = "DOSSIER_REJETE_CB"
	EventDossierValidatedCB   EventKind = "DOSSIER_VALIDE_CB"
	EventDossierOrdonnanced   EventKind = "DOSSIER_ORDONNANCE"
	EventDossierValidatedDef  EventKind = "DOSSIER_VALIDE_DEFINITIVEMENT"
	EventQuitusGenerated      EventKind = "QUITUS_GENERE"
)

// DomainEvent is emitted by the workflow after a committed transition. The
// dispatcher delivers it best-effort; delivery failures never reach the
// transition path.
type DomainEvent struct {
	Kind       EventKind              `json:"kind"`
	DossierID  string                 `json:"dossierId"`
	Numero     string                 `json:"numero"`
	Recipients []UserRole             `json:"recipients"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}
