package models

// RecordView enriches a validation record with its catalog item for reporting.
type RecordView struct {
	ValidationRecord
	ItemName      string `json:"itemName"`
	CategoryLabel string `json:"categoryLabel"`
	Obligatory    bool   `json:"obligatory"`
}

// VerificationReport cross-cuts both role checklists for one dossier.
type VerificationReport struct {
	DossierID            string        `json:"dossierId"`
	Numero               string        `json:"numero"`
	Statut               DossierStatut `json:"statut"`
	CBSyntheses          []Synthesis   `json:"cbSyntheses"`
	OrdonnateurSynthesis *Synthesis    `json:"ordonnateurSynthesis,omitempty"`
	Records              []RecordView  `json:"records"`
	Discrepancies        []Discrepancy `json:"discrepancies"`
}
