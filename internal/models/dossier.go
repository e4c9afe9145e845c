package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DossierStatut is the closed set of workflow states. Transitions are owned by
// the dossier service; no other code writes this column.
type DossierStatut string

const (
	StatutEnAttente            DossierStatut = "EN_ATTENTE"
	StatutValideCB             DossierStatut = "VALIDE_CB"
	StatutValideOrdonnateur    DossierStatut = "VALIDE_ORDONNATEUR"
	StatutValideDefinitivement DossierStatut = "VALIDE_DEFINITIVEMENT"
	StatutRejeteCB             DossierStatut = "REJETE_CB"
)

// Valid reports whether the status belongs to the closed set.
func (s DossierStatut) Valid() bool {
	switch s {
	case StatutEnAttente, StatutValideCB, StatutValideOrdonnateur,
		StatutValideDefinitivement, StatutRejeteCB:
		return true
	}
	return false
}

// Dossier is the accounting case file routed through approval.
type Dossier struct {
	ID                     string              `db:"id" json:"id"`
	Numero                 string              `db:"numero" json:"numero"`
	Objet                  string              `db:"objet" json:"objet"`
	Beneficiaire           string              `db:"beneficiaire" json:"beneficiaire"`
	MontantDemande         decimal.Decimal     `db:"montant_demande" json:"montantDemande"`
	MontantOrdonnance      decimal.NullDecimal `db:"montant_ordonnance" json:"montantOrdonnance,omitempty"`
	TypeOperation          *string             `db:"type_operation" json:"typeOperation,omitempty"`
	NatureOperation        *string             `db:"nature_operation" json:"natureOperation,omitempty"`
	CommentaireCB          *string             `db:"commentaire_cb" json:"commentaireCb,omitempty"`
	Statut                 DossierStatut       `db:"statut" json:"statut"`
	MotifRejet             *string             `db:"motif_rejet" json:"motifRejet,omitempty"`
	DetailsRejet           *string             `db:"details_rejet" json:"detailsRejet,omitempty"`
	CommentaireOrdonnateur *string             `db:"commentaire_ordonnateur" json:"commentaireOrdonnateur,omitempty"`
	CreatedBy              string              `db:"created_by" json:"createdBy"`
	SubmittedAt            time.Time           `db:"submitted_at" json:"submittedAt"`
	ValidatedCBAt          *time.Time          `db:"validated_cb_at" json:"validatedCbAt,omitempty"`
	OrdonnancedAt          *time.Time          `db:"ordonnanced_at" json:"ordonnancedAt,omitempty"`
	ValidatedDefAt         *time.Time          `db:"validated_def_at" json:"validatedDefAt,omitempty"`
	RejectedAt             *time.Time          `db:"rejected_at" json:"rejectedAt,omitempty"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updatedAt"`
}

// DossierFilter constrains listing queries.
type DossierFilter struct {
	Statut    []DossierStatut
	CreatedBy string
	Search    string
	Limit     int
	Offset    int
}
