package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

// CreateDossierRequest payload for submitting a new dossier.
type CreateDossierRequest struct {
	Numero         string          `json:"numero" binding:"required"`
	Objet          string          `json:"objet" binding:"required"`
	Beneficiaire   string          `json:"beneficiaire" binding:"required"`
	MontantDemande decimal.Decimal `json:"montantDemande"`
}

// UpdateDossierRequest captures the fields a secretary may edit on a rejected
// dossier before resubmission.
type UpdateDossierRequest struct {
	Objet          *string          `json:"objet,omitempty"`
	Beneficiaire   *string          `json:"beneficiaire,omitempty"`
	MontantDemande *decimal.Decimal `json:"montantDemande,omitempty"`
}

// RejectDossierRequest carries the CB rejection reason.
type RejectDossierRequest struct {
	Motif   string `json:"motif" binding:"required"`
	Details string `json:"details"`
}

// OrdonnanceRequest carries the ordonnanced amount and reviewer comment.
type OrdonnanceRequest struct {
	Montant     decimal.Decimal `json:"montant"`
	Commentaire string          `json:"commentaire"`
}

// DossierQuery mirrors supported listing filters.
type DossierQuery struct {
	Statut []models.DossierStatut
	Search string
	Page   int
	Limit  int
}
