package service

import (
	"time"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

// ComputeSynthesis derives the aggregated verdict for one (dossier, domain)
// from the full record set. The rule, matching the downstream gates: any
// record marked invalid forces REJECTED, obligatory or not; otherwise the
// verdict is VALIDATED once every active obligatory item carries a valid
// record, and NOT_DONE until then. Deterministic over its inputs.
func ComputeSynthesis(dossierID string, catalog *models.Catalog, records []models.ValidationRecord, at time.Time) models.Synthesis {
	synthesis := models.Synthesis{
		DossierID:  dossierID,
		Domain:     catalog.Domain,
		Total:      len(records),
		ComputedAt: at,
	}

	validated := make(map[string]bool, len(records))
	for _, record := range records {
		if record.Valid {
			synthesis.ValidCount++
		} else {
			synthesis.RejectedCount++
		}
		validated[record.ItemID] = record.Valid
	}

	if synthesis.RejectedCount > 0 {
		synthesis.Status = models.SynthesisRejected
		return synthesis
	}

	for _, itemID := range catalog.ObligatoryIDs() {
		if !validated[itemID] {
			synthesis.Status = models.SynthesisNotDone
			return synthesis
		}
	}
	synthesis.Status = models.SynthesisValidated
	return synthesis
}
