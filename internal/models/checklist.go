package models

// ChecklistDomain identifies one of the role checklists. TYPE_OPERATION and
// CONTROLES_FOND are the two CB sub-checklists gating the same transition;
// VERIFICATIONS_ORDONNATEUR gates ordonnancement.
type ChecklistDomain string

const (
	DomainTypeOperation            ChecklistDomain = "TYPE_OPERATION"
	DomainControlesFond            ChecklistDomain = "CONTROLES_FOND"
	DomainVerificationsOrdonnateur ChecklistDomain = "VERIFICATIONS_ORDONNATEUR"
)

// Valid reports whether the domain belongs to the closed set.
func (d ChecklistDomain) Valid() bool {
	switch d {
	case DomainTypeOperation, DomainControlesFond, DomainVerificationsOrdonnateur:
		return true
	}
	return false
}

// ChecklistCategory groups checklist items for display. Ordering is cosmetic.
type ChecklistCategory struct {
	ID       string          `db:"id" json:"id"`
	Domain   ChecklistDomain `db:"domain" json:"domain"`
	Label    string          `db:"label" json:"label"`
	Position int             `db:"position" json:"position"`
}

// ChecklistItem is immutable reference data; obligatory items must all be
// present and valid before a synthesis can read VALIDATED.
type ChecklistItem struct {
	ID          string          `db:"id" json:"id"`
	CategoryID  string          `db:"category_id" json:"categoryId"`
	Domain      ChecklistDomain `db:"domain" json:"domain"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Obligatory  bool            `db:"obligatory" json:"obligatory"`
	Active      bool            `db:"active" json:"active"`
}

// Catalog is the loaded checklist reference set for one domain.
type Catalog struct {
	Domain     ChecklistDomain     `json:"domain"`
	Categories []ChecklistCategory `json:"categories"`
	Items      []ChecklistItem     `json:"items"`
}

// ObligatoryIDs returns the ids of active obligatory items.
func (c Catalog) ObligatoryIDs() []string {
	out := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Active && item.Obligatory {
			out = append(out, item.ID)
		}
	}
	return out
}

// ActiveByID indexes active items by id.
func (c Catalog) ActiveByID() map[string]ChecklistItem {
	out := make(map[string]ChecklistItem, len(c.Items))
	for _, item := range c.Items {
		if item.Active {
			out[item.ID] = item
		}
	}
	return out
}
