package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

// ChecklistRepository reads the immutable checklist catalog. There are no
// write methods; reference data is provisioned out of band.
type ChecklistRepository struct {
	db *sqlx.DB
}

// NewChecklistRepository constructs the repository.
func NewChecklistRepository(db *sqlx.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// LoadCatalog returns categories and items for one domain.
func (r *ChecklistRepository) LoadCatalog(ctx context.Context, domain models.ChecklistDomain) (*models.Catalog, error) {
	const categoriesQuery = `SELECT id, domain, label, position
	FROM checklist_categories WHERE domain = $1 ORDER BY position ASC`
	var categories []models.ChecklistCategory
	if err := r.db.SelectContext(ctx, &categories, categoriesQuery, domain); err != nil {
		return nil, fmt.Errorf("load checklist categories: %w", err)
	}

	const itemsQuery = `SELECT i.id, i.category_id, i.domain, i.name, i.description, i.obligatory, i.active
	FROM checklist_items i
	JOIN checklist_categories c ON c.id = i.category_id
	WHERE i.domain = $1 ORDER BY c.position ASC, i.name ASC`
	var items []models.ChecklistItem
	if err := r.db.SelectContext(ctx, &items, itemsQuery, domain); err != nil {
		return nil, fmt.Errorf("load checklist items: %w", err)
	}

	return &models.Catalog{Domain: domain, Categories: categories, Items: items}, nil
}
