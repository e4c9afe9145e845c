package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/response"
)

type checklistService interface {
	Catalog(ctx context.Context, domain models.ChecklistDomain) (*models.Catalog, error)
}

// ChecklistHandler serves the checklist catalogs.
type ChecklistHandler struct {
	service checklistService
}

// NewChecklistHandler constructs the handler.
func NewChecklistHandler(service checklistService) *ChecklistHandler {
	return &ChecklistHandler{service: service}
}

// Catalog godoc
// @Summary Get the checklist catalog for a validation domain
// @Tags Checklists
// @Produce json
// @Param domain path string true "Validation domain" Enums(TYPE_OPERATION, CONTROLES_FOND, VERIFICATIONS_ORDONNATEUR)
// @Success 200 {object} response.Envelope
// @Router /checklists/{domain} [get]
func (h *ChecklistHandler) Catalog(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "checklist service not configured"))
		return
	}
	domain := models.ChecklistDomain(strings.ToUpper(c.Param("domain")))
	if !domain.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown checklist domain"))
		return
	}
	catalog, err := h.service.Catalog(c.Request.Context(), domain)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog, nil)
}
