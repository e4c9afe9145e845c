package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/response"
)

type quitusService interface {
	Generate(ctx context.Context, dossierID string, actor *models.JWTClaims) (*models.Quitus, bool, error)
	GetByDossier(ctx context.Context, dossierID string) (*models.Quitus, error)
	RenderPDF(ctx context.Context, dossierID string) ([]byte, error)
}

// QuitusHandler exposes quitus generation and retrieval endpoints.
type QuitusHandler struct {
	service quitusService
}

// NewQuitusHandler constructs the handler.
func NewQuitusHandler(service quitusService) *QuitusHandler {
	return &QuitusHandler{service: service}
}

// Generate godoc
// @Summary Generate the quitus for a definitively validated dossier
// @Tags Quitus
// @Produce json
// @Param id path string true "Dossier ID"
// @Success 200 {object} response.Envelope "Quitus already generated"
// @Success 201 {object} response.Envelope
// @Router /dossiers/{id}/quitus [post]
func (h *QuitusHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "quitus service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	quitus, already, err := h.service.Generate(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if already {
		response.JSON(c, http.StatusOK, quitus, nil, map[string]interface{}{"status": "ALREADY_GENERATED"})
		return
	}
	response.JSON(c, http.StatusCreated, quitus, nil)
}

// Get godoc
// @Summary Get the quitus of a dossier
// @Tags Quitus
// @Produce json
// @Param id path string true "Dossier ID"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/quitus [get]
func (h *QuitusHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "quitus service not configured"))
		return
	}
	quitus, err := h.service.GetByDossier(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quitus, nil)
}

// PDF godoc
// @Summary Download the quitus as a PDF document
// @Tags Quitus
// @Produce application/pdf
// @Param id path string true "Dossier ID"
// @Success 200 {file} binary
// @Router /dossiers/{id}/quitus/pdf [get]
func (h *QuitusHandler) PDF(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "quitus service not configured"))
		return
	}
	payload, err := h.service.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("quitus-%s.pdf", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
