package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-quitus-api/internal/dto"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/response"
)

type dossierService interface {
	Create(ctx context.Context, req dto.CreateDossierRequest, actor *models.JWTClaims) (*models.Dossier, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Dossier, error)
	List(ctx context.Context, query dto.DossierQuery, actor *models.JWTClaims) ([]models.Dossier, error)
	Resubmit(ctx context.Context, id string, req dto.UpdateDossierRequest, actor *models.JWTClaims) (*models.Dossier, error)
	RejectByCB(ctx context.Context, id string, req dto.RejectDossierRequest, actor *models.JWTClaims) (*models.Dossier, error)
	Ordonnance(ctx context.Context, id string, req dto.OrdonnanceRequest, actor *models.JWTClaims) (*models.Dossier, error)
	ValidateDefinitively(ctx context.Context, id string, actor *models.JWTClaims) (*models.Dossier, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// DossierHandler exposes REST endpoints for the dossier workflow.
type DossierHandler struct {
	service dossierService
}

// NewDossierHandler constructs the handler.
func NewDossierHandler(service dossierService) *DossierHandler {
	return &DossierHandler{service: service}
}

// Create godoc
// @Summary Submit a new dossier
// @Tags Dossiers
// @Accept json
// @Produce json
// @Param payload body dto.CreateDossierRequest true "Dossier payload"
// @Success 201 {object} response.Envelope
// @Router /dossiers [post]
func (h *DossierHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	var req dto.CreateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dossier payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dossier, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dossier, nil)
}

// List godoc
// @Summary List dossiers
// @Tags Dossiers
// @Produce json
// @Param statut query string false "Comma separated statuses"
// @Param search query string false "Search on numero, objet or beneficiaire"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dossiers [get]
func (h *DossierHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.DossierQuery{
		Search: strings.TrimSpace(c.Query("search")),
	}
	if rawStatut := c.Query("statut"); rawStatut != "" {
		parts := strings.Split(rawStatut, ",")
		statuts := make([]models.DossierStatut, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuts = append(statuts, models.DossierStatut(part))
		}
		query.Statut = statuts
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		query.Limit = limit
	}
	dossiers, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dossiers, nil)
}

// Get godoc
// @Summary Get dossier detail
// @Tags Dossiers
// @Produce json
// @Param id path string true "Dossier ID"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id} [get]
func (h *DossierHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dossier, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dossier, nil)
}

// Update godoc
// @Summary Correct and resubmit a rejected dossier
// @Tags Dossiers
// @Accept json
// @Produce json
// @Param id path string true "Dossier ID"
// @Param payload body dto.UpdateDossierRequest true "Corrections"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id} [put]
func (h *DossierHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	var req dto.UpdateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dossier payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dossier, err := h.service.Resubmit(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dossier, nil)
}

// RejectCB godoc
// @Summary Reject a dossier during budget review
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Dossier ID"
// @Param payload body dto.RejectDossierRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/rejet-cb [post]
func (h *DossierHandler) RejectCB(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	var req dto.RejectDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dossier, err := h.service.RejectByCB(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dossier, nil)
}

// Ordonnance godoc
// @Summary Ordonnance a dossier after ordonnateur verifications
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Dossier ID"
// @Param payload body dto.OrdonnanceRequest true "Ordonnanced amount"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/ordonnancement [post]
func (h *DossierHandler) Ordonnance(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	var req dto.OrdonnanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid ordonnancement payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dossier, err := h.service.Ordonnance(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dossier, nil)
}

// ValidateDefinitive godoc
// @Summary Grant final accounting clearance
// @Tags Workflow
// @Produce json
// @Param id path string true "Dossier ID"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/validation-definitive [post]
func (h *DossierHandler) ValidateDefinitive(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dossier, err := h.service.ValidateDefinitively(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dossier, nil)
}

// Delete godoc
// @Summary Delete a pending or rejected dossier
// @Tags Dossiers
// @Param id path string true "Dossier ID"
// @Success 204
// @Router /dossiers/{id} [delete]
func (h *DossierHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "dossier service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
