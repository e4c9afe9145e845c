package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-quitus-api/internal/dto"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/response"
)

type validationService interface {
	RecordOperationTypeValidation(ctx context.Context, dossierID string, req dto.OperationTypeValidationRequest, actor *models.JWTClaims) (*models.Synthesis, error)
	RecordControlsValidation(ctx context.Context, dossierID string, items []dto.ItemDecision, actor *models.JWTClaims) (*models.Synthesis, error)
	RecordOrdonnateurVerifications(ctx context.Context, dossierID string, items []dto.ItemDecision, actor *models.JWTClaims) (*models.Synthesis, error)
}

// ValidationHandler exposes the checklist recorder endpoints.
type ValidationHandler struct {
	service validationService
}

// NewValidationHandler constructs the handler.
func NewValidationHandler(service validationService) *ValidationHandler {
	return &ValidationHandler{service: service}
}

// OperationType godoc
// @Summary Record the CB operation-type validation
// @Tags Validations
// @Accept json
// @Produce json
// @Param id path string true "Dossier ID"
// @Param payload body dto.OperationTypeValidationRequest true "Operation type and checklist verdicts"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/validation-type-operation [post]
func (h *ValidationHandler) OperationType(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "validation service not configured"))
		return
	}
	var req dto.OperationTypeValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid validation payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	synthesis, err := h.service.RecordOperationTypeValidation(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, synthesis, nil)
}

// Controls godoc
// @Summary Record the CB substantive-controls validation
// @Tags Validations
// @Accept json
// @Produce json
// @Param id path string true "Dossier ID"
// @Param payload body dto.ControlsValidationRequest true "Checklist verdicts"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/validation-controles-fond [post]
func (h *ValidationHandler) Controls(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "validation service not configured"))
		return
	}
	var req dto.ControlsValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid validation payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	synthesis, err := h.service.RecordControlsValidation(c.Request.Context(), c.Param("id"), req.Items, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, synthesis, nil)
}

// OrdonnateurVerifications godoc
// @Summary Record the ordonnateur verifications
// @Tags Validations
// @Accept json
// @Produce json
// @Param id path string true "Dossier ID"
// @Param payload body dto.OrdonnateurVerificationsRequest true "Checklist verdicts"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/verifications-ordonnateur [post]
func (h *ValidationHandler) OrdonnateurVerifications(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "validation service not configured"))
		return
	}
	var req dto.OrdonnateurVerificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid verification payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	synthesis, err := h.service.RecordOrdonnateurVerifications(c.Request.Context(), c.Param("id"), req.Items, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, synthesis, nil)
}
