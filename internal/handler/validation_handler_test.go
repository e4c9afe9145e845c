package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/dto"
	"github.com/noah-isme/gac-quitus-api/internal/middleware"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
)

type validationServiceMock struct {
	synthesis *models.Synthesis
	err       error
	lastReq   dto.OperationTypeValidationRequest
	lastItems []dto.ItemDecision
}

func (m *validationServiceMock) RecordOperationTypeValidation(ctx context.Context, dossierID string, req dto.OperationTypeValidationRequest, actor *models.JWTClaims) (*models.Synthesis, error) {
	m.lastReq = req
	return m.synthesis, m.err
}

func (m *validationServiceMock) RecordControlsValidation(ctx context.Context, dossierID string, items []dto.ItemDecision, actor *models.JWTClaims) (*models.Synthesis, error) {
	m.lastItems = items
	return m.synthesis, m.err
}

func (m *validationServiceMock) RecordOrdonnateurVerifications(ctx context.Context, dossierID string, items []dto.ItemDecision, actor *models.JWTClaims) (*models.Synthesis, error) {
	m.lastItems = items
	return m.synthesis, m.err
}

func validatedSynthesisFixture(domain models.ChecklistDomain) *models.Synthesis {
	return &models.Synthesis{
		DossierID:  "dossier-1",
		Domain:     domain,
		Total:      2,
		ValidCount: 2,
		Status:     models.SynthesisValidated,
		ComputedAt: time.Now().UTC(),
	}
}

func operationTypePayload(t *testing.T) []byte {
	t.Helper()
	valid := true
	payload, err := json.Marshal(dto.OperationTypeValidationRequest{
		TypeOperation:   "DEPENSE",
		NatureOperation: "FONCTIONNEMENT",
		Commentaire:     "classification vérifiée",
		Items: []dto.ItemDecision{
			{ItemID: "item-1", Valid: &valid},
			{ItemID: "item-2", Valid: &valid},
		},
	})
	require.NoError(t, err)
	return payload
}

func TestValidationHandlerOperationType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &validationServiceMock{synthesis: validatedSynthesisFixture(models.DomainTypeOperation)}
	handler := NewValidationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/validation-type-operation", operationTypePayload(t))
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "cb-1", Role: models.RoleCB})

	handler.OperationType(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "DEPENSE", mockSvc.lastReq.TypeOperation)
	require.Equal(t, "classification vérifiée", mockSvc.lastReq.Commentaire)
}

func TestValidationHandlerOperationTypeInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewValidationHandler(&validationServiceMock{})

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/validation-type-operation",
		[]byte(`{"items": []}`))
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "cb-1", Role: models.RoleCB})

	handler.OperationType(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationHandlerControlsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewValidationHandler(&validationServiceMock{})

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/validation-controles-fond",
		[]byte(`{"items": [{"itemId": "item-1", "valid": true}]}`))
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}

	handler.Controls(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationHandlerControlsMapsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &validationServiceMock{
		err: appErrors.PreconditionWithCode(appErrors.CodeControlesObligatoiresManquants, "obligatory controls missing"),
	}
	handler := NewValidationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/validation-controles-fond",
		[]byte(`{"items": [{"itemId": "item-1", "valid": true}]}`))
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "cb-1", Role: models.RoleCB})

	handler.Controls(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, appErrors.CodeControlesObligatoiresManquants, envelope.Error.Code)
}

func TestValidationHandlerOrdonnateurVerifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &validationServiceMock{synthesis: validatedSynthesisFixture(models.DomainVerificationsOrdonnateur)}
	handler := NewValidationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/verifications-ordonnateur",
		[]byte(`{"items": [{"itemId": "item-1", "valid": true}]}`))
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ord-1", Role: models.RoleOrdonnateur})

	handler.OrdonnateurVerifications(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.lastItems, 1)
}
