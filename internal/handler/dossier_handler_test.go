package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/dto"
	"github.com/noah-isme/gac-quitus-api/internal/middleware"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
)

type dossierServiceMock struct {
	dossier   *models.Dossier
	dossiers  []models.Dossier
	err       error
	lastQuery dto.DossierQuery
}

func (m *dossierServiceMock) Create(ctx context.Context, req dto.CreateDossierRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	return m.dossier, m.err
}

func (m *dossierServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Dossier, error) {
	return m.dossier, m.err
}

func (m *dossierServiceMock) List(ctx context.Context, query dto.DossierQuery, actor *models.JWTClaims) ([]models.Dossier, error) {
	m.lastQuery = query
	return m.dossiers, m.err
}

func (m *dossierServiceMock) Resubmit(ctx context.Context, id string, req dto.UpdateDossierRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	return m.dossier, m.err
}

func (m *dossierServiceMock) RejectByCB(ctx context.Context, id string, req dto.RejectDossierRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	return m.dossier, m.err
}

func (m *dossierServiceMock) Ordonnance(ctx context.Context, id string, req dto.OrdonnanceRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	return m.dossier, m.err
}

func (m *dossierServiceMock) ValidateDefinitively(ctx context.Context, id string, actor *models.JWTClaims) (*models.Dossier, error) {
	return m.dossier, m.err
}

func (m *dossierServiceMock) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	return m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func secretaireClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "sec-1", Role: models.RoleSecretaire}
}

func sampleDossier(statut models.DossierStatut) *models.Dossier {
	return &models.Dossier{
		ID:             "dossier-1",
		Numero:         "D-2026-001",
		Objet:          "Achat de fournitures",
		Beneficiaire:   "Fournisseur SARL",
		MontantDemande: decimal.RequireFromString("1500.00"),
		Statut:         statut,
	}
}

func TestDossierHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dossierServiceMock{dossier: sampleDossier(models.StatutEnAttente)}
	handler := NewDossierHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateDossierRequest{
		Numero:         "D-2026-001",
		Objet:          "Achat de fournitures",
		Beneficiaire:   "Fournisseur SARL",
		MontantDemande: decimal.RequireFromString("1500.00"),
	})
	c, w := newGinContext(http.MethodPost, "/dossiers", payload)
	c.Set(middleware.ContextUserKey, secretaireClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestDossierHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDossierHandler(&dossierServiceMock{})

	c, w := newGinContext(http.MethodPost, "/dossiers", []byte(`{"objet": "sans numero"}`))
	c.Set(middleware.ContextUserKey, secretaireClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDossierHandlerCreateMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDossierHandler(&dossierServiceMock{})

	payload, _ := json.Marshal(dto.CreateDossierRequest{
		Numero: "D-2026-001", Objet: "Achat", Beneficiaire: "Fournisseur",
	})
	c, w := newGinContext(http.MethodPost, "/dossiers", payload)

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDossierHandlerGetMapsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDossierHandler(&dossierServiceMock{err: appErrors.ErrNotFound})

	c, w := newGinContext(http.MethodGet, "/dossiers/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, secretaireClaims())

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, appErrors.ErrNotFound.Code, envelope.Error.Code)
}

func TestDossierHandlerListParsesStatutFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dossierServiceMock{dossiers: []models.Dossier{*sampleDossier(models.StatutEnAttente)}}
	handler := NewDossierHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dossiers?statut=en_attente,rejete_cb&page=2&limit=5", nil)
	c.Set(middleware.ContextUserKey, secretaireClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []models.DossierStatut{models.StatutEnAttente, models.StatutRejeteCB}, mockSvc.lastQuery.Statut)
	require.Equal(t, 2, mockSvc.lastQuery.Page)
	require.Equal(t, 5, mockSvc.lastQuery.Limit)
}

func TestDossierHandlerRejectCBRequiresMotif(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDossierHandler(&dossierServiceMock{})

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/rejet-cb", []byte(`{"details": "sans motif"}`))
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "cb-1", Role: models.RoleCB})

	handler.RejectCB(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDossierHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDossierHandler(&dossierServiceMock{})

	c, w := newGinContext(http.MethodDelete, "/dossiers/dossier-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, secretaireClaims())

	handler.Delete(c)
	// Flush gin's lazy header write: outside the engine, a body-less
	// c.Status never reaches the recorder on its own.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}
