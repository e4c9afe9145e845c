package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/middleware"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
)

type quitusServiceMock struct {
	quitus  *models.Quitus
	already bool
	payload []byte
	err     error
}

func (m *quitusServiceMock) Generate(ctx context.Context, dossierID string, actor *models.JWTClaims) (*models.Quitus, bool, error) {
	return m.quitus, m.already, m.err
}

func (m *quitusServiceMock) GetByDossier(ctx context.Context, dossierID string) (*models.Quitus, error) {
	return m.quitus, m.err
}

func (m *quitusServiceMock) RenderPDF(ctx context.Context, dossierID string) ([]byte, error) {
	return m.payload, m.err
}

func sampleQuitus() *models.Quitus {
	return &models.Quitus{
		ID:          "quitus-1",
		DossierID:   "dossier-1",
		Numero:      "QUITUS-D-2026-001",
		Conforme:    true,
		GeneratedAt: time.Now().UTC(),
	}
}

func agentComptableClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "ac-1", Role: models.RoleAgentComptable}
}

func TestQuitusHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewQuitusHandler(&quitusServiceMock{quitus: sampleQuitus()})

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/quitus", nil)
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, agentComptableClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestQuitusHandlerGenerateAlreadyGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewQuitusHandler(&quitusServiceMock{quitus: sampleQuitus(), already: true})

	c, w := newGinContext(http.MethodPost, "/dossiers/dossier-1/quitus", nil)
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, agentComptableClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "ALREADY_GENERATED", envelope.Meta["status"])
}

func TestQuitusHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewQuitusHandler(&quitusServiceMock{err: appErrors.ErrNotFound})

	c, w := newGinContext(http.MethodGet, "/dossiers/dossier-1/quitus", nil)
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, agentComptableClaims())

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuitusHandlerPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewQuitusHandler(&quitusServiceMock{payload: []byte("%PDF-1.4 contenu")})

	c, w := newGinContext(http.MethodGet, "/dossiers/dossier-1/quitus/pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "dossier-1"}}
	c.Set(middleware.ContextUserKey, agentComptableClaims())

	handler.PDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "quitus-dossier-1.pdf")
}
