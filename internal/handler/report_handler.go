package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/response"
)

type reportService interface {
	GetVerificationReport(ctx context.Context, dossierID string) (*models.VerificationReport, error)
	ExportVerificationReportCSV(ctx context.Context, dossierID string) ([]byte, error)
}

// ReportHandler exposes the consolidated verification report.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Verification godoc
// @Summary Get the consolidated verification report of a dossier
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Param id path string true "Dossier ID"
// @Param format query string false "Set to csv for a CSV export"
// @Success 200 {object} response.Envelope
// @Router /dossiers/{id}/rapport-verification [get]
func (h *ReportHandler) Verification(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "report service not configured"))
		return
	}
	id := c.Param("id")

	if strings.EqualFold(c.Query("format"), "csv") {
		payload, err := h.service.ExportVerificationReportCSV(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		filename := fmt.Sprintf("rapport-verification-%s.csv", id)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/csv", payload)
		return
	}

	report, err := h.service.GetVerificationReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
