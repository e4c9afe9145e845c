package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportService composes the cross-role verification report: both syntheses,
// the per-item decisions and the consistency findings. Read-only.
type ReportService struct {
	dossiers    dossierReader
	validations validationReader
	catalogs    catalogProvider
	analyzer    discrepancyAnalyzer
	csv         csvRenderer
	logger      *zap.Logger
}

// NewReportService constructs the reporting service.
func NewReportService(dossiers dossierReader, validations validationReader, catalogs catalogProvider, analyzer discrepancyAnalyzer, csv csvRenderer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		dossiers:    dossiers,
		validations: validations,
		catalogs:    catalogs,
		analyzer:    analyzer,
		csv:         csv,
		logger:      logger,
	}
}

// GetVerificationReport assembles the report for one dossier.
func (s *ReportService) GetVerificationReport(ctx context.Context, dossierID string) (*models.VerificationReport, error) {
	dossier, err := s.dossiers.GetByID(ctx, dossierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load dossier")
	}

	syntheses, err := s.validations.ListSyntheses(ctx, dossierID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load syntheses")
	}
	records, err := s.validations.ListByDossier(ctx, dossierID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load validation records")
	}

	report := &models.VerificationReport{
		DossierID: dossier.ID,
		Numero:    dossier.Numero,
		Statut:    dossier.Statut,
	}
	for i := range syntheses {
		synthesis := syntheses[i]
		if synthesis.Domain == models.DomainVerificationsOrdonnateur {
			report.OrdonnateurSynthesis = &synthesis
		} else {
			report.CBSyntheses = append(report.CBSyntheses, synthesis)
		}
	}

	views, err := s.enrichRecords(ctx, records)
	if err != nil {
		return nil, err
	}
	report.Records = views

	report.Discrepancies = s.analyzer.Analyze(ConsistencyInput{
		Dossier:              *dossier,
		CBSyntheses:          report.CBSyntheses,
		OrdonnateurSynthesis: report.OrdonnateurSynthesis,
	})
	return report, nil
}

// ExportVerificationReportCSV renders the per-item decisions as CSV.
func (s *ReportService) ExportVerificationReportCSV(ctx context.Context, dossierID string) ([]byte, error) {
	report, err := s.GetVerificationReport(ctx, dossierID)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: []string{"domaine", "categorie", "controle", "obligatoire", "verdict", "commentaire", "valideur", "date"},
	}
	for _, record := range report.Records {
		verdict := "REJETE"
		if record.Valid {
			verdict = "VALIDE"
		}
		obligatory := "non"
		if record.Obligatory {
			obligatory = "oui"
		}
		comment := ""
		if record.Comment != nil {
			comment = *record.Comment
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"domaine":     string(record.Domain),
			"categorie":   record.CategoryLabel,
			"controle":    record.ItemName,
			"obligatoire": obligatory,
			"verdict":     verdict,
			"commentaire": comment,
			"valideur":    record.ValidatedBy,
			"date":        record.ValidatedAt.Format(time.RFC3339),
		})
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

func (s *ReportService) enrichRecords(ctx context.Context, records []models.ValidationRecord) ([]models.RecordView, error) {
	type itemInfo struct {
		name     string
		category string
		required bool
	}
	items := make(map[string]itemInfo)
	for _, domain := range []models.ChecklistDomain{models.DomainTypeOperation, models.DomainControlesFond, models.DomainVerificationsOrdonnateur} {
		catalog, err := s.catalogs.Catalog(ctx, domain)
		if err != nil {
			return nil, err
		}
		categories := make(map[string]string, len(catalog.Categories))
		for _, category := range catalog.Categories {
			categories[category.ID] = category.Label
		}
		for _, item := range catalog.Items {
			items[item.ID] = itemInfo{
				name:     item.Name,
				category: categories[item.CategoryID],
				required: item.Obligatory,
			}
		}
	}

	views := make([]models.RecordView, 0, len(records))
	for _, record := range records {
		view := models.RecordView{ValidationRecord: record}
		if info, ok := items[record.ItemID]; ok {
			view.ItemName = info.name
			view.CategoryLabel = info.category
			view.Obligatory = info.required
		}
		views = append(views, view)
	}
	return views, nil
}
