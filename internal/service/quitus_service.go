package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	"github.com/noah-isme/gac-quitus-api/internal/repository"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
	"github.com/noah-isme/gac-quitus-api/pkg/export"
)

type quitusStore interface {
	Create(ctx context.Context, quitus *models.Quitus) error
	GetByDossierID(ctx context.Context, dossierID string) (*models.Quitus, error)
}

type validationReader interface {
	ListByDossier(ctx context.Context, dossierID string) ([]models.ValidationRecord, error)
	ListSyntheses(ctx context.Context, dossierID string) ([]models.Synthesis, error)
}

type discrepancyAnalyzer interface {
	Analyze(input ConsistencyInput) []models.Discrepancy
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// QuitusService generates the immutable clearance certificate. Generation is
// idempotent: the unique constraint on dossier_id arbitrates concurrent
// requests, and an existing quitus is returned unchanged.
type QuitusService struct {
	dossiers     dossierReader
	validations  validationReader
	catalogs     catalogProvider
	store        quitusStore
	analyzer     discrepancyAnalyzer
	audit        auditLogger
	events       eventEmitter
	pdf          pdfRenderer
	numberPrefix string
	logger       *zap.Logger
}

// NewQuitusService constructs the generator.
func NewQuitusService(dossiers dossierReader, validations validationReader, catalogs catalogProvider, store quitusStore, analyzer discrepancyAnalyzer, audit auditLogger, events eventEmitter, pdf pdfRenderer, numberPrefix string, logger *zap.Logger) *QuitusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if numberPrefix == "" {
		numberPrefix = "QUITUS"
	}
	return &QuitusService{
		dossiers:     dossiers,
		validations:  validations,
		catalogs:     catalogs,
		store:        store,
		analyzer:     analyzer,
		audit:        audit,
		events:       events,
		pdf:          pdf,
		numberPrefix: numberPrefix,
		logger:       logger,
	}
}

// Generate produces the quitus for a definitively validated dossier, or
// returns the existing one. The boolean reports whether the quitus already
// existed.
func (s *QuitusService) Generate(ctx context.Context, dossierID string, actor *models.JWTClaims) (*models.Quitus, bool, error) {
	if err := requireRole(actor, models.RoleAgentComptable); err != nil {
		return nil, false, err
	}

	dossier, err := s.dossiers.GetByID(ctx, dossierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.ErrNotFound
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load dossier")
	}

	if existing, err := s.store.GetByDossierID(ctx, dossierID); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to look up quitus")
	}

	if dossier.Statut != models.StatutValideDefinitivement {
		return nil, false, appErrors.PreconditionWithCode(appErrors.CodeTransitionInvalide,
			fmt.Sprintf("dossier is %s, quitus requires %s", dossier.Statut, models.StatutValideDefinitivement))
	}

	snapshot, err := s.assembleSnapshot(ctx, dossier)
	if err != nil {
		return nil, false, err
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialize quitus snapshot")
	}

	quitus := &models.Quitus{
		DossierID:   dossierID,
		Numero:      fmt.Sprintf("%s-%s", s.numberPrefix, dossier.Numero),
		Snapshot:    raw,
		Conforme:    snapshot.Conforme,
		GeneratedBy: actor.UserID,
		GeneratedAt: snapshot.GeneratedAt,
	}
	if err := s.store.Create(ctx, quitus); err != nil {
		if errors.Is(err, repository.ErrQuitusExists) {
			existing, getErr := s.store.GetByDossierID(ctx, dossierID)
			if getErr != nil {
				return nil, false, appErrors.Wrap(getErr, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load concurrent quitus")
			}
			return existing, true, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist quitus")
	}

	s.emitAudit(ctx, actor.UserID, dossierID, quitus)
	if s.events != nil {
		s.events.Emit(models.DomainEvent{
			Kind:       models.EventQuitusGenerated,
			DossierID:  dossierID,
			Numero:     dossier.Numero,
			Recipients: []models.UserRole{models.RoleSecretaire, models.RoleAgentComptable},
			OccurredAt: quitus.GeneratedAt,
		})
	}
	return quitus, false, nil
}

// GetByDossier returns the stored quitus.
func (s *QuitusService) GetByDossier(ctx context.Context, dossierID string) (*models.Quitus, error) {
	quitus, err := s.store.GetByDossierID(ctx, dossierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load quitus")
	}
	return quitus, nil
}

// RenderPDF renders the stored snapshot; the certificate never changes once
// generated, so rendering is a pure read.
func (s *QuitusService) RenderPDF(ctx context.Context, dossierID string) ([]byte, error) {
	quitus, err := s.GetByDossier(ctx, dossierID)
	if err != nil {
		return nil, err
	}
	var snapshot models.QuitusSnapshot
	if err := json.Unmarshal(quitus.Snapshot, &snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt quitus snapshot")
	}
	doc := buildQuitusDocument(quitus, snapshot)
	data, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render quitus pdf")
	}
	return data, nil
}

func (s *QuitusService) assembleSnapshot(ctx context.Context, dossier *models.Dossier) (*models.QuitusSnapshot, error) {
	syntheses, err := s.validations.ListSyntheses(ctx, dossier.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load syntheses")
	}
	records, err := s.validations.ListByDossier(ctx, dossier.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load validation records")
	}

	snapshot := &models.QuitusSnapshot{
		Dossier:     *dossier,
		GeneratedAt: time.Now().UTC(),
	}
	for i := range syntheses {
		synthesis := syntheses[i]
		if synthesis.Domain == models.DomainVerificationsOrdonnateur {
			snapshot.OrdSynthesis = &synthesis
		} else {
			snapshot.CBSyntheses = append(snapshot.CBSyntheses, synthesis)
		}
	}

	breakdown, err := s.buildBreakdown(ctx, records)
	if err != nil {
		return nil, err
	}
	snapshot.Breakdown = breakdown

	snapshot.Discrepancies = s.analyzer.Analyze(ConsistencyInput{
		Dossier:              *dossier,
		CBSyntheses:          snapshot.CBSyntheses,
		OrdonnateurSynthesis: snapshot.OrdSynthesis,
	})
	snapshot.Conforme = len(snapshot.Discrepancies) == 0
	return snapshot, nil
}

func (s *QuitusService) buildBreakdown(ctx context.Context, records []models.ValidationRecord) ([]models.CategoryBreakdown, error) {
	type key struct {
		domain   models.ChecklistDomain
		category string
	}
	itemCategory := make(map[string]models.ChecklistCategory)
	for _, domain := range []models.ChecklistDomain{models.DomainTypeOperation, models.DomainControlesFond, models.DomainVerificationsOrdonnateur} {
		catalog, err := s.catalogs.Catalog(ctx, domain)
		if err != nil {
			return nil, err
		}
		categories := make(map[string]models.ChecklistCategory, len(catalog.Categories))
		for _, category := range catalog.Categories {
			categories[category.ID] = category
		}
		for _, item := range catalog.Items {
			if category, ok := categories[item.CategoryID]; ok {
				itemCategory[item.ID] = category
			}
		}
	}

	grouped := make(map[key]*models.CategoryBreakdown)
	order := make([]key, 0, 8)
	for _, record := range records {
		category, ok := itemCategory[record.ItemID]
		if !ok {
			continue
		}
		k := key{domain: record.Domain, category: category.ID}
		entry, ok := grouped[k]
		if !ok {
			entry = &models.CategoryBreakdown{
				Domain:        record.Domain,
				CategoryID:    category.ID,
				CategoryLabel: category.Label,
			}
			grouped[k] = entry
			order = append(order, k)
		}
		entry.Total++
		if record.Valid {
			entry.ValidCount++
		} else {
			entry.RejectedCount++
		}
	}

	breakdown := make([]models.CategoryBreakdown, 0, len(order))
	for _, k := range order {
		breakdown = append(breakdown, *grouped[k])
	}
	return breakdown, nil
}

func (s *QuitusService) emitAudit(ctx context.Context, userID, dossierID string, quitus *models.Quitus) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionQuitusGenerate,
		Resource:   "quitus",
		ResourceID: &quitus.ID,
		NewValues:  mustJSON(map[string]string{"dossierId": dossierID, "numero": quitus.Numero}),
		IPAddress:  "system",
		UserAgent:  "quitus-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func buildQuitusDocument(quitus *models.Quitus, snapshot models.QuitusSnapshot) export.Document {
	dossier := snapshot.Dossier
	doc := export.Document{
		Title:    "Quitus " + quitus.Numero,
		Subtitle: fmt.Sprintf("Généré le %s", quitus.GeneratedAt.Format("02/01/2006 15:04")),
		Fields: []export.Field{
			{Label: "Dossier", Value: dossier.Numero},
			{Label: "Objet", Value: dossier.Objet},
			{Label: "Bénéficiaire", Value: dossier.Beneficiaire},
			{Label: "Montant demandé", Value: dossier.MontantDemande.String()},
		},
	}
	if dossier.MontantOrdonnance.Valid {
		doc.Fields = append(doc.Fields, export.Field{Label: "Montant ordonnancé", Value: dossier.MontantOrdonnance.Decimal.String()})
	}

	synthesisTable := export.Table{
		Caption: "Synthèses",
		Headers: []string{"Domaine", "Total", "Valides", "Rejetés", "Statut"},
	}
	appendSynthesis := func(synthesis models.Synthesis) {
		synthesisTable.Rows = append(synthesisTable.Rows, map[string]string{
			"Domaine": string(synthesis.Domain),
			"Total":   strconv.Itoa(synthesis.Total),
			"Valides": strconv.Itoa(synthesis.ValidCount),
			"Rejetés": strconv.Itoa(synthesis.RejectedCount),
			"Statut":  string(synthesis.Status),
		})
	}
	for _, synthesis := range snapshot.CBSyntheses {
		appendSynthesis(synthesis)
	}
	if snapshot.OrdSynthesis != nil {
		appendSynthesis(*snapshot.OrdSynthesis)
	}
	doc.Tables = append(doc.Tables, synthesisTable)

	if len(snapshot.Discrepancies) > 0 {
		discrepancyTable := export.Table{
			Caption: "Anomalies relevées",
			Headers: []string{"Type", "Sévérité", "Description"},
		}
		for _, discrepancy := range snapshot.Discrepancies {
			discrepancyTable.Rows = append(discrepancyTable.Rows, map[string]string{
				"Type":        string(discrepancy.Type),
				"Sévérité":    string(discrepancy.Severity),
				"Description": discrepancy.Message,
			})
		}
		doc.Tables = append(doc.Tables, discrepancyTable)
	}

	if snapshot.Conforme {
		doc.Conclusion = "Conclusion: CONFORME"
	} else {
		doc.Conclusion = fmt.Sprintf("Conclusion: NON CONFORME (%d anomalie(s))", len(snapshot.Discrepancies))
	}
	return doc
}
