package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/gac-quitus-api/internal/dto"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	"github.com/noah-isme/gac-quitus-api/internal/repository"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
)

type validationStore interface {
	ReplaceDomainRecords(ctx context.Context, records []models.ValidationRecord, synthesis models.Synthesis, classification *repository.OperationClassification) error
	GetSynthesis(ctx context.Context, dossierID string, domain models.ChecklistDomain) (*models.Synthesis, error)
}

type catalogProvider interface {
	Catalog(ctx context.Context, domain models.ChecklistDomain) (*models.Catalog, error)
}

type dossierReader interface {
	GetByID(ctx context.Context, id string) (*models.Dossier, error)
}

type cbPromoter interface {
	PromoteToValidCB(ctx context.Context, dossierID string) (*models.Dossier, error)
}

// ValidationService is the validation recorder: it persists one decision per
// checklist item per dossier, replacing prior decisions as a set, and
// recomputes the domain synthesis in the same transaction. Workflow state
// checks stay with the dossier service.
type ValidationService struct {
	store    validationStore
	catalogs catalogProvider
	dossiers dossierReader
	promoter cbPromoter
	audit    auditLogger
	logger   *zap.Logger
}

// NewValidationService constructs the recorder.
func NewValidationService(store validationStore, catalogs catalogProvider, dossiers dossierReader, audit auditLogger, logger *zap.Logger) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		store:    store,
		catalogs: catalogs,
		dossiers: dossiers,
		audit:    audit,
		logger:   logger,
	}
}

// SetPromoter wires the workflow service in after construction; recording CB
// validations may trigger the EN_ATTENTE -> VALIDE_CB promotion.
func (s *ValidationService) SetPromoter(promoter cbPromoter) {
	s.promoter = promoter
}

// RecordOperationTypeValidation stores the CB "type d'opération" decision:
// the operation classification, its comment and the supporting-document
// checklist, committed together with the records.
func (s *ValidationService) RecordOperationTypeValidation(ctx context.Context, dossierID string, req dto.OperationTypeValidationRequest, actor *models.JWTClaims) (*models.Synthesis, error) {
	if err := requireRole(actor, models.RoleCB); err != nil {
		return nil, err
	}
	classification := &repository.OperationClassification{
		TypeOperation:   req.TypeOperation,
		NatureOperation: req.NatureOperation,
		Commentaire:     req.Commentaire,
		At:              time.Now().UTC(),
	}
	synthesis, err := s.record(ctx, dossierID, models.DomainTypeOperation, req.Items, classification, actor)
	if err != nil {
		return nil, err
	}
	s.tryPromote(ctx, dossierID)
	return synthesis, nil
}

// RecordControlsValidation stores the CB "contrôles de fond" checklist.
func (s *ValidationService) RecordControlsValidation(ctx context.Context, dossierID string, items []dto.ItemDecision, actor *models.JWTClaims) (*models.Synthesis, error) {
	if err := requireRole(actor, models.RoleCB); err != nil {
		return nil, err
	}
	synthesis, err := s.record(ctx, dossierID, models.DomainControlesFond, items, nil, actor)
	if err != nil {
		return nil, err
	}
	s.tryPromote(ctx, dossierID)
	return synthesis, nil
}

// RecordOrdonnateurVerifications stores the ordonnateur checklist.
func (s *ValidationService) RecordOrdonnateurVerifications(ctx context.Context, dossierID string, items []dto.ItemDecision, actor *models.JWTClaims) (*models.Synthesis, error) {
	if err := requireRole(actor, models.RoleOrdonnateur); err != nil {
		return nil, err
	}
	return s.record(ctx, dossierID, models.DomainVerificationsOrdonnateur, items, nil, actor)
}

func (s *ValidationService) record(ctx context.Context, dossierID string, domain models.ChecklistDomain, items []dto.ItemDecision, classification *repository.OperationClassification, actor *models.JWTClaims) (*models.Synthesis, error) {
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one checklist item is required")
	}

	if _, err := s.dossiers.GetByID(ctx, dossierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load dossier")
	}

	catalog, err := s.catalogs.Catalog(ctx, domain)
	if err != nil {
		return nil, err
	}

	records, err := buildRecords(dossierID, catalog, items, actor.UserID)
	if err != nil {
		return nil, err
	}

	synthesis := ComputeSynthesis(dossierID, catalog, records, time.Now().UTC())

	if err := s.replaceWithRetry(ctx, records, synthesis, classification); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor.UserID, models.AuditActionValidationRecord, dossierID, map[string]interface{}{
		"domain": domain,
		"status": synthesis.Status,
	})
	return &synthesis, nil
}

// replaceWithRetry retries exactly once when Postgres aborts the transaction
// for a serialization conflict; a second failure surfaces as Conflict.
func (s *ValidationService) replaceWithRetry(ctx context.Context, records []models.ValidationRecord, synthesis models.Synthesis, classification *repository.OperationClassification) error {
	err := s.store.ReplaceDomainRecords(ctx, records, synthesis, classification)
	if err == nil {
		return nil
	}
	if isSerializationFailure(err) {
		s.logger.Warn("validation write raced, retrying once",
			zap.String("dossier_id", synthesis.DossierID),
			zap.String("domain", string(synthesis.Domain)),
		)
		if err = s.store.ReplaceDomainRecords(ctx, records, synthesis, classification); err == nil {
			return nil
		}
		if isSerializationFailure(err) {
			return appErrors.Clone(appErrors.ErrConflict, "concurrent validation write, please retry")
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist validation records")
}

func (s *ValidationService) tryPromote(ctx context.Context, dossierID string) {
	if s.promoter == nil {
		return
	}
	if !s.cbSynthesesValidated(ctx, dossierID) {
		return
	}
	if _, err := s.promoter.PromoteToValidCB(ctx, dossierID); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && (appErr.Status == appErrors.ErrPreconditionFailed.Status || appErr.Status == appErrors.ErrConflict.Status) {
			// The recording itself succeeded; an unpromotable dossier
			// (already promoted, or rejected meanwhile) is not a recorder error.
			s.logger.Debug("cb promotion skipped", zap.String("dossier_id", dossierID), zap.Error(err))
			return
		}
		s.logger.Warn("cb promotion failed", zap.String("dossier_id", dossierID), zap.Error(err))
	}
}

func (s *ValidationService) cbSynthesesValidated(ctx context.Context, dossierID string) bool {
	for _, domain := range []models.ChecklistDomain{models.DomainTypeOperation, models.DomainControlesFond} {
		synthesis, err := s.store.GetSynthesis(ctx, dossierID, domain)
		if err != nil || synthesis.Status != models.SynthesisValidated {
			return false
		}
	}
	return true
}

func (s *ValidationService) emitAudit(ctx context.Context, userID, action, dossierID string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "dossier",
		ResourceID: &dossierID,
		IPAddress:  "system",
		UserAgent:  "validation-service",
	}
	if payload != nil {
		log.NewValues = mustJSON(payload)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// buildRecords validates the payload against the catalog and materializes the
// record set. Nothing is written when any check fails.
func buildRecords(dossierID string, catalog *models.Catalog, items []dto.ItemDecision, validatorID string) ([]models.ValidationRecord, error) {
	active := catalog.ActiveByID()
	now := time.Now().UTC()

	seen := make(map[string]struct{}, len(items))
	records := make([]models.ValidationRecord, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ItemID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate checklist item: %s", item.ItemID))
		}
		seen[item.ItemID] = struct{}{}
		if _, ok := active[item.ItemID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown or inactive checklist item: %s", item.ItemID))
		}
		if item.Valid == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing verdict for checklist item: %s", item.ItemID))
		}
		record := models.ValidationRecord{
			DossierID:   dossierID,
			ItemID:      item.ItemID,
			Domain:      catalog.Domain,
			Valid:       *item.Valid,
			ValidatedBy: validatorID,
			ValidatedAt: now,
		}
		if item.Comment != "" {
			comment := item.Comment
			record.Comment = &comment
		}
		records = append(records, record)
	}

	var missing []string
	for _, itemID := range catalog.ObligatoryIDs() {
		if _, ok := seen[itemID]; !ok {
			missing = append(missing, itemID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, appErrors.MissingItems(missing)
	}
	return records, nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
