package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/gac-quitus-api/internal/dto"
	"github.com/noah-isme/gac-quitus-api/internal/models"
	"github.com/noah-isme/gac-quitus-api/internal/repository"
	appErrors "github.com/noah-isme/gac-quitus-api/pkg/errors"
)

type dossierStore interface {
	Create(ctx context.Context, dossier *models.Dossier) error
	GetByID(ctx context.Context, id string) (*models.Dossier, error)
	List(ctx context.Context, filter models.DossierFilter) ([]models.Dossier, error)
	PromoteToValidCB(ctx context.Context, id string, at time.Time) error
	RejectByCB(ctx context.Context, id, motif, details string, at time.Time) error
	Resubmit(ctx context.Context, params repository.ResubmitParams) error
	Ordonnance(ctx context.Context, id string, montant decimal.Decimal, commentaire string, at time.Time) error
	ValidateDefinitively(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type synthesisReader interface {
	GetSynthesis(ctx context.Context, dossierID string, domain models.ChecklistDomain) (*models.Synthesis, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type eventEmitter interface {
	Emit(event models.DomainEvent)
}

type transitionObserver interface {
	RecordWorkflowTransition(from, to models.DossierStatut)
}

// DossierService is the workflow state machine: the sole writer of dossier
// status. Every transition is a conditional update against the expected
// current state; notification delivery never affects transition outcome.
type DossierService struct {
	repo      dossierStore
	syntheses synthesisReader
	audit     auditLogger
	events    eventEmitter
	metrics   transitionObserver
	logger    *zap.Logger
}

// NewDossierService constructs the workflow service.
func NewDossierService(repo dossierStore, syntheses synthesisReader, audit auditLogger, events eventEmitter, metrics transitionObserver, logger *zap.Logger) *DossierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DossierService{
		repo:      repo,
		syntheses: syntheses,
		audit:     audit,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create submits a new dossier in EN_ATTENTE.
func (s *DossierService) Create(ctx context.Context, req dto.CreateDossierRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	if err := requireRole(actor, models.RoleSecretaire); err != nil {
		return nil, err
	}
	if !req.MontantDemande.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "montantDemande must be positive")
	}
	dossier := &models.Dossier{
		Numero:         req.Numero,
		Objet:          req.Objet,
		Beneficiaire:   req.Beneficiaire,
		MontantDemande: req.MontantDemande,
		Statut:         models.StatutEnAttente,
		CreatedBy:      actor.UserID,
	}
	if err := s.repo.Create(ctx, dossier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create dossier")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionDossierCreate, dossier.ID, dossier)
	s.emit(models.DomainEvent{
		Kind:       models.EventDossierSubmitted,
		DossierID:  dossier.ID,
		Numero:     dossier.Numero,
		Recipients: []models.UserRole{models.RoleCB},
	})
	return dossier, nil
}

// Get returns a dossier enforcing ownership scope for secretaries.
func (s *DossierService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Dossier, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleSecretaire && dossier.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return dossier, nil
}

// List returns accessible dossiers respecting actor role.
func (s *DossierService) List(ctx context.Context, query dto.DossierQuery, actor *models.JWTClaims) ([]models.Dossier, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.DossierFilter{
		Statut: query.Statut,
		Search: query.Search,
	}
	if actor.Role == models.RoleSecretaire {
		filter.CreatedBy = actor.UserID
	}
	if query.Limit > 0 {
		filter.Limit = query.Limit
	}
	if query.Page > 1 {
		filter.Offset = (query.Page - 1) * filter.Limit
	}
	dossiers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list dossiers")
	}
	return dossiers, nil
}

// Resubmit lets the owning secretary edit a rejected dossier and send it back
// to EN_ATTENTE, clearing the rejection fields.
func (s *DossierService) Resubmit(ctx context.Context, id string, req dto.UpdateDossierRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	if err := requireRole(actor, models.RoleSecretaire); err != nil {
		return nil, err
	}
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleSecretaire && dossier.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if req.MontantDemande != nil && !req.MontantDemande.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "montantDemande must be positive")
	}
	params := repository.ResubmitParams{
		ID:             id,
		Objet:          req.Objet,
		Beneficiaire:   req.Beneficiaire,
		MontantDemande: req.MontantDemande,
		At:             time.Now().UTC(),
	}
	if err := s.repo.Resubmit(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.classifyFailedTransition(ctx, id, models.StatutRejeteCB, models.StatutEnAttente, false)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resubmit dossier")
	}
	s.observe(models.StatutRejeteCB, models.StatutEnAttente)
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionDossierUpdate, id, updated)
	s.emit(models.DomainEvent{
		Kind:       models.EventDossierSubmitted,
		DossierID:  id,
		Numero:     updated.Numero,
		Recipients: []models.UserRole{models.RoleCB},
	})
	return updated, nil
}

// PromoteToValidCB moves EN_ATTENTE -> VALIDE_CB once both CB syntheses are
// VALIDATED. Called by the validation recorder after a CB write; retrying an
// already promoted dossier is a no-op returning the current row.
func (s *DossierService) PromoteToValidCB(ctx context.Context, id string) (*models.Dossier, error) {
	for _, domain := range []models.ChecklistDomain{models.DomainTypeOperation, models.DomainControlesFond} {
		synthesis, err := s.syntheses.GetSynthesis(ctx, id, domain)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.PreconditionWithCode(appErrors.CodeControlesObligatoiresManquants,
					fmt.Sprintf("no synthesis recorded for %s", domain))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load synthesis")
		}
		if synthesis.Status != models.SynthesisValidated {
			return nil, appErrors.PreconditionWithCode(appErrors.CodeTransitionInvalide,
				fmt.Sprintf("synthesis %s is %s, expected VALIDATED", domain, synthesis.Status))
		}
	}
	if err := s.repo.PromoteToValidCB(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.classifyFailedTransition(ctx, id, models.StatutEnAttente, models.StatutValideCB, true)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to promote dossier")
	}
	s.observe(models.StatutEnAttente, models.StatutValideCB)
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(models.DomainEvent{
		Kind:       models.EventDossierValidatedCB,
		DossierID:  id,
		Numero:     dossier.Numero,
		Recipients: []models.UserRole{models.RoleSecretaire, models.RoleOrdonnateur},
	})
	return dossier, nil
}

// RejectByCB moves EN_ATTENTE -> REJETE_CB with a reason.
func (s *DossierService) RejectByCB(ctx context.Context, id string, req dto.RejectDossierRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	if err := requireRole(actor, models.RoleCB); err != nil {
		return nil, err
	}
	if err := s.repo.RejectByCB(ctx, id, req.Motif, req.Details, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.classifyFailedTransition(ctx, id, models.StatutEnAttente, models.StatutRejeteCB, true)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to reject dossier")
	}
	s.observe(models.StatutEnAttente, models.StatutRejeteCB)
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionDossierRejectCB, id, map[string]interface{}{
		"motif":   req.Motif,
		"details": req.Details,
	})
	s.emit(models.DomainEvent{
		Kind:       models.EventDossierRejectedCB,
		DossierID:  id,
		Numero:     dossier.Numero,
		Recipients: []models.UserRole{models.RoleSecretaire},
		Payload:    map[string]interface{}{"motif": req.Motif},
	})
	return dossier, nil
}

// Ordonnance moves VALIDE_CB -> VALIDE_ORDONNATEUR once the ordonnateur
// synthesis is VALIDATED, recording the ordonnanced amount.
func (s *DossierService) Ordonnance(ctx context.Context, id string, req dto.OrdonnanceRequest, actor *models.JWTClaims) (*models.Dossier, error) {
	if err := requireRole(actor, models.RoleOrdonnateur); err != nil {
		return nil, err
	}
	if !req.Montant.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "montant must be positive")
	}
	synthesis, err := s.syntheses.GetSynthesis(ctx, id, models.DomainVerificationsOrdonnateur)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.PreconditionWithCode(appErrors.CodeVerificationsOrdonnateurManquantes,
				"no ordonnateur verifications recorded for this dossier")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load ordonnateur synthesis")
	}
	if synthesis.Status != models.SynthesisValidated {
		failure := appErrors.PreconditionWithCode(appErrors.CodeVerificationsOrdonnateurNonValidees,
			"ordonnateur verifications are not validated")
		failure.Details = map[string]interface{}{
			"status":        synthesis.Status,
			"total":         synthesis.Total,
			"validCount":    synthesis.ValidCount,
			"rejectedCount": synthesis.RejectedCount,
		}
		return nil, failure
	}
	if err := s.repo.Ordonnance(ctx, id, req.Montant, req.Commentaire, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.classifyFailedTransition(ctx, id, models.StatutValideCB, models.StatutValideOrdonnateur, true)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to ordonnance dossier")
	}
	s.observe(models.StatutValideCB, models.StatutValideOrdonnateur)
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionDossierOrdonnance, id, map[string]interface{}{
		"montant": req.Montant.String(),
	})
	s.emit(models.DomainEvent{
		Kind:       models.EventDossierOrdonnanced,
		DossierID:  id,
		Numero:     dossier.Numero,
		Recipients: []models.UserRole{models.RoleSecretaire, models.RoleOrdonnateur, models.RoleAgentComptable},
		Payload:    map[string]interface{}{"montant": req.Montant.String()},
	})
	return dossier, nil
}

// ValidateDefinitively moves VALIDE_ORDONNATEUR -> VALIDE_DEFINITIVEMENT.
func (s *DossierService) ValidateDefinitively(ctx context.Context, id string, actor *models.JWTClaims) (*models.Dossier, error) {
	if err := requireRole(actor, models.RoleAgentComptable); err != nil {
		return nil, err
	}
	if err := s.repo.ValidateDefinitively(ctx, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.classifyFailedTransition(ctx, id, models.StatutValideOrdonnateur, models.StatutValideDefinitivement, true)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to validate dossier definitively")
	}
	s.observe(models.StatutValideOrdonnateur, models.StatutValideDefinitivement)
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionDossierValidateDef, id, nil)
	s.emit(models.DomainEvent{
		Kind:       models.EventDossierValidatedDef,
		DossierID:  id,
		Numero:     dossier.Numero,
		Recipients: []models.UserRole{models.RoleSecretaire, models.RoleAgentComptable},
	})
	return dossier, nil
}

// Delete withdraws a dossier still owned by its secretary (EN_ATTENTE or
// REJETE_CB only).
func (s *DossierService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireRole(actor, models.RoleSecretaire); err != nil {
		return err
	}
	dossier, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role == models.RoleSecretaire && dossier.CreatedBy != actor.UserID {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "dossier can no longer be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete dossier")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionDossierDelete, id, nil)
	return nil
}

// classifyFailedTransition runs after a conditional update touched zero rows:
// the dossier is gone, already in the target state (an idempotent retry), or
// in some other state (the guard lost).
func (s *DossierService) classifyFailedTransition(ctx context.Context, id string, expected, target models.DossierStatut, idempotent bool) (*models.Dossier, error) {
	dossier, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if idempotent && dossier.Statut == target {
		return dossier, nil
	}
	if dossier.Statut == expected {
		// The row matched when we re-read it, so the conditional update lost a
		// race that has since been undone. The caller may retry.
		return nil, appErrors.Clone(appErrors.ErrConflict, "concurrent transition, please retry")
	}
	return nil, appErrors.PreconditionWithCode(appErrors.CodeTransitionInvalide,
		fmt.Sprintf("dossier is %s, expected %s", dossier.Statut, expected))
}

func (s *DossierService) load(ctx context.Context, id string) (*models.Dossier, error) {
	dossier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load dossier")
	}
	return dossier, nil
}

func (s *DossierService) emit(event models.DomainEvent) {
	if s.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	s.events.Emit(event)
}

func (s *DossierService) observe(from, to models.DossierStatut) {
	if s.metrics != nil {
		s.metrics.RecordWorkflowTransition(from, to)
	}
}

func (s *DossierService) emitAudit(ctx context.Context, userID, action, dossierID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "dossier",
		ResourceID: &dossierID,
		IPAddress:  "system",
		UserAgent:  "dossier-service",
	}
	if payload != nil {
		log.NewValues = mustJSON(payload)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// requireRole admits the named role and ADMIN; nil claims are unauthorized.
func requireRole(actor *models.JWTClaims, role models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == role || actor.Role == models.RoleAdmin {
		return nil
	}
	return appErrors.ErrForbidden
}

func mustJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
