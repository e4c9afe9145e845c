package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/gac-quitus-api/internal/models"
	"github.com/noah-isme/gac-quitus-api/pkg/jobs"
)

// NotificationSender delivers one event to whatever transport sits behind it
// (push, e-mail, in-app). The transport is an external collaborator; the core
// ships a log-only sender.
type NotificationSender interface {
	Send(ctx context.Context, event models.DomainEvent) error
}

// NotificationSenderFunc allows using plain functions.
type NotificationSenderFunc func(ctx context.Context, event models.DomainEvent) error

// Send implements NotificationSender.
func (f NotificationSenderFunc) Send(ctx context.Context, event models.DomainEvent) error {
	return f(ctx, event)
}

// NotificationService decouples workflow transitions from notification
// delivery: the workflow emits events, a worker queue hands them to the
// sender, and every failure ends up in the log rather than in the caller's
// error path.
type NotificationService struct {
	queue  *jobs.Queue
	sender NotificationSender
	logger *zap.Logger
	seq    func() string
}

// NotificationConfig tunes the dispatcher queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(sender NotificationSender, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}
	s := &NotificationService{sender: sender, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: 0,
		Logger:     logger,
	})
	return s
}

// Start begins dispatching.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Emit queues an event for delivery. Never returns an error: a full queue is
// logged and the event dropped, because notifications must not affect the
// transition that produced them.
func (s *NotificationService) Emit(event models.DomainEvent) {
	job := jobs.Job{
		ID:      fmt.Sprintf("%s:%s", event.Kind, event.DossierID),
		Type:    string(event.Kind),
		Payload: event,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped", zap.String("event", string(event.Kind)), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.DomainEvent)
	if !ok {
		s.logger.Warn("unexpected notification payload", zap.String("job", job.ID))
		return nil
	}
	if err := s.sender.Send(ctx, event); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("event", string(event.Kind)),
			zap.String("dossier_id", event.DossierID),
			zap.Error(err),
		)
	}
	// best-effort: failures are logged, never retried synchronously
	return nil
}

// NewLogSender returns a sender that only logs deliveries.
func NewLogSender(logger *zap.Logger) NotificationSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NotificationSenderFunc(func(_ context.Context, event models.DomainEvent) error {
		recipients := make([]string, 0, len(event.Recipients))
		for _, role := range event.Recipients {
			recipients = append(recipients, string(role))
		}
		logger.Info("notification",
			zap.String("event", string(event.Kind)),
			zap.String("dossier_id", event.DossierID),
			zap.String("numero", event.Numero),
			zap.Strings("recipients", recipients),
		)
		return nil
	})
}
