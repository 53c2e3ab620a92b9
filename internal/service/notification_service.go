package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
)

// MailQueue accepts mail for background delivery.
type MailQueue interface {
	Enqueue(ctx context.Context, msg mail.Message, delay time.Duration) error
}

// NotificationService reacts to domain events with outgoing mail and logs.
type NotificationService struct {
	dispatcher   events.Dispatcher
	queue        MailQueue
	welcomeDelay time.Duration
	logger       *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue MailQueue, welcomeDelay time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:   dispatcher,
		queue:        queue,
		welcomeDelay: welcomeDelay,
		logger:       logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	for _, eventType := range events.TicketEventTypes {
		n.dispatcher.Subscribe(eventType, n.logTicketEvent)
	}
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok || n.queue == nil {
		return nil
	}
	return n.queue.Enqueue(ctx, mail.Welcome(payload.Name, payload.Email), n.welcomeDelay)
}

func (n *NotificationService) logTicketEvent(_ context.Context, event events.Event) error {
	n.logger.Debug("ticket event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.AggregateID),
		zap.Int64("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	return nil
}
