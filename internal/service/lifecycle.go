package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// TransitionRecorder observes ticket state changes.
type TransitionRecorder interface {
	RecordTransition(event, from, to string)
}

// Lifecycle drives ticket state changes. Each operation locks the ticket
// row, checks scope, applies the transition and persists it in one
// transaction, so concurrent claims serialize on the row.
type Lifecycle struct {
	store      repository.Store
	dispatcher events.Dispatcher
	recorder   TransitionRecorder
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators for the lifecycle engine.
type LifecycleDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Recorder   TransitionRecorder
	Logger     *zap.Logger
}

// NewLifecycle constructs the engine.
func NewLifecycle(deps LifecycleDependencies) *Lifecycle {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     logger,
	}
}

// ReplyInput carries a reply body.
type ReplyInput struct {
	Message string `json:"message" validate:"required,min=5,max=500,nohtml"`
}

type transition struct {
	event    domain.TicketEvent
	from, to domain.TicketState
}

// Claim opens a ticket for a department admin, moving it to ANSWERING.
func (l *Lifecycle) Claim(ctx context.Context, caller domain.Caller, ticketID int64) (*domain.Ticket, error) {
	if !caller.IsAdmin() {
		return nil, mapError(access.ErrActionNotPermitted, "ticket")
	}

	var (
		ticket *domain.Ticket
		change transition
	)
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := access.Authorize(access.ActionShow, caller, ticket); err != nil {
			return err
		}
		change, err = l.apply(ctx, tx, ticket, domain.EventAdminOpened)
		return err
	})
	if err != nil {
		l.logDenied(caller, ticketID, err)
		return nil, mapError(err, "ticket")
	}

	l.afterTransition(ctx, caller, ticket.ID, change)
	return ticket, nil
}

// ReplyAsAdmin appends an admin reply and marks the ticket ANSWERED.
func (l *Lifecycle) ReplyAsAdmin(ctx context.Context, caller domain.Caller, ticketID int64, in ReplyInput) (*domain.TicketReply, error) {
	if !caller.IsAdmin() {
		return nil, mapError(access.ErrActionNotPermitted, "ticket")
	}
	return l.reply(ctx, caller, ticketID, in, domain.EventAdminReplied)
}

// ReplyAsUser appends an owner reply and returns the ticket to SEND.
func (l *Lifecycle) ReplyAsUser(ctx context.Context, caller domain.Caller, ticketID int64, in ReplyInput) (*domain.TicketReply, error) {
	if caller.Role != domain.RoleUser {
		return nil, mapError(access.ErrActionNotPermitted, "ticket")
	}
	return l.reply(ctx, caller, ticketID, in, domain.EventOwnerReplied)
}

// Reply dispatches to the reply operation matching the caller's role.
func (l *Lifecycle) Reply(ctx context.Context, caller domain.Caller, ticketID int64, in ReplyInput) (*domain.TicketReply, error) {
	if caller.IsAdmin() {
		return l.ReplyAsAdmin(ctx, caller, ticketID, in)
	}
	return l.ReplyAsUser(ctx, caller, ticketID, in)
}

func (l *Lifecycle) reply(ctx context.Context, caller domain.Caller, ticketID int64, in ReplyInput, event domain.TicketEvent) (*domain.TicketReply, error) {
	in.Message = validation.Text(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var (
		reply  *domain.TicketReply
		change transition
	)
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := access.Authorize(access.ActionReply, caller, ticket); err != nil {
			return err
		}

		reply = &domain.TicketReply{TicketID: ticket.ID, UserID: caller.ID, Message: in.Message}
		if err := tx.Replies().Create(ctx, reply); err != nil {
			return err
		}
		author, err := tx.Users().GetByID(ctx, caller.ID)
		if err != nil {
			return err
		}
		reply.User = &domain.UserRef{ID: author.ID, Name: author.Name}

		change, err = l.apply(ctx, tx, ticket, event)
		return err
	})
	if err != nil {
		l.logDenied(caller, ticketID, err)
		return nil, mapError(err, "ticket")
	}

	l.logger.Info("ticket replied",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("reply_id", reply.ID),
		zap.String("role", string(caller.Role)))
	l.publish(ctx, events.New(events.EventTicketReplied, ticketID, events.ActorFor(caller), events.TicketRepliedPayload{
		ReplyID:     reply.ID,
		BodyPreview: events.Preview(reply.Message),
	}))
	l.afterTransition(ctx, caller, ticketID, change)
	return reply, nil
}

// apply moves ticket along event and persists the new state.
func (l *Lifecycle) apply(ctx context.Context, tx repository.Store, ticket *domain.Ticket, event domain.TicketEvent) (transition, error) {
	next, err := ticket.State.Next(event)
	if err != nil {
		return transition{}, err
	}
	change := transition{event: event, from: ticket.State, to: next}
	if err := tx.Tickets().UpdateState(ctx, ticket.ID, next); err != nil {
		return transition{}, err
	}
	ticket.State = next
	return change, nil
}

func (l *Lifecycle) afterTransition(ctx context.Context, caller domain.Caller, ticketID int64, change transition) {
	if l.recorder != nil {
		l.recorder.RecordTransition(string(change.event), string(change.from), string(change.to))
	}
	if change.from == change.to {
		return
	}
	l.logger.Info("ticket state changed",
		zap.Int64("ticket_id", ticketID),
		zap.String("event", string(change.event)),
		zap.String("from", string(change.from)),
		zap.String("to", string(change.to)))
	l.publish(ctx, events.New(events.EventTicketStateChange, ticketID, events.ActorFor(caller), events.TicketStateChangedPayload{
		Event:    change.event,
		OldState: change.from,
		NewState: change.to,
	}))
}

func (l *Lifecycle) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, l.dispatcher, l.logger, event)
}

func (l *Lifecycle) logDenied(caller domain.Caller, ticketID int64, err error) {
	if apperrors.IsCode(mapError(err, "ticket"), apperrors.CodeInternal) {
		l.logger.Error("ticket transition failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return
	}
	l.logger.Debug("ticket transition rejected",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("caller_id", caller.ID),
		zap.Error(err))
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
