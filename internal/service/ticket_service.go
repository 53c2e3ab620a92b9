package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

// TicketService coordinates ticket workflows for both roles.
type TicketService struct {
	store      repository.Store
	lifecycle  *Lifecycle
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Lifecycle  *Lifecycle
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		lifecycle:  deps.Lifecycle,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListInput describes listing filters. Department applies to users and
// State to admins; each is ignored for the other role.
type ListInput struct {
	CategoryID *int64
	Department *string
	State      *string
	Page       int
	PerPage    int
}

// CreateInput describes ticket creation payload.
type CreateInput struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Department string `json:"department" validate:"required,oneof=MARKETING FINANCIAL TECHNICAL"`
	Title      string `json:"title" validate:"required,min=2,max=100,nohtml"`
	Message    string `json:"message" validate:"required,min=2,max=500,nohtml"`
}

// UpdateInput describes the editable ticket fields.
type UpdateInput struct {
	Title   string `json:"title" validate:"required,min=2,max=100,nohtml"`
	Message string `json:"message" validate:"required,min=2,max=500,nohtml"`
}

// List returns the caller's tickets, newest first.
func (s *TicketService) List(ctx context.Context, caller domain.Caller, in ListInput) (repository.Page[domain.Ticket], error) {
	var empty repository.Page[domain.Ticket]

	scope, err := access.For(caller)
	if err != nil {
		return empty, mapError(err, "ticket")
	}
	if !scope.Allows(access.ActionList) {
		return empty, mapError(access.ErrActionNotPermitted, "ticket")
	}

	filter := repository.TicketFilter{Page: in.Page, PerPage: in.PerPage}
	var fieldErrs []error

	if in.CategoryID != nil {
		if _, err := s.store.Categories().GetByID(ctx, *in.CategoryID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return empty, mapError(err, "category")
			}
			fieldErrs = append(fieldErrs, apperrors.NewFieldError("category_id", invalidCategoryMessage))
		}
		filter.CategoryID = in.CategoryID
	}

	if caller.IsAdmin() {
		if in.State != nil {
			state := domain.TicketState(*in.State)
			if state != domain.TicketStateSend && state != domain.TicketStateAnswered {
				fieldErrs = append(fieldErrs, apperrors.NewFieldError("state", "The selected state is invalid."))
			}
			filter.State = &state
		}
	} else if in.Department != nil {
		dept := domain.Department(*in.Department)
		if !dept.Valid() {
			fieldErrs = append(fieldErrs, apperrors.NewFieldError("department", "The selected department is invalid."))
		}
		filter.Department = &dept
	}

	if err := validation.Merge(fieldErrs...); err != nil {
		return empty, err
	}

	scope.Apply(&filter)
	page, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return empty, mapError(err, "ticket")
	}
	return page, nil
}

// Create files a new ticket in state SEND for the calling user.
func (s *TicketService) Create(ctx context.Context, caller domain.Caller, in CreateInput) (*domain.Ticket, error) {
	if caller.Role != domain.RoleUser {
		return nil, mapError(access.ErrActionNotPermitted, "ticket")
	}

	in.Title = validation.Text(in.Title)
	in.Message = validation.Text(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.store.Categories().GetByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewFieldError("category_id", invalidCategoryMessage)
		}
		return nil, mapError(err, "category")
	}

	categoryID := in.CategoryID
	ticket := &domain.Ticket{
		UserID:     caller.ID,
		CategoryID: &categoryID,
		Department: domain.Department(in.Department),
		Title:      in.Title,
		Message:    in.Message,
		State:      domain.TicketStateSend,
	}
	if err := s.store.Tickets().Create(ctx, ticket); err != nil {
		return nil, mapError(err, "ticket")
	}

	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("user_id", caller.ID),
		zap.String("department", string(ticket.Department)))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventTicketCreated, ticket.ID, events.ActorFor(caller), events.TicketCreatedPayload{
		Department: ticket.Department,
		CategoryID: ticket.CategoryID,
		Title:      ticket.Title,
	}))

	created, err := s.store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, mapError(err, "ticket")
	}
	return created, nil
}

// Get returns a ticket with its replies without changing its state.
func (s *TicketService) Get(ctx context.Context, caller domain.Caller, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapError(err, "ticket")
	}
	if err := access.Authorize(access.ActionShow, caller, ticket); err != nil {
		s.logger.Debug("ticket read rejected", zap.Int64("ticket_id", ticketID), zap.Int64("caller_id", caller.ID), zap.Error(err))
		return nil, mapError(err, "ticket")
	}
	if err := s.attachReplies(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Show is the detail view behind the show routes. For admins it claims the
// ticket first, so the returned ticket is in state ANSWERING.
func (s *TicketService) Show(ctx context.Context, caller domain.Caller, ticketID int64) (*domain.Ticket, error) {
	if caller.IsAdmin() {
		if _, err := s.lifecycle.Claim(ctx, caller, ticketID); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, caller, ticketID)
}

// Update edits title and message of a ticket nobody has replied to yet.
func (s *TicketService) Update(ctx context.Context, caller domain.Caller, ticketID int64, in UpdateInput) (*domain.Ticket, error) {
	in.Title = validation.Text(in.Title)
	in.Message = validation.Text(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := access.Authorize(access.ActionUpdate, caller, ticket); err != nil {
			return err
		}
		replies, err := tx.Replies().CountByTicket(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if replies > 0 {
			return apperrors.NewConflict("ticket has replies and can no longer be edited")
		}
		return tx.Tickets().UpdateContent(ctx, ticket.ID, in.Title, in.Message)
	})
	if err != nil {
		return nil, mapError(err, "ticket")
	}

	s.logger.Info("ticket updated", zap.Int64("ticket_id", ticketID), zap.Int64("user_id", caller.ID))
	return s.Get(ctx, caller, ticketID)
}

// Delete removes a ticket and all of its replies in one transaction.
func (s *TicketService) Delete(ctx context.Context, caller domain.Caller, ticketID int64) error {
	var removed int64
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := access.Authorize(access.ActionDelete, caller, ticket); err != nil {
			return err
		}
		removed, err = tx.Replies().DeleteByTicket(ctx, ticket.ID)
		if err != nil {
			return err
		}
		return tx.Tickets().Delete(ctx, ticket.ID)
	})
	if err != nil {
		return mapError(err, "ticket")
	}

	s.logger.Info("ticket deleted",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("replies_removed", removed),
		zap.String("role", string(caller.Role)))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventTicketDeleted, ticketID, events.ActorFor(caller), events.TicketDeletedPayload{
		RepliesRemoved: removed,
	}))
	return nil
}

// DeleteReply removes one of the caller's own replies. The ticket state
// is left as it is.
func (s *TicketService) DeleteReply(ctx context.Context, caller domain.Caller, replyID int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		reply, err := tx.Replies().GetByID(ctx, replyID)
		if err != nil {
			return err
		}
		ticket, err := tx.Tickets().GetForUpdate(ctx, reply.TicketID)
		if err != nil {
			return err
		}
		if err := access.AuthorizeReplyDelete(caller, ticket, reply); err != nil {
			return err
		}
		return tx.Replies().Delete(ctx, reply.ID)
	})
	if err != nil {
		return mapError(err, "reply")
	}

	s.logger.Info("ticket reply deleted", zap.Int64("reply_id", replyID), zap.Int64("user_id", caller.ID))
	return nil
}

func (s *TicketService) attachReplies(ctx context.Context, ticket *domain.Ticket) error {
	replies, err := s.store.Replies().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return mapError(err, "ticket")
	}
	ticket.Replies = replies
	return nil
}
