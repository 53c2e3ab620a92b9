// Package access decides which tickets a caller may see and what they may
// do with them. It performs no I/O.
package access

import (
	"errors"
	"fmt"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Action is an operation a caller attempts on a ticket.
type Action string

const (
	ActionList        Action = "list"
	ActionShow        Action = "show"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionReply       Action = "reply"
	ActionDeleteReply Action = "delete_reply"
)

var (
	// ErrActionNotPermitted means the caller's role may never perform the action.
	ErrActionNotPermitted = errors.New("action not permitted for role")
	// ErrOutOfScope means the ticket lies outside the caller's scope. It is
	// reported to clients as not found.
	ErrOutOfScope = errors.New("ticket outside caller scope")
	// ErrUnknownRole is returned for callers without a usable role.
	ErrUnknownRole = errors.New("unknown caller role")
)

// Scope is the set of tickets a caller can reach and the actions allowed on them.
type Scope interface {
	Allows(action Action) bool
	Covers(ticket *domain.Ticket) bool
	// Apply narrows a listing filter to the scope.
	Apply(filter *repository.TicketFilter)
}

type userScope struct {
	userID int64
}

func (userScope) Allows(action Action) bool {
	switch action {
	case ActionList, ActionShow, ActionUpdate, ActionDelete, ActionReply, ActionDeleteReply:
		return true
	}
	return false
}

func (s userScope) Covers(ticket *domain.Ticket) bool {
	return ticket != nil && ticket.UserID == s.userID
}

func (s userScope) Apply(filter *repository.TicketFilter) {
	id := s.userID
	filter.UserID = &id
}

type adminScope struct {
	department domain.Department
}

func (adminScope) Allows(action Action) bool {
	switch action {
	case ActionList, ActionShow, ActionDelete, ActionReply:
		return true
	}
	return false
}

func (s adminScope) Covers(ticket *domain.Ticket) bool {
	return ticket != nil && ticket.Department == s.department
}

func (s adminScope) Apply(filter *repository.TicketFilter) {
	dept := s.department
	filter.Department = &dept
	filter.ExcludeStates = append(filter.ExcludeStates, domain.TicketStateAnswering)
}

// For resolves the scope of caller.
func For(caller domain.Caller) (Scope, error) {
	switch caller.Role {
	case domain.RoleUser:
		return userScope{userID: caller.ID}, nil
	case domain.RoleAdmin:
		if !caller.Department.Valid() {
			return nil, fmt.Errorf("%w: admin %d has no department", ErrUnknownRole, caller.ID)
		}
		return adminScope{department: caller.Department}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, caller.Role)
}

// Authorize checks that caller may perform action on ticket.
func Authorize(action Action, caller domain.Caller, ticket *domain.Ticket) error {
	scope, err := For(caller)
	if err != nil {
		return err
	}
	if !scope.Allows(action) {
		return fmt.Errorf("%w: %s as %s", ErrActionNotPermitted, action, caller.Role)
	}
	if !scope.Covers(ticket) {
		return ErrOutOfScope
	}
	return nil
}

// AuthorizeReplyDelete checks that caller may remove reply from ticket.
// Only the author of a reply on one of their own tickets may do so.
func AuthorizeReplyDelete(caller domain.Caller, ticket *domain.Ticket, reply *domain.TicketReply) error {
	if err := Authorize(ActionDeleteReply, caller, ticket); err != nil {
		return err
	}
	if reply == nil || reply.TicketID != ticket.ID || reply.UserID != caller.ID {
		return ErrOutOfScope
	}
	return nil
}
