package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for an unknown state or event.
var ErrInvalidTransition = errors.New("invalid ticket transition")

// TicketEvent is an action that drives the ticket state machine.
type TicketEvent string

const (
	// EventAdminOpened fires when a department admin opens a ticket.
	EventAdminOpened TicketEvent = "ADMIN_OPENED"
	// EventAdminReplied fires when a department admin posts a reply.
	EventAdminReplied TicketEvent = "ADMIN_REPLIED"
	// EventOwnerReplied fires when the ticket owner posts a reply.
	EventOwnerReplied TicketEvent = "OWNER_REPLIED"
)

// No state is terminal: every event is accepted from every state.
var ticketTransitions = map[TicketState]map[TicketEvent]TicketState{
	TicketStateSend: {
		EventAdminOpened:  TicketStateAnswering,
		EventAdminReplied: TicketStateAnswered,
		EventOwnerReplied: TicketStateSend,
	},
	TicketStateAnswering: {
		EventAdminOpened:  TicketStateAnswering,
		EventAdminReplied: TicketStateAnswered,
		EventOwnerReplied: TicketStateSend,
	},
	TicketStateAnswered: {
		EventAdminOpened:  TicketStateAnswering,
		EventAdminReplied: TicketStateAnswered,
		EventOwnerReplied: TicketStateSend,
	},
}

// Next returns the state reached from s when ev occurs.
func (s TicketState) Next(ev TicketEvent) (TicketState, error) {
	next, ok := ticketTransitions[s][ev]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, s)
	}
	return next, nil
}

// ListableByAdmin reports whether a ticket in state s shows up in admin listings.
// Claimed tickets are being handled elsewhere and stay fetchable by id only.
func (s TicketState) ListableByAdmin() bool {
	return s != TicketStateAnswering
}
