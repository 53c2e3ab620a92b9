package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered    EventType = "user.registered"
	EventTicketCreated     EventType = "ticket.created"
	EventTicketStateChange EventType = "ticket.state_changed"
	EventTicketReplied     EventType = "ticket.replied"
	EventTicketDeleted     EventType = "ticket.deleted"
)

// TicketEventTypes lists the events that concern a ticket aggregate.
var TicketEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStateChange,
	EventTicketReplied,
	EventTicketDeleted,
}

// Actor identifies who caused an event.
type Actor struct {
	ID   int64       `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID int64     `json:"aggregate_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, aggregateID int64, actor Actor, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Actor:       actor,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
}

// ActorFor converts a request caller into an event actor.
func ActorFor(caller domain.Caller) Actor {
	return Actor{ID: caller.ID, Role: caller.Role}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Department domain.Department `json:"department"`
	CategoryID *int64            `json:"category_id,omitempty"`
	Title      string            `json:"title"`
}

// TicketStateChangedPayload payload.
type TicketStateChangedPayload struct {
	Event    domain.TicketEvent `json:"event"`
	OldState domain.TicketState `json:"old_state"`
	NewState domain.TicketState `json:"new_state"`
}

// TicketRepliedPayload payload.
type TicketRepliedPayload struct {
	ReplyID     int64  `json:"reply_id"`
	BodyPreview string `json:"body_preview"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	RepliesRemoved int64 `json:"replies_removed"`
}

// Preview shortens a message body for event payloads.
func Preview(body string) string {
	const limit = 80
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "…"
}
