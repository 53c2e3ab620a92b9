package domain

import "time"

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	// TicketStateSend awaits admin attention.
	TicketStateSend TicketState = "SEND"
	// TicketStateAnswering is claimed by an admin composing a response.
	TicketStateAnswering TicketState = "ANSWERING"
	// TicketStateAnswered has been replied to by an admin.
	TicketStateAnswered TicketState = "ANSWERED"
)

// Valid reports whether s is a known state.
func (s TicketState) Valid() bool {
	switch s {
	case TicketStateSend, TicketStateAnswering, TicketStateAnswered:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID         int64
	UserID     int64
	CategoryID *int64
	Department Department
	Title      string
	Message    string
	State      TicketState
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Category *Category
	User     *UserRef
	Replies  []TicketReply
}
