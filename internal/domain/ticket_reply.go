package domain

import "time"

// TicketReply is a message appended to a ticket thread by its owner or an admin.
type TicketReply struct {
	ID        int64
	TicketID  int64
	UserID    int64
	Message   string
	CreatedAt time.Time

	User *UserRef
}
