package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID int64  `json:"category_id"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

// UpdateTicketRequest payload.
type UpdateTicketRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ReplyRequest payload.
type ReplyRequest struct {
	Message string `json:"message"`
}

// TicketListQuery captures query filters for listing endpoints.
type TicketListQuery struct {
	CategoryID *int64
	Department *string
	State      *string
	Page       int
	PerPage    int
}

// CategoryRef is the nested category projection.
type CategoryRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// UserRef is the nested author projection.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TicketResponse is the listing projection of a ticket.
type TicketResponse struct {
	ID         int64              `json:"id"`
	Title      string             `json:"title"`
	Message    string             `json:"message"`
	State      domain.TicketState `json:"state"`
	Department domain.Department  `json:"department"`
	Category   *CategoryRef       `json:"category"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TicketDetailResponse adds the owner and the reply thread.
type TicketDetailResponse struct {
	TicketResponse
	User    *UserRef        `json:"user"`
	Replies []ReplyResponse `json:"replies"`
}

// ReplyResponse represents one reply in a thread.
type ReplyResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	User      *UserRef  `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// PageMeta describes the page returned by a listing.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// NewTicketResponse maps a ticket to its listing projection.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:         t.ID,
		Title:      t.Title,
		Message:    t.Message,
		State:      t.State,
		Department: t.Department,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.Category != nil {
		resp.Category = &CategoryRef{ID: t.Category.ID, Title: t.Category.Title}
	}
	return resp
}

// NewTicketDetailResponse maps a ticket with owner and replies.
func NewTicketDetailResponse(t *domain.Ticket) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketResponse: NewTicketResponse(t),
		User:           newUserRef(t.User),
		Replies:        make([]ReplyResponse, 0, len(t.Replies)),
	}
	for i := range t.Replies {
		resp.Replies = append(resp.Replies, NewReplyResponse(&t.Replies[i]))
	}
	return resp
}

// NewReplyResponse maps a reply.
func NewReplyResponse(r *domain.TicketReply) ReplyResponse {
	return ReplyResponse{
		ID:        r.ID,
		Message:   r.Message,
		User:      newUserRef(r.User),
		CreatedAt: r.CreatedAt,
	}
}

func newUserRef(u *domain.UserRef) *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name}
}
