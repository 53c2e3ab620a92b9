package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ReplyRepository manages ticket thread replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *domain.TicketReply) error
	GetByID(ctx context.Context, id int64) (*domain.TicketReply, error)
	// ListByTicket returns replies in creation order with author projections.
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketReply, error)
	CountByTicket(ctx context.Context, ticketID int64) (int, error)
	DeleteByTicket(ctx context.Context, ticketID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type replyRepository struct {
	db DBTX
}

func (r *replyRepository) Create(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        INSERT INTO ticket_replies (ticket_id, user_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		reply.TicketID,
		reply.UserID,
		reply.Message,
	).Scan(&reply.ID, &reply.CreatedAt)
	return mapWriteError(err)
}

func (r *replyRepository) GetByID(ctx context.Context, id int64) (*domain.TicketReply, error) {
	const query = `
        SELECT id, ticket_id, user_id, message, created_at
        FROM ticket_replies WHERE id=$1`
	var reply domain.TicketReply
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&reply.ID,
		&reply.TicketID,
		&reply.UserID,
		&reply.Message,
		&reply.CreatedAt,
	); err != nil {
		return nil, mapReadError(err)
	}
	return &reply, nil
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketReply, error) {
	const query = `
        SELECT r.id, r.ticket_id, r.user_id, r.message, r.created_at, u.name
        FROM ticket_replies r
        JOIN users u ON u.id = r.user_id
        WHERE r.ticket_id=$1 ORDER BY r.created_at ASC, r.id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketReply{}
	for rows.Next() {
		var (
			reply  domain.TicketReply
			author string
		)
		if err := rows.Scan(
			&reply.ID,
			&reply.TicketID,
			&reply.UserID,
			&reply.Message,
			&reply.CreatedAt,
			&author,
		); err != nil {
			return nil, err
		}
		reply.User = &domain.UserRef{ID: reply.UserID, Name: author}
		result = append(result, reply)
	}
	return result, rows.Err()
}

func (r *replyRepository) CountByTicket(ctx context.Context, ticketID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_replies WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, err
}

func (r *replyRepository) DeleteByTicket(ctx context.Context, ticketID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_replies WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *replyRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_replies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
