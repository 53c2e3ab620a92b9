package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing predicates. Nil fields are not applied.
type TicketFilter struct {
	UserID        *int64
	Department    *domain.Department
	CategoryID    *int64
	State         *domain.TicketState
	ExcludeStates []domain.TicketState
	Page          int
	PerPage       int
}

// Matches evaluates the filter against a single ticket.
func (f TicketFilter) Matches(t *domain.Ticket) bool {
	if f.UserID != nil && t.UserID != *f.UserID {
		return false
	}
	if f.Department != nil && t.Department != *f.Department {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.State != nil && t.State != *f.State {
		return false
	}
	for _, excluded := range f.ExcludeStates {
		if t.State == excluded {
			return false
		}
	}
	return true
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// GetByID loads a ticket with its category and owner projections.
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// GetForUpdate loads a ticket and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) (Page[domain.Ticket], error)
	UpdateContent(ctx context.Context, id int64, title, message string) error
	UpdateState(ctx context.Context, id int64, state domain.TicketState) error
	Delete(ctx context.Context, id int64) error
}

type ticketRepository struct {
	db DBTX
}

const ticketSelect = `
        SELECT t.id, t.user_id, t.category_id, t.department, t.title, t.message, t.state,
               t.created_at, t.updated_at, c.id, c.title, u.name
        FROM tickets t
        LEFT JOIN categories c ON c.id = t.category_id
        JOIN users u ON u.id = t.user_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, category_id, department, title, message, state)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.UserID,
		ticket.CategoryID,
		ticket.Department,
		ticket.Title,
		ticket.Message,
		ticket.State,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapWriteError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	rows, err := r.db.Query(ctx, ticketSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, user_id, category_id, department, title, message, state, created_at, updated_at
        FROM tickets WHERE id=$1 FOR UPDATE`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.CategoryID,
		&ticket.Department,
		&ticket.Title,
		&ticket.Message,
		&ticket.State,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapReadError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) (Page[domain.Ticket], error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)
	result := Page[domain.Ticket]{Page: page, PerPage: perPage}
	where, args := ticketWhere(filter)

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id DESC LIMIT %d OFFSET %d`,
		ticketSelect, where, perPage, (page-1)*perPage)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	items, err := scanTickets(rows)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// ticketWhere renders the filter predicates against the tickets alias t
// with positional arguments.
func ticketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("t.user_id=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("t.department=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("t.category_id=$%d", len(args)))
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		clauses = append(clauses, fmt.Sprintf("t.state=$%d", len(args)))
	}
	if len(filter.ExcludeStates) > 0 {
		placeholders := make([]string, len(filter.ExcludeStates))
		for i, state := range filter.ExcludeStates {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.state NOT IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *ticketRepository) UpdateContent(ctx context.Context, id int64, title, message string) error {
	const query = `UPDATE tickets SET title=$1, message=$2, updated_at=NOW() WHERE id=$3`
	return r.exec(ctx, query, title, message, id)
}

func (r *ticketRepository) UpdateState(ctx context.Context, id int64, state domain.TicketState) error {
	const query = `UPDATE tickets SET state=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, state, id)
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var (
			ticket        domain.Ticket
			categoryID    *int64
			categoryTitle *string
			ownerName     string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.CategoryID,
			&ticket.Department,
			&ticket.Title,
			&ticket.Message,
			&ticket.State,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&categoryID,
			&categoryTitle,
			&ownerName,
		); err != nil {
			return nil, err
		}
		if categoryID != nil && categoryTitle != nil {
			ticket.Category = &domain.Category{ID: *categoryID, Title: *categoryTitle}
		}
		ticket.User = &domain.UserRef{ID: ticket.UserID, Name: ownerName}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
