package repository

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCategoryNotFound is returned when a ticket references a missing category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned when a row is still referenced by dependents.
	ErrReferenced = errors.New("record still referenced")
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// Store groups the repositories sharing one unit of work.
type Store interface {
	Tickets() TicketRepository
	Replies() ReplyRepository
	Categories() CategoryRepository
	Users() UserRepository
	// WithinTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithinTx on a transactional store reuses the open transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items   []T
	Total   int64
	Page    int
	PerPage int
}

// LastPage returns the number of the final page (at least 1).
func (p Page[T]) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	// keep page*perPage representable so offsets cannot wrap negative
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	return page, perPage
}

func mapReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			switch pgErr.ConstraintName {
			case "tickets_category_id_fkey":
				return ErrCategoryNotFound
			case "ticket_replies_ticket_id_fkey":
				return ErrReferenced
			}
			return ErrNotFound
		case "23505":
			return ErrDuplicate
		}
	}
	return mapReadError(err)
}
