package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

// NewPostgresStore returns a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, db: pool}
}

func (s *postgresStore) Tickets() TicketRepository      { return &ticketRepository{db: s.db} }
func (s *postgresStore) Replies() ReplyRepository       { return &replyRepository{db: s.db} }
func (s *postgresStore) Categories() CategoryRepository { return &categoryRepository{db: s.db} }
func (s *postgresStore) Users() UserRepository          { return &userRepository{db: s.db} }

func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(&postgresStore{pool: s.pool, db: tx, inTx: true})
	})
}
