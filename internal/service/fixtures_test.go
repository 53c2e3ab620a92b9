package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type recordedTransition struct{ event, from, to string }

type transitionLog struct {
	mu      sync.Mutex
	entries []recordedTransition
}

func (l *transitionLog) RecordTransition(event, from, to string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedTransition{event, from, to})
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store       repository.Store
	lifecycle   *Lifecycle
	tickets     *TicketService
	transitions *transitionLog
	events      *eventLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repository.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store repository.Store) *fixture {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	log := &eventLog{}
	for _, et := range append([]events.EventType{events.EventUserRegistered}, events.TicketEventTypes...) {
		dispatcher.Subscribe(et, log.handle)
	}
	transitions := &transitionLog{}
	lifecycle := NewLifecycle(LifecycleDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Recorder:   transitions,
		Logger:     zap.NewNop(),
	})
	return &fixture{
		store:     store,
		lifecycle: lifecycle,
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Lifecycle:  lifecycle,
			Dispatcher: dispatcher,
			Logger:     zap.NewNop(),
		}),
		transitions: transitions,
		events:      log,
	}
}

func (f *fixture) user(t *testing.T, name string) domain.Caller {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: domain.RoleUser}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.Caller()
}

func (f *fixture) admin(t *testing.T, name string, dept domain.Department) domain.Caller {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: domain.RoleAdmin, Department: dept}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.Caller()
}

func (f *fixture) category(t *testing.T, title string) int64 {
	t.Helper()
	c := &domain.Category{Title: title}
	require.NoError(t, f.store.Categories().Create(context.Background(), c))
	return c.ID
}

func (f *fixture) ticket(t *testing.T, owner domain.Caller, dept domain.Department) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{UserID: owner.ID, Department: dept, Title: "vpn down", Message: "cannot connect", State: domain.TicketStateSend}
	require.NoError(t, f.store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func (f *fixture) state(t *testing.T, id int64) domain.TicketState {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket.State
}

func (f *fixture) setState(t *testing.T, id int64, state domain.TicketState) {
	t.Helper()
	require.NoError(t, f.store.Tickets().UpdateState(context.Background(), id, state))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, code), "expected %s, got %v", code, err)
}

// faultyStore fails one phase of the cascading delete inside transactions.
type faultyStore struct {
	repository.Store
	failReplies bool
}

var errInjected = errors.New("injected failure")

func (f faultyStore) Tickets() repository.TicketRepository {
	if f.failReplies {
		return f.Store.Tickets()
	}
	return faultyTickets{f.Store.Tickets()}
}

func (f faultyStore) Replies() repository.ReplyRepository {
	if f.failReplies {
		return faultyReplies{f.Store.Replies()}
	}
	return f.Store.Replies()
}

func (f faultyStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(faultyStore{Store: tx, failReplies: f.failReplies})
	})
}

type faultyTickets struct{ repository.TicketRepository }

func (faultyTickets) Delete(context.Context, int64) error { return errInjected }

type faultyReplies struct{ repository.ReplyRepository }

func (r faultyReplies) DeleteByTicket(ctx context.Context, ticketID int64) (int64, error) {
	// remove the rows, then fail as if the connection dropped mid-cascade
	if _, err := r.ReplyRepository.DeleteByTicket(ctx, ticketID); err != nil {
		return 0, err
	}
	return 0, errInjected
}
