package repository

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func seedUser(t *testing.T, store Store, name string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: name + "@example.com", Role: domain.RoleUser}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedTicket(t *testing.T, store Store, userID int64, dept domain.Department, state domain.TicketState) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{UserID: userID, Department: dept, Title: "printer", Message: "jammed again", State: state}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestMemoryStore_CreateTicketRequiresCategory(t *testing.T) {
	store := NewMemoryStore()
	user := seedUser(t, store, "alice")
	missing := int64(42)

	ticket := &domain.Ticket{UserID: user.ID, CategoryID: &missing, Department: domain.DepartmentTechnical, State: domain.TicketStateSend}
	err := store.Tickets().Create(context.Background(), ticket)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestMemoryStore_GetByIDProjections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := seedUser(t, store, "alice")
	category := &domain.Category{Title: "Billing"}
	require.NoError(t, store.Categories().Create(ctx, category))

	ticket := &domain.Ticket{UserID: user.ID, CategoryID: &category.ID, Department: domain.DepartmentFinancial, Title: "refund", Message: "double charge", State: domain.TicketStateSend}
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	require.NotNil(t, got.User)
	assert.Equal(t, "Billing", got.Category.Title)
	assert.Equal(t, "alice", got.User.Name)

	_, err = store.Tickets().GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	first := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateSend)
	seedTicket(t, store, bob.ID, domain.DepartmentTechnical, domain.TicketStateSend)
	claimed := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateAnswering)
	last := seedTicket(t, store, alice.ID, domain.DepartmentMarketing, domain.TicketStateAnswered)

	page, err := store.Tickets().List(ctx, TicketFilter{UserID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, last.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[2].ID)

	dept := domain.DepartmentTechnical
	page, err = store.Tickets().List(ctx, TicketFilter{Department: &dept, ExcludeStates: []domain.TicketState{domain.TicketStateAnswering}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, item := range page.Items {
		assert.NotEqual(t, claimed.ID, item.ID)
	}

	page, err = store.Tickets().List(ctx, TicketFilter{UserID: &alice.ID, Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.LastPage())
	assert.Equal(t, first.ID, page.Items[0].ID)
}

func TestMemoryStore_RepliesInCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice")
	ticket := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateSend)

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, store.Replies().Create(ctx, &domain.TicketReply{TicketID: ticket.ID, UserID: alice.ID, Message: msg}))
	}

	replies, err := store.Replies().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, replies, 3)
	assert.Equal(t, "first", replies[0].Message)
	assert.Equal(t, "third", replies[2].Message)
	require.NotNil(t, replies[0].User)
	assert.Equal(t, "alice", replies[0].User.Name)

	count, err := store.Replies().CountByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryStore_DeleteTicketWithRepliesIsRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice")
	ticket := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateSend)
	require.NoError(t, store.Replies().Create(ctx, &domain.TicketReply{TicketID: ticket.ID, UserID: alice.ID, Message: "hello"}))

	assert.ErrorIs(t, store.Tickets().Delete(ctx, ticket.ID), ErrReferenced)
}

func TestMemoryStore_WithinTxCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice")
	ticket := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateSend)
	require.NoError(t, store.Replies().Create(ctx, &domain.TicketReply{TicketID: ticket.ID, UserID: alice.ID, Message: "hello"}))

	err := store.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.Replies().DeleteByTicket(ctx, ticket.ID); err != nil {
			return err
		}
		return tx.Tickets().Delete(ctx, ticket.ID)
	})
	require.NoError(t, err)

	_, err = store.Tickets().GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := store.Replies().CountByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStore_WithinTxRollback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice")
	ticket := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateSend)
	require.NoError(t, store.Replies().Create(ctx, &domain.TicketReply{TicketID: ticket.ID, UserID: alice.ID, Message: "hello"}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx Store) error {
		removed, err := tx.Replies().DeleteByTicket(ctx, ticket.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), removed)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	count, err := store.Replies().CountByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStore_NestedTxReusesOuter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice")
	ticket := seedTicket(t, store, alice.ID, domain.DepartmentTechnical, domain.TicketStateSend)

	err := store.WithinTx(ctx, func(tx Store) error {
		return tx.WithinTx(ctx, func(inner Store) error {
			return inner.Tickets().UpdateState(ctx, ticket.ID, domain.TicketStateAnswering)
		})
	})
	require.NoError(t, err)

	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateAnswering, got.State)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	seedUser(t, store, "alice")
	err := store.Users().Create(context.Background(), &domain.User{Name: "alice", Email: "ALICE@example.com", Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name            string
		page, perPage   int
		wantPage, wantN int
	}{
		{"defaults", 0, 0, 1, defaultPerPage},
		{"negative page", -3, 10, 1, 10},
		{"per page capped", 2, 1000, 2, maxPerPage},
		{"huge page clamped", math.MaxInt, 15, math.MaxInt / 15, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := normalizePage(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantN, perPage)
			assert.GreaterOrEqual(t, (page-1)*perPage, 0)
		})
	}
}

func TestMemoryStore_PageBeyondRangeIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := seedUser(t, store, "alice")
	seedTicket(t, store, owner.ID, domain.DepartmentTechnical, domain.TicketStateSend)
	require.NoError(t, store.Categories().Create(ctx, &domain.Category{Title: "Billing"}))

	for _, page := range []int{2, math.MaxInt64/15 + 2, math.MaxInt} {
		tickets, err := store.Tickets().List(ctx, TicketFilter{Page: page})
		require.NoError(t, err)
		assert.Empty(t, tickets.Items)
		assert.EqualValues(t, 1, tickets.Total)

		categories, err := store.Categories().List(ctx, page, 0)
		require.NoError(t, err)
		assert.Empty(t, categories.Items)
		assert.EqualValues(t, 1, categories.Total)
	}
}
