package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestLifecycle_ClaimMovesToAnswering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	admin := f.admin(t, "tess", domain.DepartmentTechnical)
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	claimed, err := f.lifecycle.Claim(ctx, admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateAnswering, claimed.State)
	assert.Equal(t, domain.TicketStateAnswering, f.state(t, ticket.ID))
	assert.Contains(t, f.events.types(), events.EventTicketStateChange)
	assert.Equal(t, []recordedTransition{{"ADMIN_OPENED", "SEND", "ANSWERING"}}, f.transitions.entries)
}

func TestLifecycle_ClaimIsRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	admin := f.admin(t, "tess", domain.DepartmentTechnical)
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	for i := 0; i < 3; i++ {
		_, err := f.lifecycle.Claim(ctx, admin, ticket.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.TicketStateAnswering, f.state(t, ticket.ID))

	stateChanges := 0
	for _, et := range f.events.types() {
		if et == events.EventTicketStateChange {
			stateChanges++
		}
	}
	assert.Equal(t, 1, stateChanges)
}

func TestLifecycle_ClaimOutsideDepartmentIsNotFound(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	admin := f.admin(t, "fred", domain.DepartmentFinancial)
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	_, err := f.lifecycle.Claim(context.Background(), admin, ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, domain.TicketStateSend, f.state(t, ticket.ID))
	assert.Empty(t, f.transitions.entries)
}

func TestLifecycle_ClaimRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	_, err := f.lifecycle.Claim(context.Background(), owner, ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestLifecycle_ConcurrentClaimsSerialize(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)
	admins := []domain.Caller{
		f.admin(t, "tess", domain.DepartmentTechnical),
		f.admin(t, "tom", domain.DepartmentTechnical),
		f.admin(t, "tim", domain.DepartmentTechnical),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(admins))
	for i, admin := range admins {
		wg.Add(1)
		go func(i int, admin domain.Caller) {
			defer wg.Done()
			_, errs[i] = f.lifecycle.Claim(context.Background(), admin, ticket.ID)
		}(i, admin)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, domain.TicketStateAnswering, f.state(t, ticket.ID))
	require.Len(t, f.transitions.entries, 3)
	fromSend := 0
	for _, entry := range f.transitions.entries {
		assert.Equal(t, "ANSWERING", entry.to)
		if entry.from == "SEND" {
			fromSend++
		}
	}
	assert.Equal(t, 1, fromSend, "exactly one claim observes SEND")
}

func TestLifecycle_AdminReplyAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	admin := f.admin(t, "tess", domain.DepartmentTechnical)
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	_, err := f.lifecycle.Claim(ctx, admin, ticket.ID)
	require.NoError(t, err)

	first, err := f.lifecycle.ReplyAsAdmin(ctx, admin, ticket.ID, ReplyInput{Message: "please restart the client"})
	require.NoError(t, err)
	require.NotNil(t, first.User)
	assert.Equal(t, "tess", first.User.Name)
	assert.Equal(t, domain.TicketStateAnswered, f.state(t, ticket.ID))

	second, err := f.lifecycle.ReplyAsUser(ctx, owner, ticket.ID, ReplyInput{Message: "still broken after restart"})
	require.NoError(t, err)

	replies, err := f.store.Replies().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, first.ID, replies[0].ID)
	assert.Equal(t, second.ID, replies[1].ID)
	assert.Contains(t, f.events.types(), events.EventTicketReplied)
}

func TestLifecycle_AdminReplyOutsideDepartment(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	admin := f.admin(t, "mia", domain.DepartmentMarketing)
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	_, err := f.lifecycle.ReplyAsAdmin(context.Background(), admin, ticket.ID, ReplyInput{Message: "wrong desk, sorry"})
	requireCode(t, err, apperrors.CodeNotFound)

	count, err := f.store.Replies().CountByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLifecycle_OwnerReplyReturnsToSend(t *testing.T) {
	for _, from := range []domain.TicketState{domain.TicketStateSend, domain.TicketStateAnswering, domain.TicketStateAnswered} {
		t.Run(string(from), func(t *testing.T) {
			f := newFixture(t)
			owner := f.user(t, "alice")
			ticket := f.ticket(t, owner, domain.DepartmentFinancial)
			f.setState(t, ticket.ID, from)

			_, err := f.lifecycle.ReplyAsUser(context.Background(), owner, ticket.ID, ReplyInput{Message: "any update on this?"})
			require.NoError(t, err)
			assert.Equal(t, domain.TicketStateSend, f.state(t, ticket.ID))
		})
	}
}

func TestLifecycle_StrangerReplyIsNotFound(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	stranger := f.user(t, "mallory")
	ticket := f.ticket(t, owner, domain.DepartmentFinancial)
	f.setState(t, ticket.ID, domain.TicketStateAnswered)

	_, err := f.lifecycle.ReplyAsUser(context.Background(), stranger, ticket.ID, ReplyInput{Message: "hijacking this"})
	requireCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, domain.TicketStateAnswered, f.state(t, ticket.ID))
}

func TestLifecycle_ReplyValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ticket := f.ticket(t, owner, domain.DepartmentFinancial)

	_, err := f.lifecycle.Reply(context.Background(), owner, ticket.ID, ReplyInput{Message: "hey"})
	requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, apperrors.ToDomainError(err).Fields, "message")

	_, err = f.lifecycle.Reply(context.Background(), owner, 999, ReplyInput{Message: "where did it go"})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestLifecycle_ReplyKeepsTextAsTyped(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ticket := f.ticket(t, owner, domain.DepartmentFinancial)

	reply, err := f.lifecycle.Reply(context.Background(), owner, ticket.ID, ReplyInput{Message: "  if a<b and c>d then fail "})
	require.NoError(t, err)
	assert.Equal(t, "if a<b and c>d then fail", reply.Message)

	replies := mustReplies(t, f, ticket.ID)
	require.Len(t, replies, 1)
	assert.Equal(t, "if a<b and c>d then fail", replies[0].Message)

	_, err = f.lifecycle.Reply(context.Background(), owner, ticket.ID, ReplyInput{Message: "<script>alert(1)</script>"})
	requireCode(t, err, apperrors.CodeValidation)
	assert.Len(t, mustReplies(t, f, ticket.ID), 1)
}

func mustReplies(t *testing.T, f *fixture, ticketID int64) []domain.TicketReply {
	t.Helper()
	replies, err := f.store.Replies().ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	return replies
}

func TestLifecycle_StatesStayClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "alice")
	admin := f.admin(t, "tess", domain.DepartmentTechnical)
	ticket := f.ticket(t, owner, domain.DepartmentTechnical)

	steps := []func() error{
		func() error { _, err := f.lifecycle.Claim(ctx, admin, ticket.ID); return err },
		func() error {
			_, err := f.lifecycle.Reply(ctx, owner, ticket.ID, ReplyInput{Message: "more details"})
			return err
		},
		func() error {
			_, err := f.lifecycle.Reply(ctx, admin, ticket.ID, ReplyInput{Message: "fixed it now"})
			return err
		},
		func() error { _, err := f.lifecycle.Claim(ctx, admin, ticket.ID); return err },
		func() error {
			_, err := f.lifecycle.Reply(ctx, admin, ticket.ID, ReplyInput{Message: "double checked"})
			return err
		},
	}
	for _, step := range steps {
		require.NoError(t, step())
		assert.True(t, f.state(t, ticket.ID).Valid())
	}
	assert.Equal(t, domain.TicketStateAnswered, f.state(t, ticket.ID))
}
