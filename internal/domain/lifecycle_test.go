package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketState_Next(t *testing.T) {
	tests := []struct {
		name     string
		from     TicketState
		event    TicketEvent
		expected TicketState
	}{
		{"admin opens new ticket", TicketStateSend, EventAdminOpened, TicketStateAnswering},
		{"admin reopens claimed ticket", TicketStateAnswering, EventAdminOpened, TicketStateAnswering},
		{"admin opens answered ticket", TicketStateAnswered, EventAdminOpened, TicketStateAnswering},
		{"admin answers claimed ticket", TicketStateAnswering, EventAdminReplied, TicketStateAnswered},
		{"admin answers without claiming", TicketStateSend, EventAdminReplied, TicketStateAnswered},
		{"admin answers twice", TicketStateAnswered, EventAdminReplied, TicketStateAnswered},
		{"owner reply keeps send", TicketStateSend, EventOwnerReplied, TicketStateSend},
		{"owner reply releases claim", TicketStateAnswering, EventOwnerReplied, TicketStateSend},
		{"owner reply reopens answered", TicketStateAnswered, EventOwnerReplied, TicketStateSend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := tt.from.Next(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next)
			assert.True(t, next.Valid())
		})
	}
}

func TestTicketState_NextRejectsUnknown(t *testing.T) {
	_, err := TicketStateSend.Next(TicketEvent("CLOSED"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = TicketState("DRAFT").Next(EventAdminOpened)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTicketState_ClosedUnderAnySequence(t *testing.T) {
	events := []TicketEvent{EventAdminOpened, EventOwnerReplied, EventAdminReplied, EventAdminOpened, EventAdminReplied, EventOwnerReplied}
	state := TicketStateSend
	for _, ev := range events {
		next, err := state.Next(ev)
		require.NoError(t, err)
		require.True(t, next.Valid(), "state %q escaped the state set", next)
		state = next
	}
	assert.Equal(t, TicketStateSend, state)
}

func TestTicketState_ListableByAdmin(t *testing.T) {
	assert.True(t, TicketStateSend.ListableByAdmin())
	assert.True(t, TicketStateAnswered.ListableByAdmin())
	assert.False(t, TicketStateAnswering.ListableByAdmin())
}

func TestDepartment_Valid(t *testing.T) {
	for _, d := range Departments {
		assert.True(t, d.Valid())
	}
	assert.False(t, Department("SALES").Valid())
	assert.False(t, Department("").Valid())
}
