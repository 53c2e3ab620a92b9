package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestDispatcher_RunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketReplied, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketReplied, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), New(EventTicketReplied, 1, Actor{ID: 1, Role: domain.RoleUser}, nil))
	assert.Error(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_ForwardsTicketEvents(t *testing.T) {
	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer, 0, zap.NewNop())
	d := NewInMemoryDispatcher()
	publisher.Register(d)

	event := New(EventTicketStateChange, 42, Actor{ID: 7, Role: domain.RoleAdmin}, TicketStateChangedPayload{
		Event:    domain.EventAdminOpened,
		OldState: domain.TicketStateSend,
		NewState: domain.TicketStateAnswering,
	})
	require.NoError(t, d.Publish(context.Background(), event))
	require.NoError(t, d.Publish(context.Background(), New(EventUserRegistered, 3, Actor{}, nil)))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "42", string(msg.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "ticket.state_changed", decoded["type"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "ANSWERING", payload["new_state"])
}

func TestKafkaPublisher_ReportsWriteFailure(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	publisher := NewKafkaPublisher(writer, 0, zap.NewNop())
	err := publisher.Handle(context.Background(), New(EventTicketCreated, 1, Actor{}, nil))
	assert.EqualError(t, err, "broker down")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	long := make([]rune, 100)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, []rune(Preview(string(long))), 81)
}
