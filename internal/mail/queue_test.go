package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type captureRecorder struct {
	mu       sync.Mutex
	statuses []string
}

func (r *captureRecorder) RecordMail(_, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *captureRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}

func TestQueue_DeliversImmediately(t *testing.T) {
	mailer := &captureMailer{}
	recorder := &captureRecorder{}
	queue, err := NewQueue(mailer, zap.NewNop(), recorder)
	require.NoError(t, err)
	queue.Start()
	t.Cleanup(func() { _ = queue.Shutdown() })

	require.NoError(t, queue.Enqueue(context.Background(), Welcome("alice", "alice@example.com"), 0))

	require.Eventually(t, func() bool { return mailer.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "alice@example.com", mailer.sent[0].To)
	assert.Equal(t, []string{"sent"}, recorder.snapshot())
}

func TestQueue_HonoursDelay(t *testing.T) {
	mailer := &captureMailer{}
	queue, err := NewQueue(mailer, zap.NewNop(), nil)
	require.NoError(t, err)
	queue.Start()
	t.Cleanup(func() { _ = queue.Shutdown() })

	require.NoError(t, queue.Enqueue(context.Background(), Welcome("bob", "bob@example.com"), 300*time.Millisecond))

	assert.Zero(t, mailer.count())
	require.Eventually(t, func() bool { return mailer.count() == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestQueue_FailureIsRecorded(t *testing.T) {
	mailer := &captureMailer{err: errors.New("relay down")}
	recorder := &captureRecorder{}
	queue, err := NewQueue(mailer, zap.NewNop(), recorder)
	require.NoError(t, err)
	queue.Start()
	t.Cleanup(func() { _ = queue.Shutdown() })

	require.NoError(t, queue.Enqueue(context.Background(), Welcome("carol", "carol@example.com"), 0))
	require.Eventually(t, func() bool { return len(recorder.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"failed"}, recorder.snapshot())
}

func TestWelcome_EscapesName(t *testing.T) {
	msg := Welcome("<b>eve</b>", "eve@example.com")
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;eve&lt;/b&gt;")
	assert.Equal(t, "welcome", msg.Template)
}
