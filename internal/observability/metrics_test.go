package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("/v1/user/ticket", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/v1/user/ticket", "GET", 200, 5*time.Millisecond)
	m.RecordError("/v1/user/ticket/:id", "GET", "NOT_FOUND")
	m.RecordTransition("ADMIN_OPENED", "SEND", "ANSWERING")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/user/ticket", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/v1/user/ticket/:id", "GET", "NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("ADMIN_OPENED", "SEND", "ANSWERING")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "INTERNAL_ERROR")
		m.RecordTransition("ADMIN_REPLIED", "SEND", "ANSWERED")
		m.RecordMail("welcome", "sent")
	})
}
