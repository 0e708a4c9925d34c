package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "POST", 201, time.Millisecond)
	m.RecordRequest("/api/tickets", "POST", 201, time.Millisecond)
	m.RecordError("/api/tickets/:id", "PATCH", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/tickets|POST|201"])
	assert.Equal(t, int64(1), snap.Errors["/api/tickets/:id|PATCH|FORBIDDEN"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
