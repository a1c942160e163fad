package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("POST", 302, 20*time.Millisecond, 10)
	m.RecordRequest("POST", 302, 30*time.Millisecond, 10)
	m.RecordRequest("GET", 200, 10*time.Millisecond, 100)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "302")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(0), snap.TotalErrors)
	assert.Equal(t, 60*time.Millisecond, snap.TotalDuration)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecordError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordError("GET", time.Millisecond)
	m.RecordRecreate()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestErrors.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClientRecreated))
	assert.Equal(t, int64(1), m.Snapshot().TotalErrors)
}

func TestNilRegistererDoesNotRegister(t *testing.T) {
	// Two instances on a nil registerer must not collide.
	a := NewMetrics(nil)
	b := NewMetrics(nil)

	a.RecordRequest("GET", 200, time.Millisecond, 1)
	b.RecordRequest("GET", 200, time.Millisecond, 1)

	assert.Equal(t, int64(1), a.Snapshot().TotalRequests)
	assert.Equal(t, int64(1), b.Snapshot().TotalRequests)
}
