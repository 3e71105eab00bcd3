package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertmesh/correlation-engine/internal/models"
)

func firing(id, service string, ts time.Time) *models.Alert {
	return &models.Alert{
		ID:        id,
		Timestamp: ts,
		Service:   service,
		Host:      "h1",
		Severity:  models.SeverityWarning,
		Status:    models.StatusFiring,
		Title:     "test alert",
	}
}

func TestAlertStoreAddAndGet(t *testing.T) {
	s := NewAlertStore(10)
	alert := firing("a-1", "api", time.Now())
	s.Add(alert)

	got, ok := s.Get("a-1")
	require.True(t, ok)
	assert.Same(t, alert, got, "store must hand out the canonical reference")
	assert.NotEmpty(t, got.Fingerprint, "fingerprint computed on add")

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestAlertStoreEvictsOldestAtCapacity(t *testing.T) {
	s := NewAlertStore(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		s.Add(firing(fmt.Sprintf("a-%d", i), "api", base.Add(time.Duration(i)*time.Second)))
	}

	assert.Equal(t, 3, s.Len())
	_, ok := s.Get("a-0")
	assert.False(t, ok, "oldest alerts evicted first")
	_, ok = s.Get("a-1")
	assert.False(t, ok)
	_, ok = s.Get("a-4")
	assert.True(t, ok)
}

func TestAlertStoreUpdateStatus(t *testing.T) {
	s := NewAlertStore(10)
	s.Add(firing("a-1", "api", time.Now()))

	assert.False(t, s.UpdateStatus("missing", models.StatusResolved, nil, ""), "unknown id is a zero-effect outcome")

	resolvedAt := time.Now().UTC()
	require.True(t, s.UpdateStatus("a-1", models.StatusResolved, &resolvedAt, ""))
	alert, _ := s.Get("a-1")
	assert.Equal(t, models.StatusResolved, alert.Status)
	require.NotNil(t, alert.ResolvedAt)
	assert.Equal(t, resolvedAt, *alert.ResolvedAt)

	s.Add(firing("a-2", "api", time.Now()))
	require.True(t, s.UpdateStatus("a-2", models.StatusAcknowledged, nil, "oncall"))
	alert, _ = s.Get("a-2")
	assert.Equal(t, "oncall", alert.AcknowledgedBy)
	assert.NotNil(t, alert.AcknowledgedAt)
}

func TestFiringBetweenFiltersStatusAndWindow(t *testing.T) {
	s := NewAlertStore(10)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inWindow := firing("a-1", "api", base.Add(time.Minute))
	s.Add(inWindow)

	resolved := firing("a-2", "api", base.Add(2*time.Minute))
	resolved.Status = models.StatusResolved
	s.Add(resolved)

	tooOld := firing("a-3", "api", base.Add(-time.Hour))
	s.Add(tooOld)

	got := s.FiringBetween(base, base.Add(10*time.Minute))
	require.Len(t, got, 1)
	assert.Equal(t, "a-1", got[0].ID)

	all := s.Between(base.Add(-2*time.Hour), base.Add(10*time.Minute))
	assert.Len(t, all, 3)
}

func TestServiceHistory(t *testing.T) {
	s := NewAlertStore(10)
	base := time.Now()
	s.Add(firing("a-1", "api", base.Add(-2*time.Hour)))
	s.Add(firing("a-2", "api", base.Add(-time.Minute)))
	s.Add(firing("a-3", "web", base.Add(-time.Minute)))

	got := s.ServiceHistory("api", base.Add(-time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "a-2", got[0].ID)
}

func TestSimilarExcludesSelfAndStale(t *testing.T) {
	s := NewAlertStore(10)
	base := time.Now()
	ref := firing("ref", "api", base)
	s.Add(firing("recent", "api", base.Add(-time.Minute)))
	s.Add(firing("stale", "api", base.Add(-time.Hour)))
	s.Add(ref)

	got := s.Similar(ref, 5*time.Minute, func(a, b *models.Alert) bool {
		return a.Service == b.Service
	})
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)
}

func TestSetCorrelationID(t *testing.T) {
	s := NewAlertStore(10)
	s.Add(firing("a-1", "api", time.Now()))

	assert.True(t, s.SetCorrelationID("a-1", "c-1"), "first assignment")
	assert.Equal(t, "c-1", s.CorrelationID("a-1"))

	assert.False(t, s.SetCorrelationID("a-1", "c-2"), "reassignment is not a first")
	assert.Equal(t, "c-2", s.CorrelationID("a-1"))

	assert.False(t, s.SetCorrelationID("missing", "c-1"))
	assert.Empty(t, s.CorrelationID("missing"))
}
