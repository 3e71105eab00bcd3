package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertmesh/correlation-engine/internal/models"
)

func TestMergeCandidatesUnionsOverlaps(t *testing.T) {
	base := time.Now().UTC()
	a1 := testAlert("a-1", "web", "h1", "x", base)
	a2 := testAlert("a-2", "api", "h2", "y", base)
	a3 := testAlert("a-3", "db", "h3", "z", base)

	merged := mergeCandidates([]candidate{
		{alerts: []*models.Alert{a1, a2}, ctype: models.CorrelationTemporal, confidence: 0.8},
		{alerts: []*models.Alert{a2, a3}, ctype: models.CorrelationDependency, confidence: 0.6},
	})

	require.Len(t, merged, 1)
	assert.Len(t, merged[0].alerts, 3)
	assert.InDelta(t, 0.7, merged[0].confidence, 1e-9, "merged confidence is the mean")
	assert.Equal(t, models.CorrelationTemporal, merged[0].ctype, "tie on type count goes to first seen")
}

func TestMergeCandidatesTransitive(t *testing.T) {
	base := time.Now().UTC()
	alerts := make([]*models.Alert, 5)
	for i := range alerts {
		alerts[i] = testAlert(string(rune('a'+i)), "svc", "h1", "x", base)
	}

	// a-b, c-d, then b-c links both pairs into one group.
	merged := mergeCandidates([]candidate{
		{alerts: []*models.Alert{alerts[0], alerts[1]}, ctype: models.CorrelationTemporal, confidence: 0.9},
		{alerts: []*models.Alert{alerts[2], alerts[3]}, ctype: models.CorrelationSpatial, confidence: 0.9},
		{alerts: []*models.Alert{alerts[1], alerts[2]}, ctype: models.CorrelationSpatial, confidence: 0.9},
	})

	require.Len(t, merged, 1)
	assert.Len(t, merged[0].alerts, 4)
	assert.Equal(t, models.CorrelationSpatial, merged[0].ctype, "most frequent type dominates")
}

func TestMergeCandidatesKeepsDisjointApart(t *testing.T) {
	base := time.Now().UTC()
	merged := mergeCandidates([]candidate{
		{alerts: []*models.Alert{testAlert("a-1", "web", "h1", "x", base)}, ctype: models.CorrelationTemporal, confidence: 0.8},
		{alerts: []*models.Alert{testAlert("a-2", "api", "h2", "y", base)}, ctype: models.CorrelationSpatial, confidence: 0.9},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, 0.8, merged[0].confidence, "lone candidates pass through unchanged")
}

func TestMergeCandidatesEmpty(t *testing.T) {
	assert.Nil(t, mergeCandidates(nil))
}
