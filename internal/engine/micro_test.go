package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/patterns"
)

func TestMicroCorrelateOpensCluster(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC()

	first := testAlert("a-1", "api", "h1", "connection pool exhausted", base.Add(-time.Minute))
	second := testAlert("a-2", "api", "h1", "worker restart loop", base)
	require.NoError(t, e.Ingest(first))
	require.NoError(t, e.Ingest(second))

	e.microCorrelate("a-2")

	require.NotEmpty(t, second.CorrelationID)
	cluster, ok := e.Cluster(second.CorrelationID)
	require.True(t, ok)
	assert.Equal(t, models.CorrelationSimilarity, cluster.CorrelationType)
	assert.Equal(t, 0.8, cluster.ConfidenceScore)
	assert.ElementsMatch(t, []string{"a-1", "a-2"}, cluster.AlertIDs())
	assert.Equal(t, cluster.ID, first.CorrelationID)
}

func TestMicroCorrelateJoinsExistingCluster(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC()

	require.NoError(t, e.Ingest(testAlert("a-1", "api", "h1", "connection pool exhausted", base.Add(-2*time.Minute))))
	require.NoError(t, e.Ingest(testAlert("a-2", "api", "h1", "worker restart loop", base.Add(-time.Minute))))
	e.microCorrelate("a-2")

	existing, _ := e.alerts.Get("a-1")
	clusterID := existing.CorrelationID
	require.NotEmpty(t, clusterID)

	third := testAlert("a-3", "api", "h1", "thread starvation", base)
	require.NoError(t, e.Ingest(third))
	e.microCorrelate("a-3")

	assert.Equal(t, clusterID, third.CorrelationID, "joins the open cluster instead of opening a new one")
	cluster, _ := e.Cluster(clusterID)
	assert.Len(t, cluster.Alerts, 3)
	assert.Equal(t, 3, cluster.ImpactAssessment.TotalAlerts)
}

func TestMicroCorrelateNoSimilarNoCluster(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC()

	require.NoError(t, e.Ingest(testAlert("a-1", "api", "h1", "x", base.Add(-time.Hour))))
	lone := testAlert("a-2", "web", "h9", "totally different alert", base)
	require.NoError(t, e.Ingest(lone))

	e.microCorrelate("a-2")
	assert.Empty(t, lone.CorrelationID)
	assert.Empty(t, e.Clusters())
}

func TestAlertsSimilarPredicate(t *testing.T) {
	base := time.Now().UTC()
	colocated := testAlert("a", "api", "h1", "anything", base)
	sameSpot := testAlert("b", "api", "h1", "different words entirely", base)
	assert.True(t, alertsSimilar(colocated, sameSpot))

	byFingerprint := testAlert("c", "api", "h2", "x", base)
	byFingerprint.Fingerprint = "deadbeef"
	other := testAlert("d", "web", "h3", "y", base)
	other.Fingerprint = "deadbeef"
	assert.True(t, alertsSimilar(byFingerprint, other))

	sharedTitle := testAlert("e", "api", "h2", "disk almost full on volume", base)
	closeTitle := testAlert("f", "web", "h3", "disk almost full on volume", base)
	assert.True(t, alertsSimilar(sharedTitle, closeTitle))

	unrelated := testAlert("g", "web", "h4", "certificate expired", base)
	assert.False(t, alertsSimilar(sharedTitle, unrelated))
}

func TestDetectPatternsRefreshesSpecsAndNoise(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC()

	// A regular 30m cadence from one service dominates the window.
	for i := 0; i < 6; i++ {
		alert := testAlert("p-"+string(rune('a'+i)), "cron", "h1", "scheduled check failed", base.Add(-time.Duration(6-i)*30*time.Minute))
		require.NoError(t, e.Ingest(alert))
	}

	report := e.DetectPatterns(patterns.NewDetector(nil), 7*24*time.Hour)

	assert.Equal(t, 6, report.TotalAlertsAnalyzed)
	require.Len(t, report.Patterns, 1)
	assert.Equal(t, "cron", report.Patterns[0].Service)
	require.NotEmpty(t, report.NoisePatterns, "a signature with 100% of volume is noise")

	e.mu.RLock()
	specs := append([]models.PatternSpec(nil), e.patterns...)
	e.mu.RUnlock()
	require.Len(t, specs, 1)
	assert.Equal(t, "pattern-cron", specs[0].ID)

	// The refreshed suppression set applies to future ingestion.
	repeat := testAlert("p-x", "cron", "h1", "scheduled check failed", base)
	require.NoError(t, e.Ingest(repeat))
	assert.Equal(t, models.StatusSuppressed, repeat.Status)
}

func TestDetectPatternsEmptyHistory(t *testing.T) {
	e := testEngine(t)
	report := e.DetectPatterns(patterns.NewDetector(nil), time.Hour)
	assert.Zero(t, report.TotalAlertsAnalyzed)
	assert.Empty(t, report.Patterns)
	assert.Empty(t, report.NoisePatterns)
}
