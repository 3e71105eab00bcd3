package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertmesh/correlation-engine/internal/depgraph"
	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/similarity"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Config{}, nil, similarity.NewTFIDFClusterer())
}

func testAlert(id, service, host, title string, ts time.Time) *models.Alert {
	return &models.Alert{
		ID:        id,
		Timestamp: ts,
		Service:   service,
		Host:      host,
		Severity:  models.SeverityWarning,
		Status:    models.StatusFiring,
		Title:     title,
	}
}

func TestCorrelateNeedsTwoFiringAlerts(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.Ingest(testAlert("a-1", "api", "h1", "one lonely alert", time.Now().UTC())))

	clusters, err := e.Correlate(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, clusters)
}

func TestCorrelateSplitsTemporalRuns(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC().Add(-5 * time.Minute)

	// Distinct services, hosts, and titles so only the temporal strategy
	// can group them. Gap 30s keeps the first two together; gap 220s
	// exceeds the 120s burst limit and isolates the third.
	require.NoError(t, e.Ingest(testAlert("a-1", "web", "h1", "request queue saturated", base)))
	require.NoError(t, e.Ingest(testAlert("a-2", "api", "h2", "certificate renewal overdue", base.Add(30*time.Second))))
	require.NoError(t, e.Ingest(testAlert("a-3", "db", "h3", "replication lag growing", base.Add(250*time.Second))))

	clusters, err := e.Correlate(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	cluster := clusters[0]
	assert.Equal(t, models.CorrelationTemporal, cluster.CorrelationType)
	assert.ElementsMatch(t, []string{"a-1", "a-2"}, cluster.AlertIDs())
	assert.GreaterOrEqual(t, cluster.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, cluster.ConfidenceScore, 1.0)
	assert.NotEmpty(t, cluster.RootCauseCandidates)
	assert.Equal(t, []string{"web:h1"}, cluster.RootCauseCandidates, "earliest alert anchors the temporal root cause")

	for _, id := range []string{"a-1", "a-2"} {
		alert, ok := e.alerts.Get(id)
		require.True(t, ok)
		assert.Equal(t, cluster.ID, alert.CorrelationID, "commit writes correlation ids")
	}
	third, _ := e.alerts.Get("a-3")
	assert.Empty(t, third.CorrelationID)
}

func TestCorrelateClustersAreDisjoint(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC().Add(-5 * time.Minute)

	// Same host burst: temporal, spatial, and similarity all see these,
	// so the merge pass has real overlap to resolve.
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("a-%d", i)
		require.NoError(t, e.Ingest(testAlert(id, "api", "h1", "database connection timeout", base.Add(time.Duration(i*10)*time.Second))))
	}

	clusters, err := e.Correlate(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	seen := make(map[string]string)
	for _, cluster := range clusters {
		assert.GreaterOrEqual(t, cluster.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, cluster.ConfidenceScore, 1.0)
		for _, id := range cluster.AlertIDs() {
			prior, dup := seen[id]
			assert.False(t, dup, "alert %s appears in clusters %s and %s", id, prior, cluster.ID)
			seen[id] = cluster.ID
		}
	}
}

func TestTemporalConfidenceBounds(t *testing.T) {
	base := time.Now().UTC()
	tight := []*models.Alert{
		testAlert("a-1", "api", "h1", "x", base),
		testAlert("a-2", "api", "h1", "x", base.Add(5*time.Second)),
	}
	sparse := []*models.Alert{
		testAlert("b-1", "api", "h1", "x", base),
		testAlert("b-2", "api", "h1", "x", base.Add(290*time.Second)),
	}

	tightScore := temporalConfidence(tight)
	sparseScore := temporalConfidence(sparse)

	assert.Greater(t, tightScore, sparseScore, "tighter bursts score higher")
	for _, score := range []float64{tightScore, sparseScore} {
		assert.GreaterOrEqual(t, score, 0.1)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestDependencyCandidates(t *testing.T) {
	e := testEngine(t)
	e.SetDependencies(map[string][]string{
		"web": {"api"},
		"api": {"db"},
		"db":  {},
	})

	base := time.Now().UTC()
	alerts := []*models.Alert{
		testAlert("a-1", "web", "h1", "timeouts", base),
		testAlert("a-2", "db", "h2", "slow queries", base),
	}

	candidates, err := e.dependencyCandidates(context.Background(), alerts)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, models.CorrelationDependency, candidates[0].ctype)
	assert.Len(t, candidates[0].alerts, 2)
	// web and db sit two hops apart: confidence 1 - 2/5.
	assert.InDelta(t, 0.6, candidates[0].confidence, 1e-9)
}

func TestDependencyCandidatesSpanQuietServices(t *testing.T) {
	e := testEngine(t)
	e.SetDependencies(map[string][]string{
		"web":     {"api"},
		"api":     {"db"},
		"db":      {"storage"},
		"storage": {},
		"reports": {"batch"},
		"batch":   {},
	})

	// api and db stay quiet; web and storage are three hops apart. The
	// reports/batch island must not merge into the same candidate.
	base := time.Now().UTC()
	alerts := []*models.Alert{
		testAlert("a-1", "web", "h1", "timeouts", base),
		testAlert("a-2", "storage", "h2", "volume errors", base),
		testAlert("a-3", "reports", "h3", "export stuck", base),
		testAlert("a-4", "batch", "h4", "jobs backing up", base),
	}

	candidates, err := e.dependencyCandidates(context.Background(), alerts)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byLead := make(map[string]candidate)
	for _, cand := range candidates {
		byLead[cand.alerts[0].Service] = cand
	}

	cascade, ok := byLead["storage"]
	require.True(t, ok)
	assert.Len(t, cascade.alerts, 2)
	assert.InDelta(t, 0.4, cascade.confidence, 1e-9, "three hops: 1 - 3/5")

	island, ok := byLead["batch"]
	require.True(t, ok)
	assert.Len(t, island.alerts, 2)
	assert.InDelta(t, 0.8, island.confidence, 1e-9, "direct edge: 1 - 1/5")
}

func TestDependencyConfidenceFloor(t *testing.T) {
	graph := depgraph.New(map[string][]string{
		"web":   {"api"},
		"api":   {},
		"batch": {},
	})
	base := time.Now().UTC()
	unrelated := []*models.Alert{
		testAlert("a-1", "web", "h1", "x", base),
		testAlert("a-2", "batch", "h2", "y", base),
	}
	assert.Equal(t, 0.1, dependencyConfidence(unrelated, graph), "unreachable pairs bottom out")
}

func TestDependencyCandidatesWithoutTopology(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC()
	candidates, err := e.dependencyCandidates(context.Background(), []*models.Alert{
		testAlert("a-1", "web", "h1", "x", base),
		testAlert("a-2", "api", "h2", "y", base),
	})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSpatialCandidates(t *testing.T) {
	e := testEngine(t)
	base := time.Now().UTC()
	alerts := []*models.Alert{
		testAlert("a-1", "api", "h1", "cpu high", base),
		testAlert("a-2", "api", "h1", "memory high", base),
		testAlert("a-3", "api", "h2", "disk full", base),
		testAlert("a-4", "web", "h3", "latency", base),
	}

	candidates, err := e.spatialCandidates(context.Background(), alerts)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, models.CorrelationSpatial, candidates[0].ctype)
	assert.Equal(t, 0.9, candidates[0].confidence)
	assert.Len(t, candidates[0].alerts, 2, "only the h1 group has two alerts")
}

func TestSimilarityStrategyUnavailableWithoutClusterer(t *testing.T) {
	e := New(Config{}, nil, nil)
	base := time.Now().UTC()
	require.NoError(t, e.Ingest(testAlert("a-1", "web", "h1", "request queue saturated", base.Add(-time.Minute))))
	require.NoError(t, e.Ingest(testAlert("a-2", "api", "h2", "certificate renewal overdue", base.Add(-time.Minute).Add(10*time.Second))))

	// The pass still succeeds: the similarity strategy degrades.
	clusters, err := e.Correlate(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, clusters)
}

func TestPatternCandidates(t *testing.T) {
	e := testEngine(t)
	e.SetPatterns([]models.PatternSpec{
		{ID: "pattern-cron", Service: "cron", Confidence: 0.7},
	})

	base := time.Now().UTC()
	alerts := []*models.Alert{
		testAlert("a-1", "cron", "h1", "job overran", base),
		testAlert("a-2", "cron", "h2", "job overran", base),
		testAlert("a-3", "web", "h3", "latency", base),
	}

	candidates, err := e.patternCandidates(context.Background(), alerts)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, models.CorrelationPattern, candidates[0].ctype)
	assert.Equal(t, 0.7, candidates[0].confidence)
	assert.Len(t, candidates[0].alerts, 2)
}

func TestIntCondition(t *testing.T) {
	rule := models.CorrelationRule{Conditions: map[string]string{
		"min_alerts": "3",
		"bad":        "zero",
		"negative":   "-1",
	}}
	assert.Equal(t, 3, intCondition(rule, "min_alerts", 2))
	assert.Equal(t, 2, intCondition(rule, "bad", 2))
	assert.Equal(t, 2, intCondition(rule, "negative", 2))
	assert.Equal(t, 2, intCondition(rule, "missing", 2))
}
