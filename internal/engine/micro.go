package engine

import (
	"log/slog"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/similarity"
)

// Title overlap above this makes two alerts similar even across hosts.
const microTitleSimilarity = 0.8

// microCorrelate runs single-alert correlation for a freshly ingested
// alert: it looks for similar recent alerts and either joins their
// existing open cluster or opens a new similarity cluster.
func (e *Engine) microCorrelate(alertID string) {
	alert, ok := e.alerts.Get(alertID)
	if !ok {
		// Evicted before the worker got to it.
		return
	}

	similar := e.alerts.Similar(alert, e.cfg.MicroLookback, alertsSimilar)
	if len(similar) == 0 {
		return
	}

	// Prefer joining a cluster a similar alert already belongs to.
	for _, other := range similar {
		clusterID := e.alerts.CorrelationID(other.ID)
		if clusterID == "" {
			continue
		}
		if e.clusters.Append(clusterID, alert) {
			e.alerts.SetCorrelationID(alert.ID, clusterID)
			e.stats.mu.Lock()
			e.stats.correlatedAlerts++
			e.stats.mu.Unlock()
			e.logger.Debug("alert joined cluster",
				slog.String("alert_id", alert.ID),
				slog.String("cluster_id", clusterID))
			return
		}
	}

	members := append([]*models.Alert{alert}, similar...)
	cluster := e.buildCluster(candidate{
		alerts:     members,
		ctype:      models.CorrelationSimilarity,
		confidence: 0.8,
	})
	for _, member := range cluster.Alerts {
		e.alerts.SetCorrelationID(member.ID, cluster.ID)
	}
	e.clusters.Put(cluster)

	e.stats.mu.Lock()
	e.stats.clustersCreated++
	e.stats.correlatedAlerts++
	e.stats.mu.Unlock()

	e.logger.Debug("micro-correlation cluster created",
		slog.String("cluster_id", cluster.ID),
		slog.Int("alerts", len(cluster.Alerts)))
}

// alertsSimilar is the micro-correlation predicate: co-located, identical
// fingerprints, or strongly overlapping titles.
func alertsSimilar(a, b *models.Alert) bool {
	if a.Service == b.Service && a.Host == b.Host {
		return true
	}
	if a.Fingerprint != "" && a.Fingerprint == b.Fingerprint {
		return true
	}
	return similarity.Jaccard(a.Title, b.Title) > microTitleSimilarity
}

// DetectPatterns analyses alert history over the lookback window,
// refreshing both learned patterns (fed to the pattern strategy) and the
// noise suppression set.
func (e *Engine) DetectPatterns(detector PatternDetector, lookback time.Duration) models.PatternReport {
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	end := time.Now().UTC()
	start := end.Add(-lookback)
	history := e.alerts.Between(start, end)

	report := models.PatternReport{
		AnalysisPeriod:      lookback,
		TotalAlertsAnalyzed: len(history),
		Patterns:            []models.ServicePattern{},
		NoisePatterns:       []models.NoisePattern{},
	}
	if len(history) == 0 {
		return report
	}

	if detector != nil {
		report.Patterns = detector.Detect(history)
		e.SetPatterns(detector.Specs(report.Patterns))
	}
	report.NoisePatterns = e.noise.Update(history)

	if len(report.NoisePatterns) > 0 {
		e.logger.Info("noise signatures flagged", slog.Int("count", len(report.NoisePatterns)))
	}
	return report
}

// PatternDetector mines recurring alert cadences from history.
type PatternDetector interface {
	Detect(alerts []*models.Alert) []models.ServicePattern
	Specs(detected []models.ServicePattern) []models.PatternSpec
}
