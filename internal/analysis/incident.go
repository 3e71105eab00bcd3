// Package analysis provides read-only syntheses over engine state:
// incident analysis over clusters and alert-likelihood prediction from
// service history. Nothing here mutates core correlation state.
package analysis

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alertmesh/correlation-engine/internal/depgraph"
	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// ClusterSource is the read surface of the correlation engine the
// analyzer needs.
type ClusterSource interface {
	Cluster(id string) (*models.AlertCluster, bool)
	Graph() *depgraph.Graph
}

// Analyzer builds incident analyses from clusters.
type Analyzer struct {
	source ClusterSource
	logger *slog.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(source ClusterSource, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{source: source, logger: logger}
}

// Analyze synthesises a full incident analysis for one cluster. Unknown
// cluster ids fail with ErrNotFound.
func (a *Analyzer) Analyze(clusterID string) (models.IncidentAnalysis, error) {
	cluster, ok := a.source.Cluster(clusterID)
	if !ok {
		return models.IncidentAnalysis{}, utils.NewAppError("analysis.Analyze",
			fmt.Sprintf("cluster %s not found", clusterID), utils.ErrNotFound)
	}

	impact := assessImpact(cluster)
	rootCause := a.analyzeRootCause(cluster)

	analysis := models.IncidentAnalysis{
		IncidentID:        uuid.NewString(),
		ClusterIDs:        []string{cluster.ID},
		Timeline:          buildTimeline(cluster),
		RootCause:         rootCause,
		Impact:            impact,
		Recommendations:   recommend(cluster),
		Severity:          classifySeverity(impact),
		EstimatedDuration: estimateDuration(cluster),
		AffectedServices:  cluster.Services(),
		CreatedAt:         time.Now().UTC(),
	}

	a.logger.Debug("incident analysis built",
		slog.String("cluster_id", cluster.ID),
		slog.String("severity", string(analysis.Severity)))
	return analysis, nil
}

// buildTimeline lists member alerts chronologically, tagged with the
// owning cluster.
func buildTimeline(cluster *models.AlertCluster) []models.TimelineEvent {
	timeline := make([]models.TimelineEvent, 0, len(cluster.Alerts))
	for _, alert := range cluster.Alerts {
		timeline = append(timeline, models.TimelineEvent{
			Timestamp: alert.Timestamp,
			Service:   alert.Service,
			Host:      alert.Host,
			Severity:  alert.Severity,
			Title:     alert.Title,
			ClusterID: cluster.ID,
		})
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})
	return timeline
}

func (a *Analyzer) analyzeRootCause(cluster *models.AlertCluster) models.RootCauseAnalysis {
	analysis := models.RootCauseAnalysis{
		Method:     "heuristic",
		Candidates: append([]string(nil), cluster.RootCauseCandidates...),
		Confidence: cluster.ConfidenceScore,
		Evidence:   []models.RootCauseEvidence{},
	}

	switch cluster.CorrelationType {
	case models.CorrelationTemporal:
		earliest := cluster.Alerts[0]
		for _, alert := range cluster.Alerts[1:] {
			if alert.Timestamp.Before(earliest.Timestamp) {
				earliest = alert
			}
		}
		analysis.Evidence = append(analysis.Evidence, models.RootCauseEvidence{
			Type: "temporal",
			Description: fmt.Sprintf("First alert from %s at %s",
				earliest.Service, earliest.Timestamp.Format(time.RFC3339)),
			Weight: 0.8,
		})

	case models.CorrelationDependency:
		if upstream := affectedUpstream(cluster, a.source.Graph()); len(upstream) > 0 {
			analysis.Evidence = append(analysis.Evidence, models.RootCauseEvidence{
				Type:        "dependency",
				Description: "Upstream services affected: " + strings.Join(upstream, ", "),
				Weight:      0.9,
			})
		}
	}

	return analysis
}

// affectedUpstream returns member services that another member depends
// on, in first-seen order.
func affectedUpstream(cluster *models.AlertCluster, graph *depgraph.Graph) []string {
	if graph == nil {
		return nil
	}
	members := make(map[string]struct{})
	for _, alert := range cluster.Alerts {
		members[alert.Service] = struct{}{}
	}

	seen := make(map[string]struct{})
	upstream := make([]string, 0)
	for _, service := range cluster.Services() {
		for _, dep := range graph.Upstream(service) {
			if _, ok := members[dep]; !ok {
				continue
			}
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			upstream = append(upstream, dep)
		}
	}
	return upstream
}

func assessImpact(cluster *models.AlertCluster) models.ImpactAnalysis {
	score := 0
	for _, alert := range cluster.Alerts {
		score += alert.Severity.Weight()
	}

	services := cluster.ImpactAssessment.AffectedServices
	business := "low"
	switch {
	case score > 10:
		business = "high"
	case score > 5:
		business = "medium"
	}

	return models.ImpactAnalysis{
		AffectedServices:       services,
		AffectedHosts:          cluster.ImpactAssessment.AffectedHosts,
		SeverityScore:          score,
		EstimatedUsersAffected: services * 1000,
		BusinessImpact:         business,
	}
}

func classifySeverity(impact models.ImpactAnalysis) models.IncidentSeverity {
	switch {
	case impact.SeverityScore >= 15 || impact.AffectedServices >= 5:
		return models.IncidentSev1
	case impact.SeverityScore >= 10 || impact.AffectedServices >= 3:
		return models.IncidentSev2
	case impact.SeverityScore >= 5 || impact.AffectedServices >= 1:
		return models.IncidentSev3
	default:
		return models.IncidentSev4
	}
}

// estimateDuration scales a 30 minute baseline by cluster size, doubled
// for critical clusters.
func estimateDuration(cluster *models.AlertCluster) time.Duration {
	sizeFactor := float64(len(cluster.Alerts)) / 10
	severityFactor := 1.0
	if cluster.Severity() == models.SeverityCritical {
		severityFactor = 2
	}
	minutes := 30 * sizeFactor * severityFactor
	return time.Duration(minutes * float64(time.Minute))
}

func recommend(cluster *models.AlertCluster) []string {
	recommendations := make([]string, 0, 6)

	switch cluster.CorrelationType {
	case models.CorrelationDependency:
		recommendations = append(recommendations,
			"Check service dependencies and upstream components",
			"Verify network connectivity between services")
	case models.CorrelationSpatial:
		recommendations = append(recommendations,
			"Investigate infrastructure issues on affected hosts",
			"Check system resources (CPU, memory, disk)")
	case models.CorrelationTemporal:
		recommendations = append(recommendations,
			"Review recent deployments or configuration changes",
			"Check for scheduled maintenance or batch jobs")
	}

	if cluster.Severity() == models.SeverityCritical {
		recommendations = append(recommendations,
			"Escalate to on-call engineer immediately",
			"Consider activating incident response team")
	}

	for _, service := range cluster.Services() {
		lowered := strings.ToLower(service)
		if strings.Contains(lowered, "database") || strings.Contains(lowered, "db") {
			recommendations = append(recommendations,
				"Check database connections and query performance")
			break
		}
	}
	for _, service := range cluster.Services() {
		if strings.Contains(strings.ToLower(service), "api") {
			recommendations = append(recommendations,
				"Monitor API response times and error rates")
			break
		}
	}

	return recommendations
}
