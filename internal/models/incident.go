package models

import "time"

// IncidentSeverity classifies whole incidents.
type IncidentSeverity string

const (
	IncidentSev1 IncidentSeverity = "sev1"
	IncidentSev2 IncidentSeverity = "sev2"
	IncidentSev3 IncidentSeverity = "sev3"
	IncidentSev4 IncidentSeverity = "sev4"
)

// TimelineEvent is one alert occurrence within an incident, tagged with
// the cluster it belongs to.
type TimelineEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Host      string    `json:"host"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	ClusterID string    `json:"cluster_id"`
}

// RootCauseEvidence supports a root cause candidate with a weighted note.
type RootCauseEvidence struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// RootCauseAnalysis aggregates candidates and their supporting evidence.
type RootCauseAnalysis struct {
	Method     string              `json:"method"`
	Candidates []string            `json:"candidates"`
	Confidence float64             `json:"confidence"`
	Evidence   []RootCauseEvidence `json:"evidence"`
}

// ImpactAnalysis extends the cluster impact snapshot with rough business
// estimates.
type ImpactAnalysis struct {
	AffectedServices       int    `json:"affected_services"`
	AffectedHosts          int    `json:"affected_hosts"`
	SeverityScore          int    `json:"severity_score"`
	EstimatedUsersAffected int    `json:"estimated_users_affected"`
	BusinessImpact         string `json:"business_impact"`
}

// IncidentAnalysis is a read-only synthesis over one or more clusters.
// Built fresh per request and never stored.
type IncidentAnalysis struct {
	IncidentID        string            `json:"incident_id"`
	ClusterIDs        []string          `json:"cluster_ids"`
	Timeline          []TimelineEvent   `json:"timeline"`
	RootCause         RootCauseAnalysis `json:"root_cause_analysis"`
	Impact            ImpactAnalysis    `json:"impact_analysis"`
	Recommendations   []string          `json:"recommendations"`
	Severity          IncidentSeverity  `json:"severity"`
	EstimatedDuration time.Duration     `json:"estimated_duration"`
	AffectedServices  []string          `json:"affected_services"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Prediction estimates near-future alert likelihood for a service.
type Prediction struct {
	Service            string        `json:"service"`
	TimeHorizon        time.Duration `json:"time_horizon"`
	InsufficientData   bool          `json:"insufficient_data,omitempty"`
	PredictionScore    float64       `json:"prediction_score"`
	Confidence         float64       `json:"confidence"`
	ExpectedAlertTypes []string      `json:"expected_alert_types,omitempty"`
	RiskFactors        []string      `json:"risk_factors,omitempty"`
}

// ServicePattern describes a periodic alert cadence detected for a service.
type ServicePattern struct {
	Service         string  `json:"service"`
	Type            string  `json:"type"`
	AverageInterval float64 `json:"average_interval_seconds"`
	IntervalStdDev  float64 `json:"interval_std_dev_seconds"`
	Occurrences     int     `json:"occurrences"`
	Confidence      float64 `json:"confidence"`
}

// NoisePattern flags a signature that dominates alert volume.
type NoisePattern struct {
	Service    string  `json:"service"`
	Title      string  `json:"title"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
	Type       string  `json:"type"`
}

// PatternReport is the result of a pattern detection pass.
type PatternReport struct {
	Patterns            []ServicePattern `json:"patterns"`
	NoisePatterns       []NoisePattern   `json:"noise_patterns"`
	AnalysisPeriod      time.Duration    `json:"analysis_period"`
	TotalAlertsAnalyzed int              `json:"total_alerts_analyzed"`
}

// EngineMetrics summarises correlation activity counters.
type EngineMetrics struct {
	TotalAlerts        int     `json:"total_alerts"`
	CorrelatedAlerts   int     `json:"correlated_alerts"`
	CorrelationRate    float64 `json:"correlation_rate"`
	ClustersCreated    int     `json:"clusters_created"`
	NoiseSuppressed    int     `json:"noise_suppressed"`
	NoiseReductionRate float64 `json:"noise_reduction_rate"`
	ActiveClusters     int     `json:"active_clusters"`
	CorrelationRules   int     `json:"correlation_rules"`
}
