package models

import "time"

// CorrelationType enumerates the strategies that can produce a cluster.
type CorrelationType string

const (
	CorrelationTemporal   CorrelationType = "temporal"
	CorrelationSpatial    CorrelationType = "spatial"
	CorrelationSimilarity CorrelationType = "similarity"
	CorrelationDependency CorrelationType = "dependency"
	CorrelationPattern    CorrelationType = "pattern"
)

// ImpactAssessment is a derived snapshot of what a cluster touches.
type ImpactAssessment struct {
	AffectedServices  int            `json:"affected_services"`
	AffectedHosts     int            `json:"affected_hosts"`
	TotalAlerts       int            `json:"total_alerts"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
	Services          []string       `json:"services"`
	Hosts             []string       `json:"hosts"`
}

// AlertCluster groups alerts believed to stem from one incident. Member
// alerts are shared references into the alert store, never copies, so a
// correlation id written through the cluster is visible store-wide.
type AlertCluster struct {
	ID                  string           `json:"id"`
	Alerts              []*Alert         `json:"alerts"`
	CorrelationType     CorrelationType  `json:"correlation_type"`
	ConfidenceScore     float64          `json:"confidence_score"`
	RootCauseCandidates []string         `json:"root_cause_candidates"`
	ImpactAssessment    ImpactAssessment `json:"impact_assessment"`
	CreatedAt           time.Time        `json:"created_at"`
	ResolvedAt          *time.Time       `json:"resolved_at,omitempty"`
}

// Severity returns the highest severity across member alerts.
func (c *AlertCluster) Severity() Severity {
	top := SeverityUnknown
	for _, alert := range c.Alerts {
		if alert.Severity.Rank() > top.Rank() {
			top = alert.Severity
		}
	}
	return top
}

// AlertIDs returns the member alert ids in insertion order.
func (c *AlertCluster) AlertIDs() []string {
	ids := make([]string, 0, len(c.Alerts))
	for _, alert := range c.Alerts {
		ids = append(ids, alert.ID)
	}
	return ids
}

// Services returns the distinct member services in first-seen order.
func (c *AlertCluster) Services() []string {
	seen := make(map[string]struct{}, len(c.Alerts))
	services := make([]string, 0, len(c.Alerts))
	for _, alert := range c.Alerts {
		if _, ok := seen[alert.Service]; ok {
			continue
		}
		seen[alert.Service] = struct{}{}
		services = append(services, alert.Service)
	}
	return services
}

// AssessImpact computes the impact snapshot for a set of alerts.
func AssessImpact(alerts []*Alert) ImpactAssessment {
	services := make(map[string]struct{})
	hosts := make(map[string]struct{})
	breakdown := make(map[string]int)

	serviceList := make([]string, 0, len(alerts))
	hostList := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		if _, ok := services[alert.Service]; !ok {
			services[alert.Service] = struct{}{}
			serviceList = append(serviceList, alert.Service)
		}
		if _, ok := hosts[alert.Host]; !ok {
			hosts[alert.Host] = struct{}{}
			hostList = append(hostList, alert.Host)
		}
		breakdown[string(alert.Severity)]++
	}

	return ImpactAssessment{
		AffectedServices:  len(services),
		AffectedHosts:     len(hosts),
		TotalAlerts:       len(alerts),
		SeverityBreakdown: breakdown,
		Services:          serviceList,
		Hosts:             hostList,
	}
}
