package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClusterSeverityIsMax(t *testing.T) {
	cluster := AlertCluster{Alerts: []*Alert{
		{ID: "a", Severity: SeverityInfo},
		{ID: "b", Severity: SeverityCritical},
		{ID: "c", Severity: SeverityWarning},
	}}
	assert.Equal(t, SeverityCritical, cluster.Severity())

	empty := AlertCluster{}
	assert.Equal(t, SeverityUnknown, empty.Severity())
}

func TestClusterServicesFirstSeenOrder(t *testing.T) {
	cluster := AlertCluster{Alerts: []*Alert{
		{ID: "a", Service: "web"},
		{ID: "b", Service: "api"},
		{ID: "c", Service: "web"},
		{ID: "d", Service: "db"},
	}}
	assert.Equal(t, []string{"web", "api", "db"}, cluster.Services())
	assert.Equal(t, []string{"a", "b", "c", "d"}, cluster.AlertIDs())
}

func TestAssessImpact(t *testing.T) {
	impact := AssessImpact([]*Alert{
		{ID: "a", Service: "web", Host: "h1", Severity: SeverityCritical},
		{ID: "b", Service: "api", Host: "h1", Severity: SeverityWarning},
		{ID: "c", Service: "api", Host: "h2", Severity: SeverityWarning},
	})

	assert.Equal(t, 2, impact.AffectedServices)
	assert.Equal(t, 2, impact.AffectedHosts)
	assert.Equal(t, 3, impact.TotalAlerts)
	assert.Equal(t, 1, impact.SeverityBreakdown["critical"])
	assert.Equal(t, 2, impact.SeverityBreakdown["warning"])
	assert.Equal(t, []string{"web", "api"}, impact.Services)
}
