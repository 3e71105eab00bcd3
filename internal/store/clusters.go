package store

import (
	"sync"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
)

// ClusterStore maps cluster id to cluster with an open/resolved lifecycle.
// Clusters are never auto-resolved when member alerts resolve; closure is
// an explicit operator action.
type ClusterStore struct {
	mu       sync.RWMutex
	clusters map[string]*models.AlertCluster
}

// NewClusterStore creates an empty cluster store.
func NewClusterStore() *ClusterStore {
	return &ClusterStore{clusters: make(map[string]*models.AlertCluster)}
}

// Put stores or replaces a cluster.
func (s *ClusterStore) Put(cluster *models.AlertCluster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[cluster.ID] = cluster
}

// Get returns the cluster with the given id.
func (s *ClusterStore) Get(id string) (*models.AlertCluster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cluster, ok := s.clusters[id]
	return cluster, ok
}

// Append adds an alert to an existing open cluster, skipping duplicates so
// a cluster never holds the same alert id twice. The caller records the
// alert's cluster assignment through the alert store, which owns that
// field's synchronization.
func (s *ClusterStore) Append(clusterID string, alert *models.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cluster, ok := s.clusters[clusterID]
	if !ok || cluster.ResolvedAt != nil {
		return false
	}
	for _, member := range cluster.Alerts {
		if member.ID == alert.ID {
			return false
		}
	}
	cluster.Alerts = append(cluster.Alerts, alert)
	cluster.ImpactAssessment = models.AssessImpact(cluster.Alerts)
	return true
}

// Resolve marks a cluster resolved. Returns false for unknown ids.
func (s *ClusterStore) Resolve(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cluster, ok := s.clusters[id]
	if !ok {
		return false
	}
	if cluster.ResolvedAt == nil {
		resolved := at
		cluster.ResolvedAt = &resolved
	}
	return true
}

// Active returns the number of unresolved clusters.
func (s *ClusterStore) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, cluster := range s.clusters {
		if cluster.ResolvedAt == nil {
			count++
		}
	}
	return count
}

// All returns a snapshot slice of every stored cluster.
func (s *ClusterStore) All() []*models.AlertCluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clusters := make([]*models.AlertCluster, 0, len(s.clusters))
	for _, cluster := range s.clusters {
		clusters = append(clusters, cluster)
	}
	return clusters
}
