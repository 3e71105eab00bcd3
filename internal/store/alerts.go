package store

import (
	"sync"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
)

// DefaultAlertCapacity bounds the in-memory alert window.
const DefaultAlertCapacity = 10000

// AlertStore is a bounded, time-ordered collection of ingested alerts.
// It owns the canonical alert records; clusters hold references into the
// same backing objects. Oldest alerts are evicted first once capacity is
// reached.
type AlertStore struct {
	mu       sync.RWMutex
	alerts   []*models.Alert
	byID     map[string]*models.Alert
	capacity int
}

// NewAlertStore creates a store with the given capacity. Non-positive
// capacities fall back to DefaultAlertCapacity.
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = DefaultAlertCapacity
	}
	return &AlertStore{
		alerts:   make([]*models.Alert, 0, capacity),
		byID:     make(map[string]*models.Alert, capacity),
		capacity: capacity,
	}
}

// Add appends an alert, computing its fingerprint when absent and evicting
// the oldest entry when the store is full.
func (s *AlertStore) Add(alert *models.Alert) {
	if alert.Fingerprint == "" {
		alert.Fingerprint = Fingerprint(alert.Service, alert.Host, alert.Title)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.alerts) >= s.capacity {
		evicted := s.alerts[0]
		s.alerts = s.alerts[1:]
		delete(s.byID, evicted.ID)
	}
	s.alerts = append(s.alerts, alert)
	s.byID[alert.ID] = alert
}

// Get returns the alert with the given id if it is still retained.
func (s *AlertStore) Get(id string) (*models.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alert, ok := s.byID[id]
	return alert, ok
}

// Len returns the number of retained alerts.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// UpdateStatus transitions an alert's status, recording resolution and
// acknowledgement metadata. Returns false when the id is unknown, which is
// a zero-effect outcome rather than an error: alerts legitimately expire
// from the bounded store before late status updates arrive.
func (s *AlertStore) UpdateStatus(id string, status models.Status, resolvedAt *time.Time, acknowledgedBy string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.byID[id]
	if !ok {
		return false
	}

	alert.Status = status
	switch status {
	case models.StatusResolved:
		if resolvedAt != nil {
			alert.ResolvedAt = resolvedAt
		}
	case models.StatusAcknowledged:
		now := time.Now().UTC()
		alert.AcknowledgedAt = &now
		alert.AcknowledgedBy = acknowledgedBy
	}
	return true
}

// SetCorrelationID records the cluster an alert belongs to. Assignment
// happens under the store lock so the batch commit, the micro-correlation
// worker, and readers never touch the field unsynchronized. Returns true
// when this was the alert's first assignment; unknown ids are ignored.
func (s *AlertStore) SetCorrelationID(id, clusterID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.byID[id]
	if !ok {
		return false
	}
	first := alert.CorrelationID == ""
	alert.CorrelationID = clusterID
	return first
}

// CorrelationID reads an alert's cluster assignment, empty when the alert
// is unknown or not yet correlated.
func (s *AlertStore) CorrelationID(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if alert, ok := s.byID[id]; ok {
		return alert.CorrelationID
	}
	return ""
}

// FiringBetween returns alerts with status firing whose timestamps fall in
// [start, end]. The returned slice shares alert references with the store.
func (s *AlertStore) FiringBetween(start, end time.Time) []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Alert, 0)
	for _, alert := range s.alerts {
		if alert.Status != models.StatusFiring {
			continue
		}
		if alert.Timestamp.Before(start) || alert.Timestamp.After(end) {
			continue
		}
		matched = append(matched, alert)
	}
	return matched
}

// Between returns all alerts regardless of status whose timestamps fall in
// [start, end].
func (s *AlertStore) Between(start, end time.Time) []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Alert, 0)
	for _, alert := range s.alerts {
		if alert.Timestamp.Before(start) || alert.Timestamp.After(end) {
			continue
		}
		matched = append(matched, alert)
	}
	return matched
}

// ServiceHistory returns alerts for a service newer than the cutoff.
func (s *AlertStore) ServiceHistory(service string, since time.Time) []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Alert, 0)
	for _, alert := range s.alerts {
		if alert.Service != service || alert.Timestamp.Before(since) {
			continue
		}
		matched = append(matched, alert)
	}
	return matched
}

// Similar returns alerts within the lookback before the reference alert's
// timestamp that satisfy the similarity predicate. Used by single-alert
// micro-correlation.
func (s *AlertStore) Similar(ref *models.Alert, lookback time.Duration, similar func(a, b *models.Alert) bool) []*models.Alert {
	cutoff := ref.Timestamp.Add(-lookback)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Alert, 0)
	for _, alert := range s.alerts {
		if alert.ID == ref.ID || alert.Timestamp.Before(cutoff) {
			continue
		}
		if similar(ref, alert) {
			matched = append(matched, alert)
		}
	}
	return matched
}
