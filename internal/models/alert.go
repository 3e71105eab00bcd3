package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity captures alert impact levels.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityUnknown  Severity = "unknown"
)

var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityWarning:  2,
	SeverityInfo:     1,
	SeverityUnknown:  0,
}

// ParseSeverity validates a severity string. Unknown values are rejected,
// not coerced, so malformed alerts fail at the boundary.
func ParseSeverity(value string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := severityRank[s]; !ok {
		return "", fmt.Errorf("invalid severity %q", value)
	}
	return s, nil
}

// Weight returns the impact weight used for severity scoring.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Rank orders severities: critical > warning > info > unknown.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Status tracks the alert lifecycle.
type Status string

const (
	StatusFiring       Status = "firing"
	StatusResolved     Status = "resolved"
	StatusAcknowledged Status = "acknowledged"
	StatusSuppressed   Status = "suppressed"
)

var validStatus = map[Status]struct{}{
	StatusFiring:       {},
	StatusResolved:     {},
	StatusAcknowledged: {},
	StatusSuppressed:   {},
}

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := validStatus[s]; !ok {
		return "", fmt.Errorf("invalid status %q", value)
	}
	return s, nil
}

// Alert is a single monitoring event. Identity and content are immutable
// after ingestion; only Status, the resolution/acknowledgement fields and
// CorrelationID are mutated in place by the engine.
type Alert struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Service        string            `json:"service"`
	Host           string            `json:"host"`
	Severity       Severity          `json:"severity"`
	Status         Status            `json:"status"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Labels         map[string]string `json:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty"`
	Fingerprint    string            `json:"fingerprint"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	AcknowledgedAt *time.Time        `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string            `json:"acknowledged_by,omitempty"`
	CorrelationID  string            `json:"correlation_id,omitempty"`
}

// NewAlertID returns a fresh alert identifier for sources that do not
// supply their own.
func NewAlertID() string {
	return uuid.NewString()
}

// Validate rejects alerts with malformed enum values or a missing id.
func (a *Alert) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("alert id is required")
	}
	if _, err := ParseSeverity(string(a.Severity)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(a.Status)); err != nil {
		return err
	}
	return nil
}

// SignatureKey is the service:title key used by noise detection.
func (a *Alert) SignatureKey() string {
	return a.Service + ":" + a.Title
}
