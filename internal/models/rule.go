package models

import (
	"strings"
	"time"
)

// CorrelationRule is declarative strategy policy. Rules seed strategy
// parameters (windows, minimum group sizes); they do not execute matching
// themselves.
type CorrelationRule struct {
	ID                  string            `json:"id" yaml:"id"`
	Name                string            `json:"name" yaml:"name"`
	Description         string            `json:"description" yaml:"description"`
	CorrelationType     CorrelationType   `json:"correlation_type" yaml:"correlation_type"`
	Conditions          map[string]string `json:"conditions" yaml:"conditions"`
	TimeWindow          time.Duration     `json:"time_window" yaml:"time_window"`
	ConfidenceThreshold float64           `json:"confidence_threshold" yaml:"confidence_threshold"`
	Enabled             bool              `json:"enabled" yaml:"enabled"`
	CreatedAt           time.Time         `json:"created_at" yaml:"-"`
}

// PatternSpec is a learned alert pattern consulted by the pattern
// strategy. Empty fields match anything.
type PatternSpec struct {
	ID            string  `json:"id"`
	Service       string  `json:"service,omitempty"`
	TitleContains string  `json:"title_contains,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// Matches reports whether an alert satisfies the pattern.
func (p PatternSpec) Matches(alert *Alert) bool {
	if p.Service != "" && p.Service != alert.Service {
		return false
	}
	if p.TitleContains != "" && !strings.Contains(alert.Title, p.TitleContains) {
		return false
	}
	return true
}
