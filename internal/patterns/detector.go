// Package patterns mines recurring alert cadences from history. Detected
// periodic patterns become PatternSpecs consulted by the pattern
// correlation strategy.
package patterns

import (
	"log/slog"
	"sort"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// Periodicity thresholds: intervals count as regular when their spread is
// below 30% of the mean, and only sub-daily cadences are interesting.
const (
	minOccurrences    = 5
	regularityRatio   = 0.3
	maxPeriodicSecond = 86400
)

// Detector mines per-service periodic patterns from alert history.
type Detector struct {
	logger *slog.Logger
}

// NewDetector constructs a Detector.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// Detect groups alerts by service and reports services whose alerts recur
// at a regular sub-daily interval.
func (d *Detector) Detect(alerts []*models.Alert) []models.ServicePattern {
	byService := make(map[string][]*models.Alert)
	for _, alert := range alerts {
		byService[alert.Service] = append(byService[alert.Service], alert)
	}

	detected := make([]models.ServicePattern, 0)
	for service, serviceAlerts := range byService {
		if len(serviceAlerts) < minOccurrences {
			continue
		}
		if pattern, ok := analyzeService(service, serviceAlerts); ok {
			detected = append(detected, pattern)
		}
	}

	sort.Slice(detected, func(i, j int) bool {
		return detected[i].Confidence > detected[j].Confidence
	})
	if len(detected) > 0 {
		d.logger.Debug("periodic patterns detected", slog.Int("count", len(detected)))
	}
	return detected
}

// Specs converts detected patterns into PatternSpecs for the pattern
// correlation strategy.
func (d *Detector) Specs(detected []models.ServicePattern) []models.PatternSpec {
	specs := make([]models.PatternSpec, 0, len(detected))
	for _, pattern := range detected {
		confidence := utils.Clamp(pattern.Confidence, 0, 1)
		if confidence == 0 {
			confidence = 0.5
		}
		specs = append(specs, models.PatternSpec{
			ID:         "pattern-" + pattern.Service,
			Service:    pattern.Service,
			Confidence: confidence,
		})
	}
	return specs
}

func analyzeService(service string, alerts []*models.Alert) (models.ServicePattern, bool) {
	timestamps := make([]time.Time, 0, len(alerts))
	for _, alert := range alerts {
		timestamps = append(timestamps, alert.Timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	intervals := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		intervals = append(intervals, timestamps[i].Sub(timestamps[i-1]).Seconds())
	}
	if len(intervals) == 0 {
		return models.ServicePattern{}, false
	}

	avg := utils.Mean(intervals)
	std := utils.StdDev(intervals)

	periodic := std < avg*regularityRatio
	if !periodic || avg >= maxPeriodicSecond || avg <= 0 {
		return models.ServicePattern{}, false
	}

	return models.ServicePattern{
		Service:         service,
		Type:            "periodic",
		AverageInterval: avg,
		IntervalStdDev:  std,
		Occurrences:     len(alerts),
		Confidence:      1 - std/avg,
	}, true
}
