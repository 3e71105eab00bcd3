package analysis

import (
	"log/slog"
	"sort"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// Prediction thresholds: a service needs a month of history with at least
// this many alerts before any score is produced.
const (
	predictionMinSamples = 10
	predictionLookback   = 30 * 24 * time.Hour
)

// HistorySource exposes per-service alert history.
type HistorySource interface {
	ServiceHistory(service string, since time.Time) []*models.Alert
}

// Predictor estimates near-future alert likelihood for a service from
// historical temporal and frequency patterns.
type Predictor struct {
	source HistorySource
	logger *slog.Logger
	// now is swappable for tests.
	now func() time.Time
}

// NewPredictor constructs a Predictor.
func NewPredictor(source HistorySource, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{source: source, logger: logger, now: time.Now}
}

// Predict scores the likelihood of alerts for the service inside the
// horizon. With fewer than ten samples in the last 30 days it returns a
// deterministic insufficient-data result, never a numeric score.
func (p *Predictor) Predict(service string, horizon time.Duration) models.Prediction {
	if horizon <= 0 {
		horizon = time.Hour
	}
	now := p.now().UTC()
	history := p.source.ServiceHistory(service, now.Add(-predictionLookback))

	if len(history) < predictionMinSamples {
		return models.Prediction{
			Service:          service,
			TimeHorizon:      horizon,
			InsufficientData: true,
		}
	}

	peakHour, hasPeak := peakAlertHour(history)
	avgInterval, stdInterval := intervalStats(history)

	score := 0.0
	if isRegular(avgInterval, stdInterval) {
		score += 0.3
	}
	if avgInterval > 0 {
		perHour := 3600 / avgInterval
		contribution := perHour / 10
		if contribution > 0.4 {
			contribution = 0.4
		}
		score += contribution
	}
	if hasPeak && hourProximity(now.Hour(), peakHour) <= 2 {
		score += 0.3
	}

	prediction := models.Prediction{
		Service:            service,
		TimeHorizon:        horizon,
		PredictionScore:    utils.Clamp(score, 0, 1),
		Confidence:         predictionConfidence(history, now),
		ExpectedAlertTypes: expectedAlertTypes(history),
		RiskFactors:        riskFactors(history),
	}
	p.logger.Debug("alert prediction computed",
		slog.String("service", service),
		slog.Float64("score", prediction.PredictionScore))
	return prediction
}

func intervalStats(history []*models.Alert) (avg, std float64) {
	timestamps := make([]time.Time, 0, len(history))
	for _, alert := range history {
		timestamps = append(timestamps, alert.Timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	intervals := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		intervals = append(intervals, timestamps[i].Sub(timestamps[i-1]).Seconds())
	}
	return utils.Mean(intervals), utils.StdDev(intervals)
}

// isRegular treats interval spread below 30% of the mean as a regular
// cadence.
func isRegular(avg, std float64) bool {
	return avg > 0 && std < avg*0.3
}

func peakAlertHour(history []*models.Alert) (int, bool) {
	counts := make(map[int]int)
	for _, alert := range history {
		counts[alert.Timestamp.Hour()]++
	}
	peak, best := 0, 0
	for hour, count := range counts {
		if count > best || (count == best && hour < peak) {
			peak, best = hour, count
		}
	}
	return peak, best > 0
}

func hourProximity(current, peak int) int {
	diff := current - peak
	if diff < 0 {
		diff = -diff
	}
	if wrapped := 24 - diff; wrapped < diff {
		return wrapped
	}
	return diff
}

// predictionConfidence grows with sample size (capped at 0.9) and shrinks
// when most samples are stale.
func predictionConfidence(history []*models.Alert, now time.Time) float64 {
	base := float64(len(history)) / 100
	if base > 0.9 {
		base = 0.9
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	recent := 0
	for _, alert := range history {
		if !alert.Timestamp.Before(weekAgo) {
			recent++
		}
	}
	recency := float64(recent) / float64(len(history))
	return base * (0.5 + 0.5*recency)
}

func expectedAlertTypes(history []*models.Alert) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, alert := range history {
		if _, ok := counts[alert.Title]; !ok {
			order = append(order, alert.Title)
		}
		counts[alert.Title]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 5 {
		order = order[:5]
	}
	return order
}

func riskFactors(history []*models.Alert) []string {
	factors := make([]string, 0, 3)
	if len(history) > 50 {
		factors = append(factors, "High alert frequency")
	}

	critical := 0
	hosts := make(map[string]struct{})
	for _, alert := range history {
		if alert.Severity == models.SeverityCritical {
			critical++
		}
		hosts[alert.Host] = struct{}{}
	}
	if critical > 5 {
		factors = append(factors, "Frequent critical alerts")
	}
	if len(hosts) > 10 {
		factors = append(factors, "Multiple hosts affected")
	}
	return factors
}
