package engine

import (
	"context"
	"sort"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// temporalCandidates partitions the window into runs of temporally close
// alerts: consecutive gaps above the configured maximum break the run.
func (e *Engine) temporalCandidates(_ context.Context, alerts []*models.Alert) ([]candidate, error) {
	maxGap := e.cfg.TemporalGap
	minAlerts := 2
	if rule, ok := e.ruleFor(models.CorrelationTemporal); ok {
		maxGap = time.Duration(intCondition(rule, "max_gap_seconds", int(maxGap.Seconds()))) * time.Second
		minAlerts = intCondition(rule, "min_alerts", minAlerts)
		if minAlerts < 2 {
			minAlerts = 2
		}
	}

	sorted := append([]*models.Alert(nil), alerts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	candidates := make([]candidate, 0)
	run := make([]*models.Alert, 0)
	flush := func() {
		if len(run) >= minAlerts {
			candidates = append(candidates, candidate{
				alerts:     append([]*models.Alert(nil), run...),
				ctype:      models.CorrelationTemporal,
				confidence: temporalConfidence(run),
			})
		}
		run = run[:0]
	}

	for _, alert := range sorted {
		if len(run) > 0 && alert.Timestamp.Sub(run[len(run)-1].Timestamp) > maxGap {
			flush()
		}
		run = append(run, alert)
	}
	flush()

	return candidates, nil
}

// temporalConfidence scores a run: smaller and steadier gaps score higher.
// Gaps are normalized against 300s; high gap variance is penalized. The
// result is bounded to [0.1, 1].
func temporalConfidence(alerts []*models.Alert) float64 {
	if len(alerts) < 2 {
		return 0
	}

	gaps := make([]float64, 0, len(alerts)-1)
	for i := 1; i < len(alerts); i++ {
		gaps = append(gaps, alerts[i].Timestamp.Sub(alerts[i-1].Timestamp).Seconds())
	}

	avg := utils.Mean(gaps)
	std := utils.StdDev(gaps)

	confidence := 1.0 - avg/300
	if confidence < 0.1 {
		confidence = 0.1
	}
	if std > 0 && avg > 0 {
		penalty := 1.0 - std/avg
		if penalty < 0.1 {
			penalty = 0.1
		}
		confidence *= penalty
	}

	return utils.Clamp(confidence, 0.1, 1)
}
