package engine

import (
	"context"

	"github.com/alertmesh/correlation-engine/internal/models"
)

const defaultPatternConfidence = 0.5

// patternCandidates matches alerts against learned pattern specs. Each
// spec that matches two or more alerts yields a candidate carrying the
// pattern's stored confidence.
func (e *Engine) patternCandidates(_ context.Context, alerts []*models.Alert) ([]candidate, error) {
	e.mu.RLock()
	specs := append([]models.PatternSpec(nil), e.patterns...)
	e.mu.RUnlock()

	candidates := make([]candidate, 0)
	for _, spec := range specs {
		matched := make([]*models.Alert, 0)
		for _, alert := range alerts {
			if spec.Matches(alert) {
				matched = append(matched, alert)
			}
		}
		if len(matched) < 2 {
			continue
		}
		confidence := spec.Confidence
		if confidence <= 0 {
			confidence = defaultPatternConfidence
		}
		candidates = append(candidates, candidate{
			alerts:     matched,
			ctype:      models.CorrelationPattern,
			confidence: confidence,
		})
	}
	return candidates, nil
}
