package engine

import (
	"github.com/alertmesh/correlation-engine/internal/models"
)

// rootCauseCandidates applies strategy-specific origin heuristics. The
// result is never empty: absent evidence yields the single entry
// "unknown".
func (e *Engine) rootCauseCandidates(alerts []*models.Alert, ctype models.CorrelationType) []string {
	candidates := make([]string, 0)

	switch ctype {
	case models.CorrelationDependency:
		// Services with no upstream dependency of their own are the
		// likeliest origin of a cascade.
		graph := e.Graph()
		if graph != nil {
			seen := make(map[string]struct{})
			for _, alert := range alerts {
				if _, ok := seen[alert.Service]; ok {
					continue
				}
				seen[alert.Service] = struct{}{}
				if graph.IsRoot(alert.Service) {
					candidates = append(candidates, alert.Service)
				}
			}
		}

	case models.CorrelationTemporal:
		earliest := alerts[0]
		for _, alert := range alerts[1:] {
			if alert.Timestamp.Before(earliest.Timestamp) {
				earliest = alert
			}
		}
		candidates = append(candidates, earliest.Service+":"+earliest.Host)

	case models.CorrelationSpatial:
		candidates = append(candidates, "network", "infrastructure", "hardware")
	}

	if len(candidates) == 0 {
		return []string{"unknown"}
	}
	return candidates
}
