package engine

import (
	"context"
	"fmt"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/similarity"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// similarityCandidates clusters alerts by textual content (title plus
// description). The clusterer is a pluggable capability: when it is
// missing or fails, the strategy degrades to an empty result and the
// batch pass continues without it.
func (e *Engine) similarityCandidates(ctx context.Context, alerts []*models.Alert) ([]candidate, error) {
	if e.clusterer == nil {
		return nil, fmt.Errorf("no similarity clusterer configured: %w", utils.ErrStrategyUnavailable)
	}
	if len(alerts) < 2 {
		return nil, nil
	}

	texts := make([]string, len(alerts))
	for i, alert := range alerts {
		texts[i] = alert.Title + " " + alert.Description
	}

	type outcome struct {
		groups [][]int
		sim    [][]float64
		err    error
	}
	result := make(chan outcome, 1)
	go func() {
		groups, sim, err := e.clusterer.Cluster(texts)
		result <- outcome{groups: groups, sim: sim, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("similarity clustering timed out: %w", utils.ErrStrategyUnavailable)
	case out := <-result:
		if out.err != nil {
			return nil, fmt.Errorf("similarity clustering: %v: %w", out.err, utils.ErrStrategyUnavailable)
		}
		candidates := make([]candidate, 0, len(out.groups))
		for _, group := range out.groups {
			if len(group) < 2 {
				continue
			}
			members := make([]*models.Alert, 0, len(group))
			for _, idx := range group {
				members = append(members, alerts[idx])
			}
			candidates = append(candidates, candidate{
				alerts:     members,
				ctype:      models.CorrelationSimilarity,
				confidence: utils.Clamp(similarity.GroupMeanSimilarity(out.sim, group), 0, 1),
			})
		}
		return candidates, nil
	}
}
