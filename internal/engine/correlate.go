package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// candidate is a pre-merge strategy result. Candidates become clusters
// only after the merge pass; correlation ids are assigned at commit.
type candidate struct {
	alerts     []*models.Alert
	ctype      models.CorrelationType
	confidence float64
}

// Correlate runs a batch correlation pass over the firing alerts inside
// the lookback window, merges overlapping candidates, and commits the
// resulting clusters. A pass superseded by a newer one discards its
// results at commit.
func (e *Engine) Correlate(ctx context.Context, window time.Duration) ([]*models.AlertCluster, error) {
	if window <= 0 {
		window = e.cfg.DefaultWindow
	}
	end := time.Now().UTC()
	start := end.Add(-window)

	recent := e.alerts.FiringBetween(start, end)
	if len(recent) < 2 {
		return nil, nil
	}

	e.genMu.Lock()
	e.generation++
	gen := e.generation
	e.genMu.Unlock()

	strategies := []struct {
		name string
		run  func(context.Context, []*models.Alert) ([]candidate, error)
	}{
		{"temporal", e.temporalCandidates},
		{"spatial", e.spatialCandidates},
		{"similarity", e.similarityCandidates},
		{"dependency", e.dependencyCandidates},
		{"pattern", e.patternCandidates},
	}

	// Strategies are side-effect-free over a shared snapshot, so they run
	// concurrently. Results are collected in declaration order to keep
	// merge tie-breaking deterministic.
	results := make([][]candidate, len(strategies))
	done := make(chan int, len(strategies))
	for i, strategy := range strategies {
		go func(idx int, name string, run func(context.Context, []*models.Alert) ([]candidate, error)) {
			defer func() { done <- idx }()

			strategyCtx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
			defer cancel()

			candidates, err := run(strategyCtx, recent)
			if err != nil {
				if errors.Is(err, utils.ErrStrategyUnavailable) || errors.Is(err, context.DeadlineExceeded) {
					e.logger.Warn("correlation strategy degraded",
						slog.String("strategy", name), slog.Any("error", err))
					return
				}
				e.logger.Error("correlation strategy failed",
					slog.String("strategy", name), slog.Any("error", err))
				return
			}
			results[idx] = candidates
		}(i, strategy.name, strategy.run)
	}
	for range strategies {
		<-done
	}

	all := make([]candidate, 0)
	for _, candidates := range results {
		all = append(all, candidates...)
	}

	merged := mergeCandidates(all)

	e.genMu.Lock()
	stale := e.generation != gen
	e.genMu.Unlock()
	if stale {
		e.logger.Debug("correlation pass superseded, discarding results",
			slog.Uint64("generation", gen))
		return nil, nil
	}

	clusters := make([]*models.AlertCluster, 0, len(merged))
	newlyCorrelated := 0
	for _, cand := range merged {
		cluster := e.buildCluster(cand)
		for _, alert := range cluster.Alerts {
			if e.alerts.SetCorrelationID(alert.ID, cluster.ID) {
				newlyCorrelated++
			}
		}
		e.clusters.Put(cluster)
		clusters = append(clusters, cluster)
	}

	e.stats.mu.Lock()
	e.stats.clustersCreated += len(clusters)
	e.stats.correlatedAlerts += newlyCorrelated
	e.stats.mu.Unlock()

	e.logger.Info("correlation pass complete",
		slog.Int("candidates", len(all)),
		slog.Int("clusters", len(clusters)),
		slog.Duration("window", window))
	return clusters, nil
}

// buildCluster materializes a merged candidate into a stored cluster with
// root-cause candidates and an impact snapshot.
func (e *Engine) buildCluster(cand candidate) *models.AlertCluster {
	return &models.AlertCluster{
		ID:                  newClusterID(),
		Alerts:              cand.alerts,
		CorrelationType:     cand.ctype,
		ConfidenceScore:     utils.Clamp(cand.confidence, 0, 1),
		RootCauseCandidates: e.rootCauseCandidates(cand.alerts, cand.ctype),
		ImpactAssessment:    models.AssessImpact(cand.alerts),
		CreatedAt:           time.Now().UTC(),
	}
}

// intCondition reads an integer rule condition, falling back when the key
// is absent or malformed.
func intCondition(rule models.CorrelationRule, key string, fallback int) int {
	raw, ok := rule.Conditions[key]
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
