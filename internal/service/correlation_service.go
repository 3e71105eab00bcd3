// Package service provides the orchestration facade between the HTTP API
// and the correlation engine, analysis, and topology layers.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alertmesh/correlation-engine/internal/analysis"
	"github.com/alertmesh/correlation-engine/internal/cache"
	"github.com/alertmesh/correlation-engine/internal/engine"
	"github.com/alertmesh/correlation-engine/internal/metrics"
	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/patterns"
	"github.com/alertmesh/correlation-engine/internal/repo"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// Options tunes the background maintenance loops.
type Options struct {
	// PatternInterval controls how often pattern detection re-runs
	// (default 1h).
	PatternInterval time.Duration
	// PatternLookback is the history window fed to pattern detection
	// (default 7 days).
	PatternLookback time.Duration
	// TopologyRefresh controls how often the dependency graph is
	// re-fetched (default 5m). Ignored when no topology client is set.
	TopologyRefresh time.Duration
	// Cache, when set, receives the latest pattern report so restarts
	// and sibling processes can read it without re-mining history.
	Cache cache.Provider
}

func (o Options) withDefaults() Options {
	if o.PatternInterval <= 0 {
		o.PatternInterval = time.Hour
	}
	if o.PatternLookback <= 0 {
		o.PatternLookback = 7 * 24 * time.Hour
	}
	if o.TopologyRefresh <= 0 {
		o.TopologyRefresh = 5 * time.Minute
	}
	return o
}

// CorrelationService is the facade the transport layer talks to.
type CorrelationService struct {
	logger    *slog.Logger
	engine    *engine.Engine
	analyzer  *analysis.Analyzer
	predictor *analysis.Predictor
	detector  *patterns.Detector
	topology  *repo.TopologyClient
	opts      Options
	latencies *utils.LatencyTracker
}

// New constructs the correlation service facade. topology may be nil when no
// upstream topology API is configured.
func New(logger *slog.Logger, eng *engine.Engine, topology *repo.TopologyClient, opts Options) *CorrelationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorrelationService{
		logger:    logger,
		engine:    eng,
		analyzer:  analysis.NewAnalyzer(eng, logger),
		predictor: analysis.NewPredictor(eng, logger),
		detector:  patterns.NewDetector(logger),
		topology:  topology,
		opts:      opts.withDefaults(),
		latencies: utils.NewLatencyTracker(1024),
	}
}

// IngestAlert validates and stores one alert.
func (s *CorrelationService) IngestAlert(alert *models.Alert) error {
	if err := s.engine.Ingest(alert); err != nil {
		metrics.ObserveIngest(metrics.OutcomeError)
		return err
	}
	if alert.Status == models.StatusSuppressed {
		metrics.ObserveIngest(metrics.OutcomeSuppressed)
	} else {
		metrics.ObserveIngest(metrics.OutcomeSuccess)
	}
	return nil
}

// UpdateAlertStatus transitions an alert's lifecycle status. A false return
// means the alert is unknown (possibly evicted) and nothing changed.
func (s *CorrelationService) UpdateAlertStatus(id string, status models.Status, resolvedAt *time.Time, acknowledgedBy string) bool {
	return s.engine.UpdateStatus(id, status, resolvedAt, acknowledgedBy)
}

// Correlate runs a batch correlation pass over the given window and returns
// the clusters committed by that pass.
func (s *CorrelationService) Correlate(ctx context.Context, window time.Duration) ([]*models.AlertCluster, error) {
	start := time.Now()
	clusters, err := s.engine.Correlate(ctx, window)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveCorrelationPass(duration, metrics.OutcomeError, 0)
		s.logger.Error("correlation pass failed", slog.Any("error", err))
		return nil, err
	}
	s.latencies.Observe(duration)
	metrics.ObserveCorrelationPass(duration, metrics.OutcomeSuccess, len(clusters))
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("correlation pass latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}
	return clusters, nil
}

// Cluster returns a single cluster by id.
func (s *CorrelationService) Cluster(id string) (*models.AlertCluster, bool) {
	return s.engine.Cluster(id)
}

// Clusters returns all stored clusters.
func (s *CorrelationService) Clusters() []*models.AlertCluster {
	return s.engine.Clusters()
}

// ResolveCluster closes a cluster. Unknown ids return false.
func (s *CorrelationService) ResolveCluster(id string) bool {
	return s.engine.ResolveCluster(id)
}

// Incident produces timeline, root cause, impact, and recommendations for a
// cluster.
func (s *CorrelationService) Incident(clusterID string) (models.IncidentAnalysis, error) {
	return s.analyzer.Analyze(clusterID)
}

// Predict estimates alert likelihood for a service over the given horizon.
func (s *CorrelationService) Predict(service string, horizon time.Duration) models.Prediction {
	return s.predictor.Predict(service, horizon)
}

const patternReportCacheKey = "patterns:latest"

// DetectPatterns re-learns recurring service patterns and the noise
// suppression set from recent history.
func (s *CorrelationService) DetectPatterns() models.PatternReport {
	report := s.engine.DetectPatterns(s.detector, s.opts.PatternLookback)
	if s.opts.Cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := s.opts.Cache.Set(ctx, patternReportCacheKey, payload, s.opts.PatternInterval); err != nil {
				s.logger.Warn("pattern report cache write failed", slog.Any("error", err))
			}
			cancel()
		}
	}
	return report
}

// Stats reports engine activity counters.
func (s *CorrelationService) Stats() models.EngineMetrics {
	return s.engine.Metrics()
}

// SetDependencies replaces the service topology directly, bypassing the
// topology client. Used by operators and tests.
func (s *CorrelationService) SetDependencies(dependencies map[string][]string) {
	s.engine.SetDependencies(dependencies)
}

// RefreshTopology fetches the dependency graph from the topology API and
// installs it into the engine.
func (s *CorrelationService) RefreshTopology(ctx context.Context) error {
	if s.topology == nil {
		return nil
	}
	deps, err := s.topology.FetchDependencies(ctx)
	if err != nil {
		return err
	}
	s.engine.SetDependencies(deps)
	return nil
}

// Run starts the engine worker and the periodic maintenance loops, blocking
// until ctx is cancelled.
func (s *CorrelationService) Run(ctx context.Context) {
	s.engine.Start(ctx)

	if err := s.RefreshTopology(ctx); err != nil {
		s.logger.Warn("initial topology refresh failed", slog.Any("error", err))
	}

	patternTicker := time.NewTicker(s.opts.PatternInterval)
	defer patternTicker.Stop()
	topologyTicker := time.NewTicker(s.opts.TopologyRefresh)
	defer topologyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-patternTicker.C:
			report := s.DetectPatterns()
			s.logger.Info("pattern detection completed",
				slog.Int("service_patterns", len(report.Patterns)),
				slog.Int("noise_patterns", len(report.NoisePatterns)))
		case <-topologyTicker.C:
			if err := s.RefreshTopology(ctx); err != nil {
				s.logger.Warn("topology refresh failed", slog.Any("error", err))
			}
		}
	}
}

// LatencyP95 returns the current p95 batch correlation latency.
func (s *CorrelationService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
