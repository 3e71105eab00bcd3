// Package engine implements the alert correlation core: bounded alert
// ingestion, five independent correlation strategies, cluster merging and
// commit, noise suppression, and the single-alert micro-correlation worker.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alertmesh/correlation-engine/internal/depgraph"
	"github.com/alertmesh/correlation-engine/internal/models"
	"github.com/alertmesh/correlation-engine/internal/similarity"
	"github.com/alertmesh/correlation-engine/internal/store"
	"github.com/alertmesh/correlation-engine/internal/utils"
)

// Config tunes the engine. Zero values fall back to the documented
// defaults.
type Config struct {
	// AlertCapacity bounds the alert store (default 10000).
	AlertCapacity int
	// MicroQueueSize bounds the micro-correlation queue (default 1024).
	// A full queue drops the micro-correlation, never the alert.
	MicroQueueSize int
	// StrategyTimeout bounds each strategy evaluation in a batch pass
	// (default 5s). A timed-out strategy degrades to an empty result.
	StrategyTimeout time.Duration
	// DefaultWindow is the batch correlation lookback (default 15m).
	DefaultWindow time.Duration
	// TemporalGap is the maximum gap between consecutive alerts in one
	// temporal run (default 2m).
	TemporalGap time.Duration
	// MicroLookback is the micro-correlation similarity window (default 5m).
	MicroLookback time.Duration
}

func (c Config) withDefaults() Config {
	if c.AlertCapacity <= 0 {
		c.AlertCapacity = store.DefaultAlertCapacity
	}
	if c.MicroQueueSize <= 0 {
		c.MicroQueueSize = 1024
	}
	if c.StrategyTimeout <= 0 {
		c.StrategyTimeout = 5 * time.Second
	}
	if c.DefaultWindow <= 0 {
		c.DefaultWindow = 15 * time.Minute
	}
	if c.TemporalGap <= 0 {
		c.TemporalGap = 2 * time.Minute
	}
	if c.MicroLookback <= 0 {
		c.MicroLookback = 5 * time.Minute
	}
	return c
}

type stats struct {
	mu               sync.Mutex
	totalAlerts      int
	correlatedAlerts int
	clustersCreated  int
	noiseSuppressed  int
}

// Engine is the correlation engine context object. Construct one per
// process (or per test); there is no package-level instance.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	alerts   *store.AlertStore
	clusters *store.ClusterStore

	clusterer similarity.Clusterer
	noise     *NoiseDetector

	mu       sync.RWMutex
	rules    map[string]models.CorrelationRule
	graph    *depgraph.Graph
	patterns []models.PatternSpec

	stats stats

	microQueue chan string
	generation uint64
	genMu      sync.Mutex
}

// New constructs an Engine. A nil clusterer disables the similarity
// strategy (it degrades to empty results with a warning).
func New(cfg Config, logger *slog.Logger, clusterer similarity.Clusterer) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:        cfg,
		logger:     logger,
		alerts:     store.NewAlertStore(cfg.AlertCapacity),
		clusters:   store.NewClusterStore(),
		clusterer:  clusterer,
		noise:      NewNoiseDetector(),
		rules:      make(map[string]models.CorrelationRule),
		microQueue: make(chan string, cfg.MicroQueueSize),
	}
	e.registerDefaultRules()
	return e
}

// Start runs the micro-correlation worker until ctx is cancelled. Alerts
// are processed in ingestion order by a single goroutine, so no two
// micro-correlations mutate cluster state concurrently.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case id := <-e.microQueue:
				e.microCorrelate(id)
			}
		}
	}()
}

// Ingest validates and stores an alert, consults the noise suppression
// set, and schedules micro-correlation. Only malformed enum values are
// rejected.
func (e *Engine) Ingest(alert *models.Alert) error {
	if err := alert.Validate(); err != nil {
		return utils.NewAppError("engine.Ingest", err.Error(), utils.ErrInvalidInput)
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	suppressed := e.noise.IsNoise(alert)
	if suppressed {
		alert.Status = models.StatusSuppressed
	}

	e.alerts.Add(alert)

	e.stats.mu.Lock()
	e.stats.totalAlerts++
	if suppressed {
		e.stats.noiseSuppressed++
	}
	e.stats.mu.Unlock()

	if !suppressed {
		select {
		case e.microQueue <- alert.ID:
		default:
			// Queue saturated: skip micro-correlation, keep ingesting.
			e.logger.Warn("micro-correlation queue full", slog.String("alert_id", alert.ID))
		}
	}

	e.logger.Debug("alert ingested",
		slog.String("alert_id", alert.ID),
		slog.String("service", alert.Service),
		slog.Bool("suppressed", suppressed))
	return nil
}

// UpdateStatus transitions an alert's status. Unknown ids report a
// zero-effect outcome (false), not an error, because alerts can expire
// from the bounded store before the update arrives.
func (e *Engine) UpdateStatus(id string, status models.Status, resolvedAt *time.Time, acknowledgedBy string) bool {
	return e.alerts.UpdateStatus(id, status, resolvedAt, acknowledgedBy)
}

// SetDependencies replaces the service dependency topology.
func (e *Engine) SetDependencies(dependencies map[string][]string) {
	graph := depgraph.New(dependencies)
	e.mu.Lock()
	e.graph = graph
	e.mu.Unlock()
	e.logger.Info("service dependencies updated", slog.Int("services", len(dependencies)))
}

// RegisterRule registers or replaces a correlation rule.
func (e *Engine) RegisterRule(rule models.CorrelationRule) {
	e.mu.Lock()
	e.rules[rule.ID] = rule
	e.mu.Unlock()
	e.logger.Info("correlation rule registered", slog.String("rule", rule.Name))
}

// SetPatterns replaces the learned pattern specs used by the pattern
// strategy.
func (e *Engine) SetPatterns(specs []models.PatternSpec) {
	e.mu.Lock()
	e.patterns = append([]models.PatternSpec(nil), specs...)
	e.mu.Unlock()
}

// Cluster returns a stored cluster by id.
func (e *Engine) Cluster(id string) (*models.AlertCluster, bool) {
	return e.clusters.Get(id)
}

// Clusters returns a snapshot of all stored clusters.
func (e *Engine) Clusters() []*models.AlertCluster {
	return e.clusters.All()
}

// ResolveCluster marks a cluster resolved. Unknown ids return false.
func (e *Engine) ResolveCluster(id string) bool {
	return e.clusters.Resolve(id, time.Now().UTC())
}

// AlertHistory exposes alerts in a window; read-only consumers (incident
// analysis, prediction, pattern detection) use it.
func (e *Engine) AlertHistory(start, end time.Time) []*models.Alert {
	return e.alerts.Between(start, end)
}

// ServiceHistory exposes a service's recent alerts.
func (e *Engine) ServiceHistory(service string, since time.Time) []*models.Alert {
	return e.alerts.ServiceHistory(service, since)
}

// Graph returns the current dependency graph, possibly nil.
func (e *Engine) Graph() *depgraph.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// ReduceNoise filters out alerts matching known noise signatures. The
// suppression set itself is only mutated by DetectPatterns.
func (e *Engine) ReduceNoise(alerts []*models.Alert) []*models.Alert {
	kept, suppressed := e.noise.Reduce(alerts)
	if suppressed > 0 {
		e.stats.mu.Lock()
		e.stats.noiseSuppressed += suppressed
		e.stats.mu.Unlock()
	}
	return kept
}

// Metrics reports correlation activity counters.
func (e *Engine) Metrics() models.EngineMetrics {
	e.stats.mu.Lock()
	total := e.stats.totalAlerts
	correlated := e.stats.correlatedAlerts
	created := e.stats.clustersCreated
	suppressed := e.stats.noiseSuppressed
	e.stats.mu.Unlock()

	var correlationRate, noiseRate float64
	if total > 0 {
		correlationRate = float64(correlated) / float64(total) * 100
		noiseRate = float64(suppressed) / float64(total) * 100
	}

	e.mu.RLock()
	ruleCount := len(e.rules)
	e.mu.RUnlock()

	return models.EngineMetrics{
		TotalAlerts:        total,
		CorrelatedAlerts:   correlated,
		CorrelationRate:    correlationRate,
		ClustersCreated:    created,
		NoiseSuppressed:    suppressed,
		NoiseReductionRate: noiseRate,
		ActiveClusters:     e.clusters.Active(),
		CorrelationRules:   ruleCount,
	}
}

// ruleFor returns the first enabled rule of the given correlation type.
func (e *Engine) ruleFor(ctype models.CorrelationType) (models.CorrelationRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, rule := range e.rules {
		if rule.Enabled && rule.CorrelationType == ctype {
			return rule, true
		}
	}
	return models.CorrelationRule{}, false
}

func (e *Engine) registerDefaultRules() {
	now := time.Now().UTC()
	defaults := []models.CorrelationRule{
		{
			ID:              "service_cascade",
			Name:            "Service Cascade Correlation",
			Description:     "Correlate alerts cascading through service dependencies",
			CorrelationType: models.CorrelationDependency,
			Conditions: map[string]string{
				"max_time_gap_seconds": "300",
				"min_services":         "2",
			},
			TimeWindow:          10 * time.Minute,
			ConfidenceThreshold: 0.7,
			Enabled:             true,
			CreatedAt:           now,
		},
		{
			ID:              "alert_burst",
			Name:            "Alert Burst Correlation",
			Description:     "Correlate rapid succession of related alerts",
			CorrelationType: models.CorrelationTemporal,
			Conditions: map[string]string{
				"max_gap_seconds": "120",
				"min_alerts":      "2",
			},
			TimeWindow:          5 * time.Minute,
			ConfidenceThreshold: 0.8,
			Enabled:             true,
			CreatedAt:           now,
		},
	}
	for _, rule := range defaults {
		e.rules[rule.ID] = rule
	}
}

// newClusterID returns a fresh cluster identifier.
func newClusterID() string {
	return uuid.NewString()
}
