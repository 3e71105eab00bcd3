package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/alertmesh/correlation-engine/internal/cache"
)

const topologyCacheKey = "topology:service-graph"

// ServiceGraphEdge represents a dependency edge between two services. Source
// calls Target, so Target is an upstream dependency of Source.
type ServiceGraphEdge struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	CallRate  float64 `json:"call_rate"`
	ErrorRate float64 `json:"error_rate"`
}

// TopologyClient fetches the service dependency graph from the topology API
// and caches the flattened upstream map between refreshes.
type TopologyClient struct {
	baseURL    string
	graphPath  string
	httpClient *http.Client
	cache      cache.Provider
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewTopologyClient constructs a client targeting the configured topology endpoint.
func NewTopologyClient(baseURL, graphPath string, timeout time.Duration, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *TopologyClient {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TopologyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		graphPath:  graphPath,
		httpClient: &http.Client{Timeout: timeout},
		cache:      provider,
		cacheTTL:   ttl,
		logger:     logger,
	}
}

// FetchDependencies returns the upstream map (service -> services it depends
// on) derived from the service graph. Cached results are served until the TTL
// expires.
func (c *TopologyClient) FetchDependencies(ctx context.Context) (map[string][]string, error) {
	if c == nil {
		return nil, fmt.Errorf("topology client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("topology base URL not configured")
	}

	if cached, err := c.cache.Get(ctx, topologyCacheKey); err == nil {
		var deps map[string][]string
		if err := json.Unmarshal(cached, &deps); err == nil {
			return deps, nil
		}
		c.logger.Warn("discarding corrupt cached topology", slog.Any("error", err))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("topology cache read failed", slog.Any("error", err))
	}

	edges, err := c.fetchServiceGraph(ctx)
	if err != nil {
		return nil, err
	}

	deps := flattenEdges(edges)

	if payload, err := json.Marshal(deps); err == nil {
		if err := c.cache.Set(ctx, topologyCacheKey, payload, c.cacheTTL); err != nil {
			c.logger.Warn("topology cache write failed", slog.Any("error", err))
		}
	}
	return deps, nil
}

func (c *TopologyClient) fetchServiceGraph(ctx context.Context) ([]ServiceGraphEdge, error) {
	endpoint := c.resolvePath(c.graphPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("topology service graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("topology API returned %s", resp.Status)
	}

	var response struct {
		Edges []ServiceGraphEdge `json:"edges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode service graph: %w", err)
	}
	return response.Edges, nil
}

func (c *TopologyClient) resolvePath(p string) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

// flattenEdges converts source->target call edges into an upstream map. Every
// service seen on either side gets an entry, so graph roots appear with no
// upstreams.
func flattenEdges(edges []ServiceGraphEdge) map[string][]string {
	deps := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, edge := range edges {
		if edge.Source == "" || edge.Target == "" || edge.Source == edge.Target {
			continue
		}
		if seen[edge.Source] == nil {
			seen[edge.Source] = make(map[string]bool)
		}
		if !seen[edge.Source][edge.Target] {
			seen[edge.Source][edge.Target] = true
			deps[edge.Source] = append(deps[edge.Source], edge.Target)
		}
		if _, ok := deps[edge.Target]; !ok {
			deps[edge.Target] = nil
		}
	}
	for _, upstream := range deps {
		sort.Strings(upstream)
	}
	return deps
}
