package engine

import (
	"context"
	"sort"

	"github.com/alertmesh/correlation-engine/internal/depgraph"
	"github.com/alertmesh/correlation-engine/internal/models"
)

// dependencyCandidates groups alerts along the service dependency
// topology: alerting services that can reach each other through the graph
// form one group, even when the services on the path between them are
// quiet. With no topology configured the strategy simply yields nothing.
func (e *Engine) dependencyCandidates(_ context.Context, alerts []*models.Alert) ([]candidate, error) {
	graph := e.Graph()
	if graph == nil {
		return nil, nil
	}

	byService := make(map[string][]*models.Alert)
	for _, alert := range alerts {
		byService[alert.Service] = append(byService[alert.Service], alert)
	}

	services := make([]string, 0, len(byService))
	for service := range byService {
		if graph.Has(service) {
			services = append(services, service)
		}
	}
	sort.Strings(services)

	components := connectedComponents(services, graph)

	candidates := make([]candidate, 0, len(components))
	for _, component := range components {
		group := make([]*models.Alert, 0)
		for _, service := range component {
			group = append(group, byService[service]...)
		}
		if len(group) < 2 {
			continue
		}
		candidates = append(candidates, candidate{
			alerts:     group,
			ctype:      models.CorrelationDependency,
			confidence: dependencyConfidence(group, graph),
		})
	}
	return candidates, nil
}

// connectedComponents partitions the services into groups whose members
// can reach each other in the graph, in either direction and across any
// number of hops. Input order is preserved inside each component.
func connectedComponents(services []string, graph *depgraph.Graph) [][]string {
	assigned := make(map[string]struct{}, len(services))
	components := make([][]string, 0)
	for _, service := range services {
		if _, ok := assigned[service]; ok {
			continue
		}
		assigned[service] = struct{}{}
		members := []string{service}
		queue := []string{service}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, other := range services {
				if _, ok := assigned[other]; ok {
					continue
				}
				if _, reachable := graph.MinDistance(current, other); reachable {
					assigned[other] = struct{}{}
					members = append(members, other)
					queue = append(queue, other)
				}
			}
		}
		components = append(components, members)
	}
	return components
}

// dependencyConfidence scores a group by the minimum graph distance
// between any two affected services: direct edges score high, distant or
// unreachable pairs bottom out at 0.1.
func dependencyConfidence(alerts []*models.Alert, graph *depgraph.Graph) float64 {
	seen := make(map[string]struct{})
	services := make([]string, 0)
	for _, alert := range alerts {
		if _, ok := seen[alert.Service]; ok {
			continue
		}
		seen[alert.Service] = struct{}{}
		services = append(services, alert.Service)
	}

	minDistance := -1
	for i := 0; i < len(services); i++ {
		for j := i + 1; j < len(services); j++ {
			if d, ok := graph.MinDistance(services[i], services[j]); ok {
				if minDistance < 0 || d < minDistance {
					minDistance = d
				}
			}
		}
	}

	if minDistance < 0 {
		return 0.1
	}
	confidence := 1.0 - float64(minDistance)/5
	if confidence < 0.1 {
		return 0.1
	}
	return confidence
}
