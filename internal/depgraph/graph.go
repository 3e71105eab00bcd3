// Package depgraph models the service dependency topology consumed by the
// dependency correlation strategy. The map supplied by collaborators is
// service -> upstream services; edges run dependency -> dependent.
package depgraph

import "sort"

// Graph is a directed service dependency graph.
type Graph struct {
	// downstream[s] lists services that depend on s.
	downstream map[string][]string
	// upstream[s] lists services s depends on.
	upstream map[string][]string
}

// New builds a graph from a service -> upstream-services map.
func New(dependencies map[string][]string) *Graph {
	g := &Graph{
		downstream: make(map[string][]string, len(dependencies)),
		upstream:   make(map[string][]string, len(dependencies)),
	}
	for service, deps := range dependencies {
		if _, ok := g.upstream[service]; !ok {
			g.upstream[service] = nil
		}
		for _, dep := range deps {
			g.upstream[service] = append(g.upstream[service], dep)
			g.downstream[dep] = append(g.downstream[dep], service)
			if _, ok := g.upstream[dep]; !ok {
				g.upstream[dep] = nil
			}
		}
	}
	return g
}

// Has reports whether the service appears anywhere in the topology.
func (g *Graph) Has(service string) bool {
	_, ok := g.upstream[service]
	return ok
}

// Upstream returns the services the given service depends on.
func (g *Graph) Upstream(service string) []string {
	return append([]string(nil), g.upstream[service]...)
}

// Downstream returns the services depending on the given service.
func (g *Graph) Downstream(service string) []string {
	return append([]string(nil), g.downstream[service]...)
}

// Neighbors returns the union of upstream and downstream services, sorted
// for deterministic iteration.
func (g *Graph) Neighbors(service string) []string {
	seen := make(map[string]struct{})
	for _, s := range g.upstream[service] {
		seen[s] = struct{}{}
	}
	for _, s := range g.downstream[service] {
		seen[s] = struct{}{}
	}
	neighbors := make([]string, 0, len(seen))
	for s := range seen {
		neighbors = append(neighbors, s)
	}
	sort.Strings(neighbors)
	return neighbors
}

// IsRoot reports whether a service has no configured upstream dependency,
// which makes it a likely origin in cascade failures.
func (g *Graph) IsRoot(service string) bool {
	deps, ok := g.upstream[service]
	return ok && len(deps) == 0
}

// Distance returns the directed BFS hop count from one service to another
// following dependency -> dependent edges. The second return value is
// false when no path exists.
func (g *Graph) Distance(from, to string) (int, bool) {
	if !g.Has(from) || !g.Has(to) {
		return 0, false
	}
	if from == to {
		return 0, true
	}

	visited := map[string]struct{}{from: {}}
	frontier := []string{from}
	depth := 0
	for len(frontier) > 0 {
		depth++
		next := make([]string, 0)
		for _, service := range frontier {
			for _, dependent := range g.downstream[service] {
				if dependent == to {
					return depth, true
				}
				if _, ok := visited[dependent]; ok {
					continue
				}
				visited[dependent] = struct{}{}
				next = append(next, dependent)
			}
		}
		frontier = next
	}
	return 0, false
}

// MinDistance returns the smallest hop count between two services in
// either direction.
func (g *Graph) MinDistance(a, b string) (int, bool) {
	forward, okF := g.Distance(a, b)
	backward, okB := g.Distance(b, a)
	switch {
	case okF && okB:
		if backward < forward {
			return backward, true
		}
		return forward, true
	case okF:
		return forward, true
	case okB:
		return backward, true
	default:
		return 0, false
	}
}
