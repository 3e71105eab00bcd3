// Package similarity provides the pluggable text-similarity capability
// used by the similarity correlation strategy: a vector-space clusterer
// with a density-based grouping pass, plus a cheap word-overlap fallback.
package similarity

// Clusterer groups texts by content similarity. It returns the index
// groups (outliers omitted) and the full pairwise similarity matrix so
// callers can score group cohesion. Implementations must be safe for
// concurrent use.
type Clusterer interface {
	Cluster(texts []string) (groups [][]int, sim [][]float64, err error)
}

// densityGroup runs a DBSCAN-style pass over a precomputed similarity
// matrix: distance is 1-similarity, eps bounds the neighborhood, and a
// point joins a group when it has at least minPts neighbors (itself
// included). Points in no group are outliers and discarded.
func densityGroup(sim [][]float64, eps float64, minPts int) [][]int {
	n := len(sim)
	const (
		unvisited = 0
		noise     = -1
	)
	labels := make([]int, n)
	nextLabel := 0

	neighborsOf := func(i int) []int {
		neighbors := make([]int, 0, n)
		for j := 0; j < n; j++ {
			if 1-sim[i][j] <= eps {
				neighbors = append(neighbors, j)
			}
		}
		return neighbors
	}

	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		neighbors := neighborsOf(i)
		if len(neighbors) < minPts {
			labels[i] = noise
			continue
		}
		nextLabel++
		labels[i] = nextLabel
		queue := append([]int(nil), neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == noise {
				labels[j] = nextLabel
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = nextLabel
			jNeighbors := neighborsOf(j)
			if len(jNeighbors) >= minPts {
				queue = append(queue, jNeighbors...)
			}
		}
	}

	grouped := make(map[int][]int)
	order := make([]int, 0)
	for i, label := range labels {
		if label == noise || label == unvisited {
			continue
		}
		if _, ok := grouped[label]; !ok {
			order = append(order, label)
		}
		grouped[label] = append(grouped[label], i)
	}

	groups := make([][]int, 0, len(order))
	for _, label := range order {
		if len(grouped[label]) >= 2 {
			groups = append(groups, grouped[label])
		}
	}
	return groups
}

// GroupMeanSimilarity averages pairwise similarities within one group.
func GroupMeanSimilarity(sim [][]float64, group []int) float64 {
	if len(group) < 2 {
		return 0
	}
	sum := 0.0
	pairs := 0
	for x := 0; x < len(group); x++ {
		for y := x + 1; y < len(group); y++ {
			sum += sim[group[x]][group[y]]
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
