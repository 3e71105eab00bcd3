package similarity

import "strings"

// Jaccard computes word-overlap similarity between two strings in [0,1].
func Jaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := wordSet(a)
	setB := wordSet(b)

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

// JaccardClusterer is the trivial fallback Clusterer: no external
// vector-space machinery, plain word overlap as the similarity measure.
type JaccardClusterer struct {
	Eps    float64
	MinPts int
}

// NewJaccardClusterer returns a fallback clusterer with default settings.
func NewJaccardClusterer() *JaccardClusterer {
	return &JaccardClusterer{Eps: 0.5, MinPts: 2}
}

// Cluster implements Clusterer.
func (c *JaccardClusterer) Cluster(texts []string) ([][]int, [][]float64, error) {
	eps := c.Eps
	if eps <= 0 {
		eps = 0.5
	}
	minPts := c.MinPts
	if minPts <= 0 {
		minPts = 2
	}

	sim := make([][]float64, len(texts))
	for i := range texts {
		sim[i] = make([]float64, len(texts))
		sim[i][i] = 1
	}
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			s := Jaccard(texts[i], texts[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return densityGroup(sim, eps, minPts), sim, nil
}
