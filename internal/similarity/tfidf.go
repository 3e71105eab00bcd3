package similarity

import (
	"math"
	"strings"
	"unicode"
)

// TFIDFClusterer builds TF-IDF vectors over the corpus and groups texts by
// cosine similarity.
type TFIDFClusterer struct {
	// Eps is the maximum (1 - similarity) distance for two texts to be
	// neighbors. Defaults to 0.4: alert titles differing in one word out
	// of five land around cosine 0.67-0.70, so a tighter radius would
	// reject exactly the near-duplicates the strategy exists to catch.
	Eps float64
	// MinPts is the minimum neighborhood size for a core point, self
	// included. Defaults to 2.
	MinPts int
}

const defaultTFIDFEps = 0.4

// NewTFIDFClusterer returns a clusterer with the default density settings.
func NewTFIDFClusterer() *TFIDFClusterer {
	return &TFIDFClusterer{Eps: defaultTFIDFEps, MinPts: 2}
}

// Cluster implements Clusterer.
func (c *TFIDFClusterer) Cluster(texts []string) ([][]int, [][]float64, error) {
	eps := c.Eps
	if eps <= 0 {
		eps = defaultTFIDFEps
	}
	minPts := c.MinPts
	if minPts <= 0 {
		minPts = 2
	}

	vectors := tfidfVectors(texts)
	sim := make([][]float64, len(vectors))
	for i := range vectors {
		sim[i] = make([]float64, len(vectors))
		sim[i][i] = 1
	}
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			s := cosine(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return densityGroup(sim, eps, minPts), sim, nil
}

func tfidfVectors(texts []string) []map[string]float64 {
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		docs[i] = tokenize(text)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, term := range docs[i] {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := float64(len(texts))
	vectors := make([]map[string]float64, len(texts))
	for i, terms := range docs {
		tf := make(map[string]float64, len(terms))
		for _, term := range terms {
			tf[term]++
		}
		vec := make(map[string]float64, len(tf))
		for term, count := range tf {
			// Smoothed idf keeps corpus-wide terms from zeroing out.
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			vec[term] = (count / float64(len(terms))) * idf
		}
		vectors[i] = vec
	}
	return vectors
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dot := 0.0
	for term, weight := range a {
		if other, ok := b[term]; ok {
			dot += weight * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (norm(a) * norm(b))
}

func norm(vec map[string]float64) float64 {
	sum := 0.0
	for _, weight := range vec {
		sum += weight * weight
	}
	return math.Sqrt(sum)
}
