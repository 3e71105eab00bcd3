package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("high latency", "high latency"))
	assert.Equal(t, 0.0, Jaccard("disk full", "network down"))
	assert.Equal(t, 0.0, Jaccard("", "anything"))

	// {high, latency, api} vs {high, latency, web}: 2 shared, 4 union.
	assert.InDelta(t, 0.5, Jaccard("high latency api", "high latency web"), 1e-9)
}

func TestTFIDFClustererGroupsSimilarTexts(t *testing.T) {
	texts := []string{
		"database connection timeout on primary",
		"database connection timeout on replica",
		"disk usage above threshold",
	}

	c := NewTFIDFClusterer()
	groups, sim, err := c.Cluster(texts)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []int{0, 1}, groups[0])

	assert.Greater(t, sim[0][1], sim[0][2], "related texts must score higher")
	assert.Equal(t, 1.0, sim[0][0])
	assert.Equal(t, sim[0][1], sim[1][0], "similarity matrix is symmetric")
}

func TestTFIDFClustererGroupsNearDuplicatePair(t *testing.T) {
	// One word of five differs; the defaults must treat these as one group
	// even without a wider corpus pulling the idf weights down.
	texts := []string{
		"database connection timeout on primary",
		"database connection timeout on replica",
	}
	groups, _, err := NewTFIDFClusterer().Cluster(texts)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []int{0, 1}, groups[0])
}

func TestTFIDFClustererDiscardsOutliers(t *testing.T) {
	texts := []string{
		"payment gateway returned errors",
		"completely unrelated kernel panic",
	}
	groups, _, err := NewTFIDFClusterer().Cluster(texts)
	require.NoError(t, err)
	assert.Empty(t, groups, "no group of fewer than two similar texts")
}

func TestJaccardClustererFallback(t *testing.T) {
	texts := []string{
		"high latency on api",
		"high latency on api",
		"certificate expired",
	}
	groups, sim, err := NewJaccardClusterer().Cluster(texts)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []int{0, 1}, groups[0])
	assert.Equal(t, 1.0, sim[0][1])
}

func TestGroupMeanSimilarity(t *testing.T) {
	sim := [][]float64{
		{1, 0.8, 0.6},
		{0.8, 1, 0.4},
		{0.6, 0.4, 1},
	}
	assert.InDelta(t, 0.6, GroupMeanSimilarity(sim, []int{0, 1, 2}), 1e-9)
	assert.Equal(t, 0.0, GroupMeanSimilarity(sim, []int{0}))
}
