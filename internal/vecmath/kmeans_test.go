package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two tight groups around orthogonal directions, easy to separate
func twoGroupVectors() [][]float32 {
	return [][]float32{
		{1, 0.01, 0},
		{0.99, 0.02, 0.01},
		{1, 0, 0.02},
		{0.01, 1, 0},
		{0.02, 0.98, 0.01},
		{0, 1, 0.02},
	}
}

func TestKMeans_AssignsEveryVector(t *testing.T) {
	vectors := twoGroupVectors()
	result := KMeans(vectors, 2, 20, 1)

	require.Len(t, result.Centroids, 2)
	require.Len(t, result.Assignments, len(vectors))
	for i, a := range result.Assignments {
		assert.GreaterOrEqual(t, a, 0, "vector %d unassigned", i)
		assert.Less(t, a, 2, "vector %d out of range", i)
	}
}

func TestKMeans_SeparatesObviousGroups(t *testing.T) {
	vectors := twoGroupVectors()
	result := KMeans(vectors, 2, 20, 1)

	// The first three vectors land in one cluster, the last three in the
	// other.
	first := result.Assignments[0]
	for i := 1; i < 3; i++ {
		assert.Equal(t, first, result.Assignments[i])
	}
	second := result.Assignments[3]
	assert.NotEqual(t, first, second)
	for i := 4; i < 6; i++ {
		assert.Equal(t, second, result.Assignments[i])
	}
}

func TestKMeans_DeterministicForSeed(t *testing.T) {
	vectors := twoGroupVectors()
	a := KMeans(vectors, 2, 20, 7)
	b := KMeans(vectors, 2, 20, 7)

	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Centroids, b.Centroids)
}

func TestKMeans_ClampsKToVectorCount(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}
	result := KMeans(vectors, 5, 10, 1)

	assert.Len(t, result.Centroids, 2)
	assert.Len(t, result.Assignments, 2)
}

func TestKMeans_EmptyInput(t *testing.T) {
	result := KMeans(nil, 3, 10, 1)
	assert.Nil(t, result.Centroids)
	assert.Nil(t, result.Assignments)

	result = KMeans([][]float32{{1, 0}}, 0, 10, 1)
	assert.Nil(t, result.Centroids)
}

func TestKMeans_CentroidsAreUnitLength(t *testing.T) {
	result := KMeans(twoGroupVectors(), 2, 20, 1)
	for j, c := range result.Centroids {
		assert.InDelta(t, 1.0, Norm(c), 1e-5, "centroid %d not normalized", j)
	}
}

func TestMedoid_ReturnsClusterMember(t *testing.T) {
	vectors := twoGroupVectors()
	result := KMeans(vectors, 2, 20, 1)

	for j, centroid := range result.Centroids {
		idx, dist := Medoid(vectors, result.Assignments, centroid, j)
		require.GreaterOrEqual(t, idx, 0)
		assert.Equal(t, j, result.Assignments[idx], "medoid must belong to its own cluster")
		assert.GreaterOrEqual(t, dist, 0.0)

		// No member of the cluster is strictly closer.
		for i, a := range result.Assignments {
			if a != j {
				continue
			}
			assert.GreaterOrEqual(t, CosineDistance(vectors[i], centroid), dist-1e-9)
		}
	}
}

func TestMedoid_EmptyCluster(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0.9, 0.1}}
	assignments := []int{0, 0}
	idx, _ := Medoid(vectors, assignments, []float32{0, 1}, 1)
	assert.Equal(t, -1, idx)
}
