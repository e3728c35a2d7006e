package vecmath

import (
	"math"
	"math/rand"
)

// KMeansResult holds the output of a k-means run.
type KMeansResult struct {
	// Centroids are the final cluster centers, unit-normalized.
	Centroids [][]float32
	// Assignments maps each input vector index to a centroid index.
	Assignments []int
}

// KMeans clusters vectors into k groups in cosine space.
//
// Input vectors are normalized to unit length first, so squared Euclidean
// distance between them is monotonic in cosine distance and the standard
// Lloyd iteration applies. The run is deterministic for a given seed.
// Iteration count is fixed; the final assignment is whatever the last
// iteration yields.
func KMeans(vectors [][]float32, k, iterations int, seed int64) KMeansResult {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return KMeansResult{}
	}
	if k > n {
		k = n
	}

	normalized := make([][]float32, n)
	for i, v := range vectors {
		normalized[i] = Normalize(v)
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := initCentroids(normalized, k, rng)
	assignments := make([]int, n)

	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range normalized {
			best := nearestCentroid(v, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		centroids = recomputeCentroids(normalized, assignments, centroids)

		// Stable assignment means further iterations are no-ops.
		if !changed && iter > 0 {
			break
		}
	}

	return KMeansResult{Centroids: centroids, Assignments: assignments}
}

// initCentroids picks k starting centers with k-means++ style seeding:
// the first center uniformly at random, each next one weighted by squared
// cosine distance to the nearest already-chosen center.
func initCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	centroids := make([][]float32, 0, k)

	first := rng.Intn(n)
	centroids = append(centroids, append([]float32(nil), vectors[first]...))

	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			d := CosineDistance(v, centroids[len(centroids)-1])
			d *= d
			if len(centroids) == 1 || d < dists[i] {
				dists[i] = d
			}
			total += dists[i]
		}

		next := 0
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range dists {
				acc += d
				if acc >= target {
					next = i
					break
				}
			}
		} else {
			next = rng.Intn(n)
		}
		centroids = append(centroids, append([]float32(nil), vectors[next]...))
	}

	return centroids
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := CosineDistance(v, c); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// recomputeCentroids averages each cluster's members and re-normalizes.
// A cluster that lost all members keeps its previous centroid.
func recomputeCentroids(vectors [][]float32, assignments []int, prev [][]float32) [][]float32 {
	k := len(prev)
	dim := len(vectors[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	for i, v := range vectors {
		j := assignments[i]
		counts[j]++
		for d, x := range v {
			sums[j][d] += float64(x)
		}
	}

	centroids := make([][]float32, k)
	for j := range centroids {
		if counts[j] == 0 {
			centroids[j] = prev[j]
			continue
		}
		c := make([]float32, dim)
		for d := range c {
			c[d] = float32(sums[j][d] / float64(counts[j]))
		}
		centroids[j] = Normalize(c)
	}
	return centroids
}

// Medoid returns the index of the member of cluster j closest to its
// centroid by cosine distance, along with that distance.
// Returns -1 if the cluster has no members.
func Medoid(vectors [][]float32, assignments []int, centroid []float32, j int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, v := range vectors {
		if assignments[i] != j {
			continue
		}
		if d := CosineDistance(v, centroid); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
