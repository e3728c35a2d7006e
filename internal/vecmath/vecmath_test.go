package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled copy", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, Norm(v), 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestCosineDistance_ComplementsSimilarity(t *testing.T) {
	a := []float32{0.2, 0.7, 0.1}
	b := []float32{0.5, 0.1, 0.9}
	assert.InDelta(t, 1-CosineSimilarity(a, b), CosineDistance(a, b), 1e-12)
}

func TestSoftmax_SumsToOne(t *testing.T) {
	weights := Softmax([]float64{0.4, 0.6, 0.9}, 2.0)
	require.Len(t, weights, 3)

	var sum float64
	for _, w := range weights {
		sum += w
		assert.Greater(t, w, 0.0)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// Higher input keeps higher weight.
	assert.Greater(t, weights[2], weights[1])
	assert.Greater(t, weights[1], weights[0])
}

func TestSoftmax_TemperatureSpreadsWeight(t *testing.T) {
	sharp := Softmax([]float64{0.1, 0.9}, 0.1)
	flat := Softmax([]float64{0.1, 0.9}, 10)

	// Low temperature concentrates mass on the max; high temperature
	// flattens toward uniform.
	assert.Greater(t, sharp[1], flat[1])
	assert.InDelta(t, 0.5, flat[1], 0.05)
}

func TestSoftmax_EdgeCases(t *testing.T) {
	assert.Nil(t, Softmax(nil, 2))

	single := Softmax([]float64{0.5}, 2)
	require.Len(t, single, 1)
	assert.InDelta(t, 1.0, single[0], 1e-12)

	// Non-positive temperature falls back to 1 instead of dividing by zero.
	weights := Softmax([]float64{1, 2}, 0)
	require.Len(t, weights, 2)
	assert.False(t, math.IsNaN(weights[0]))
	assert.InDelta(t, 1.0, weights[0]+weights[1], 1e-12)
}
