// Package vecmath provides the small vector helpers used by the clustering
// and scoring paths: cosine similarity in float32 space, L2 normalization,
// and a temperature-scaled softmax.
package vecmath

import "math"

// Dot returns the dot product of a and b.
// Vectors of different lengths yield 0.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	norm := Norm(v)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors or mismatched lengths yield 0.
func CosineSimilarity(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// CosineDistance returns 1 - CosineSimilarity(a, b).
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Softmax returns the softmax of values scaled by temperature.
// Higher temperature spreads weight more evenly; temperature <= 0 is
// treated as 1. The result sums to 1 for non-empty input.
func Softmax(values []float64, temperature float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	if temperature <= 0 {
		temperature = 1
	}

	// Subtract the max for numeric stability.
	maxVal := values[0]
	for _, v := range values[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		out[i] = math.Exp((v - maxVal) / temperature)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
