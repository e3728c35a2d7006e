package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPredictor() *Predictor {
	return NewPredictor(nil, nil, nil, DefaultOptions())
}

func TestPredictField_NearDuplicateUsesTopCandidate(t *testing.T) {
	p := newTestPredictor()
	candidates := []fieldCandidate{
		{Similarity: 0.92, Value: 3},
		{Similarity: 0.70, Value: 1},
		{Similarity: 0.65, Value: 1},
		{Similarity: 0.61, Value: 1},
	}

	got := p.predictField(candidates)
	require.NotNil(t, got)
	// The near duplicate wins even though 1 is the majority value.
	assert.Equal(t, 3.0, *got)
}

func TestPredictField_NearDuplicateThresholdIsInclusive(t *testing.T) {
	p := newTestPredictor()
	got := p.predictField([]fieldCandidate{{Similarity: 0.8, Value: 4}})
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got)
}

func TestPredictField_ModeLookupPicksWeightedMajority(t *testing.T) {
	p := newTestPredictor()
	candidates := []fieldCandidate{
		{Similarity: 0.75, Value: 2},
		{Similarity: 0.72, Value: 3},
		{Similarity: 0.70, Value: 3},
		{Similarity: 0.65, Value: 3},
		{Similarity: 0.62, Value: 2},
	}

	got := p.predictField(candidates)
	require.NotNil(t, got)
	// value 3: count 3, sum 2.07, score 6.21; value 2: count 2, sum 1.37,
	// score 2.74.
	assert.Equal(t, 3.0, *got)
}

func TestPredictField_BelowModeThresholdBlends(t *testing.T) {
	p := newTestPredictor()
	candidates := []fieldCandidate{
		{Similarity: 0.58, Value: 2},
		{Similarity: 0.55, Value: 3},
	}

	got := p.predictField(candidates)
	require.NotNil(t, got)
	// Softmax over near-equal mean similarities lands strictly between the
	// two values.
	assert.Greater(t, *got, 2.0)
	assert.Less(t, *got, 3.0)
}

func TestPredictField_PrototypeFloorDropsWeakValues(t *testing.T) {
	p := newTestPredictor()
	// Tier c path; value 4's lone supporter is below the 0.4 floor.
	candidates := []fieldCandidate{
		{Similarity: 0.55, Value: 2},
		{Similarity: 0.52, Value: 2},
		{Similarity: 0.30, Value: 4},
	}

	got := p.predictField(candidates)
	require.NotNil(t, got)
	assert.Equal(t, 2.0, *got)
}

func TestPredictField_NothingSurvivesTheFloor(t *testing.T) {
	p := newTestPredictor()
	candidates := []fieldCandidate{
		{Similarity: 0.3, Value: 2},
		{Similarity: 0.2, Value: 3},
	}
	assert.Nil(t, p.predictField(candidates))
}

func TestPredictField_NoCandidates(t *testing.T) {
	p := newTestPredictor()
	assert.Nil(t, p.predictField(nil))
}

func TestWeightedModeLookup_Tiebreaks(t *testing.T) {
	t.Run("best similarity breaks score tie", func(t *testing.T) {
		v, ok := weightedModeLookup([]fieldCandidate{
			{Similarity: 0.70, Value: 2},
			{Similarity: 0.60, Value: 2},
			{Similarity: 0.65, Value: 3},
			{Similarity: 0.65, Value: 3},
		})
		require.True(t, ok)
		// Both groups score 2 * 1.30; value 2 holds the 0.70 candidate.
		assert.Equal(t, 2.0, v)
	})

	t.Run("lower value breaks full tie", func(t *testing.T) {
		v, ok := weightedModeLookup([]fieldCandidate{
			{Similarity: 0.65, Value: 4},
			{Similarity: 0.65, Value: 2},
		})
		require.True(t, ok)
		assert.Equal(t, 2.0, v)
	})
}

func TestGroupByValue(t *testing.T) {
	groups := groupByValue([]fieldCandidate{
		{Similarity: 0.7, Value: 2},
		{Similarity: 0.6, Value: 3},
		{Similarity: 0.5, Value: 2},
	})
	require.Len(t, groups, 2)

	// Insertion order is preserved.
	assert.Equal(t, 2.0, groups[0].Value)
	assert.Equal(t, 2, groups[0].Count)
	assert.InDelta(t, 1.2, groups[0].SumSim, 1e-9)
	assert.InDelta(t, 0.7, groups[0].BestSim, 1e-9)

	assert.Equal(t, 3.0, groups[1].Value)
	assert.Equal(t, 1, groups[1].Count)
}
