package scoring

import (
	"sort"

	"github.com/hrygo/scorelens/internal/vecmath"
)

// fieldCandidate is one retrieved answer's value for a single detail
// field, paired with that answer's similarity. Candidates arrive ranked
// by descending similarity.
type fieldCandidate struct {
	Similarity float64
	Value      float64
}

// predictField runs the tiered per-field policy in fixed priority order:
//
//	a. near-duplicate override: top similarity >= NearDuplicateSimilarity
//	   uses the top candidate's own value;
//	b. similarity-weighted mode lookup at >= ModeLookupSimilarity;
//	c. softmax-weighted prototype blend;
//	d. nil when no tier produced a value.
//
// The caller normalizes the result to the field's quantization contract.
func (p *Predictor) predictField(candidates []fieldCandidate) *float64 {
	if len(candidates) == 0 {
		return nil
	}
	topSim := candidates[0].Similarity

	if topSim >= p.opts.NearDuplicateSimilarity {
		v := candidates[0].Value
		return &v
	}

	if topSim >= p.opts.ModeLookupSimilarity {
		if v, ok := weightedModeLookup(candidates); ok {
			return &v
		}
	}

	if v, ok := p.prototypeBlend(candidates); ok {
		return &v
	}
	return nil
}

// valueGroup aggregates the candidates sharing one field value.
type valueGroup struct {
	Value   float64
	Count   int
	SumSim  float64
	BestSim float64
}

func groupByValue(candidates []fieldCandidate) []valueGroup {
	byValue := map[float64]*valueGroup{}
	order := []float64{}
	for _, c := range candidates {
		g, ok := byValue[c.Value]
		if !ok {
			g = &valueGroup{Value: c.Value}
			byValue[c.Value] = g
			order = append(order, c.Value)
		}
		g.Count++
		g.SumSim += c.Similarity
		if c.Similarity > g.BestSim {
			g.BestSim = c.Similarity
		}
	}

	groups := make([]valueGroup, 0, len(order))
	for _, v := range order {
		groups = append(groups, *byValue[v])
	}
	return groups
}

// weightedModeLookup scores each value group by count x sum(similarity)
// and picks the highest-scoring group's value. Ties go to the group
// holding the most similar candidate, then to the lower value.
func weightedModeLookup(candidates []fieldCandidate) (float64, bool) {
	groups := groupByValue(candidates)
	if len(groups) == 0 {
		return 0, false
	}

	sort.SliceStable(groups, func(i, j int) bool {
		si := float64(groups[i].Count) * groups[i].SumSim
		sj := float64(groups[j].Count) * groups[j].SumSim
		if si != sj {
			return si > sj
		}
		if groups[i].BestSim != groups[j].BestSim {
			return groups[i].BestSim > groups[j].BestSim
		}
		return groups[i].Value < groups[j].Value
	})
	return groups[0].Value, true
}

// prototypeBlend summarizes each distinct value as a prototype (the mean
// similarity of its candidates), drops prototypes under the floor, and
// returns the softmax-weighted average of the surviving values.
func (p *Predictor) prototypeBlend(candidates []fieldCandidate) (float64, bool) {
	groups := groupByValue(candidates)

	values := make([]float64, 0, len(groups))
	meanSims := make([]float64, 0, len(groups))
	for _, g := range groups {
		mean := g.SumSim / float64(g.Count)
		if mean < p.opts.PrototypeFloor {
			continue
		}
		values = append(values, g.Value)
		meanSims = append(meanSims, mean)
	}
	if len(values) == 0 {
		return 0, false
	}

	weights := vecmath.Softmax(meanSims, p.opts.SoftmaxTemperature)
	var blended float64
	for i, w := range weights {
		blended += w * values[i]
	}
	return blended, true
}
