package scoring

import (
	"math"

	"github.com/hrygo/scorelens/store"
)

// SummaryField identifies one of the six summary scores.
type SummaryField int

const (
	SummaryProblem SummaryField = iota
	SummarySolution
	SummaryRole
	SummaryLeadership
	SummaryCollaboration
	SummaryDevelopment
)

// DetailField identifies one of the fifteen detail scores.
// Fields are grouped under the summary they compose into.
type DetailField int

const (
	ProblemBackground DetailField = iota
	ProblemDefinition
	ProblemImpact
	ProblemCause
	ProblemPriority
	ProblemEvidence
	SolutionValidity
	SolutionConcreteness
	SolutionFeasibility
	SolutionCreativity
	SolutionRisk
	SolutionOutcome
	CollabStakeholders
	CollabCommunication
	CollabTeamwork

	numDetailFields
)

// FieldSpec is the quantization contract of a score field: every stored
// value is exactly Min + n*Step for integer n, capped at Max.
type FieldSpec struct {
	Name string
	Step float64
	Min  float64
	Max  float64
}

// Normalize clamps x to [spec.Min, spec.Max] and rounds it to the nearest
// step. The result is always a member of the field's value grid, and the
// operation is idempotent.
func (spec FieldSpec) Normalize(x float64) float64 {
	if x < spec.Min {
		x = spec.Min
	}
	if x > spec.Max {
		x = spec.Max
	}
	steps := math.Round((x - spec.Min) / spec.Step)
	v := spec.Min + steps*spec.Step
	// Re-round to kill float drift like 2.4999999 from 0.1-step math.
	return math.Round(v/spec.Step) * spec.Step
}

var summarySpecs = [...]FieldSpec{
	SummaryProblem:       {Name: "problem", Step: 0.5, Min: 1, Max: 5},
	SummarySolution:      {Name: "solution", Step: 0.5, Min: 1, Max: 5},
	SummaryRole:          {Name: "role", Step: 0.1, Min: 1, Max: 5},
	SummaryLeadership:    {Name: "leadership", Step: 0.1, Min: 1, Max: 5},
	SummaryCollaboration: {Name: "collaboration", Step: 0.5, Min: 1, Max: 5},
	SummaryDevelopment:   {Name: "development", Step: 0.1, Min: 1, Max: 5},
}

// Spec returns the quantization contract of the summary field.
func (f SummaryField) Spec() FieldSpec {
	return summarySpecs[f]
}

// detailFieldDef binds a detail field's contract to its typed accessors.
type detailFieldDef struct {
	spec  FieldSpec
	group SummaryField
	get   func(*store.DetailScores) float64
	set   func(*store.DetailScores, float64)
	ptr   func(*DetailPrediction) **float64
}

func detailSpec(name string) FieldSpec {
	return FieldSpec{Name: name, Step: 1, Min: 1, Max: 4}
}

var detailFieldDefs = [numDetailFields]detailFieldDef{
	ProblemBackground: {
		spec: detailSpec("problem_background"), group: SummaryProblem,
		get: func(d *store.DetailScores) float64 { return d.ProblemBackground },
		set: func(d *store.DetailScores, v float64) { d.ProblemBackground = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.ProblemBackground },
	},
	ProblemDefinition: {
		spec: detailSpec("problem_definition"), group: SummaryProblem,
		get: func(d *store.DetailScores) float64 { return d.ProblemDefinition },
		set: func(d *store.DetailScores, v float64) { d.ProblemDefinition = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.ProblemDefinition },
	},
	ProblemImpact: {
		spec: detailSpec("problem_impact"), group: SummaryProblem,
		get: func(d *store.DetailScores) float64 { return d.ProblemImpact },
		set: func(d *store.DetailScores, v float64) { d.ProblemImpact = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.ProblemImpact },
	},
	ProblemCause: {
		spec: detailSpec("problem_cause"), group: SummaryProblem,
		get: func(d *store.DetailScores) float64 { return d.ProblemCause },
		set: func(d *store.DetailScores, v float64) { d.ProblemCause = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.ProblemCause },
	},
	ProblemPriority: {
		spec: detailSpec("problem_priority"), group: SummaryProblem,
		get: func(d *store.DetailScores) float64 { return d.ProblemPriority },
		set: func(d *store.DetailScores, v float64) { d.ProblemPriority = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.ProblemPriority },
	},
	ProblemEvidence: {
		spec: detailSpec("problem_evidence"), group: SummaryProblem,
		get: func(d *store.DetailScores) float64 { return d.ProblemEvidence },
		set: func(d *store.DetailScores, v float64) { d.ProblemEvidence = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.ProblemEvidence },
	},
	SolutionValidity: {
		spec: detailSpec("solution_validity"), group: SummarySolution,
		get: func(d *store.DetailScores) float64 { return d.SolutionValidity },
		set: func(d *store.DetailScores, v float64) { d.SolutionValidity = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.SolutionValidity },
	},
	SolutionConcreteness: {
		spec: detailSpec("solution_concreteness"), group: SummarySolution,
		get: func(d *store.DetailScores) float64 { return d.SolutionConcreteness },
		set: func(d *store.DetailScores, v float64) { d.SolutionConcreteness = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.SolutionConcreteness },
	},
	SolutionFeasibility: {
		spec: detailSpec("solution_feasibility"), group: SummarySolution,
		get: func(d *store.DetailScores) float64 { return d.SolutionFeasibility },
		set: func(d *store.DetailScores, v float64) { d.SolutionFeasibility = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.SolutionFeasibility },
	},
	SolutionCreativity: {
		spec: detailSpec("solution_creativity"), group: SummarySolution,
		get: func(d *store.DetailScores) float64 { return d.SolutionCreativity },
		set: func(d *store.DetailScores, v float64) { d.SolutionCreativity = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.SolutionCreativity },
	},
	SolutionRisk: {
		spec: detailSpec("solution_risk"), group: SummarySolution,
		get: func(d *store.DetailScores) float64 { return d.SolutionRisk },
		set: func(d *store.DetailScores, v float64) { d.SolutionRisk = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.SolutionRisk },
	},
	SolutionOutcome: {
		spec: detailSpec("solution_outcome"), group: SummarySolution,
		get: func(d *store.DetailScores) float64 { return d.SolutionOutcome },
		set: func(d *store.DetailScores, v float64) { d.SolutionOutcome = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.SolutionOutcome },
	},
	CollabStakeholders: {
		spec: detailSpec("collab_stakeholders"), group: SummaryCollaboration,
		get: func(d *store.DetailScores) float64 { return d.CollabStakeholders },
		set: func(d *store.DetailScores, v float64) { d.CollabStakeholders = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.CollabStakeholders },
	},
	CollabCommunication: {
		spec: detailSpec("collab_communication"), group: SummaryCollaboration,
		get: func(d *store.DetailScores) float64 { return d.CollabCommunication },
		set: func(d *store.DetailScores, v float64) { d.CollabCommunication = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.CollabCommunication },
	},
	CollabTeamwork: {
		spec: detailSpec("collab_teamwork"), group: SummaryCollaboration,
		get: func(d *store.DetailScores) float64 { return d.CollabTeamwork },
		set: func(d *store.DetailScores, v float64) { d.CollabTeamwork = v },
		ptr: func(p *DetailPrediction) **float64 { return &p.CollabTeamwork },
	},
}

var detailFieldsByName = func() map[string]DetailField {
	m := make(map[string]DetailField, numDetailFields)
	for i := range detailFieldDefs {
		m[detailFieldDefs[i].spec.Name] = DetailField(i)
	}
	return m
}()

// DetailFields returns all detail fields in declaration order.
func DetailFields() []DetailField {
	fields := make([]DetailField, numDetailFields)
	for i := range fields {
		fields[i] = DetailField(i)
	}
	return fields
}

// DetailFieldByName resolves a detail field from its wire name.
func DetailFieldByName(name string) (DetailField, bool) {
	f, ok := detailFieldsByName[name]
	return f, ok
}

// Spec returns the quantization contract of the detail field.
func (f DetailField) Spec() FieldSpec {
	return detailFieldDefs[f].spec
}

// Group returns the summary field this detail field composes into.
func (f DetailField) Group() SummaryField {
	return detailFieldDefs[f].group
}

// Get reads the field's value from a stored detail score set.
func (f DetailField) Get(d *store.DetailScores) float64 {
	return detailFieldDefs[f].get(d)
}

// Set writes the field's value on a stored detail score set.
func (f DetailField) Set(d *store.DetailScores, v float64) {
	detailFieldDefs[f].set(d, v)
}

// GetPrediction reads the field's (possibly absent) predicted value.
func (f DetailField) GetPrediction(p *DetailPrediction) *float64 {
	return *detailFieldDefs[f].ptr(p)
}

// SetPrediction writes the field's predicted value; nil marks it absent.
func (f DetailField) SetPrediction(p *DetailPrediction, v *float64) {
	*detailFieldDefs[f].ptr(p) = v
}

// DetailPrediction holds the per-field predicted detail scores. A nil
// field means no tier produced a value for it.
type DetailPrediction struct {
	ProblemBackground *float64 `json:"problem_background"`
	ProblemDefinition *float64 `json:"problem_definition"`
	ProblemImpact     *float64 `json:"problem_impact"`
	ProblemCause      *float64 `json:"problem_cause"`
	ProblemPriority   *float64 `json:"problem_priority"`
	ProblemEvidence   *float64 `json:"problem_evidence"`

	SolutionValidity     *float64 `json:"solution_validity"`
	SolutionConcreteness *float64 `json:"solution_concreteness"`
	SolutionFeasibility  *float64 `json:"solution_feasibility"`
	SolutionCreativity   *float64 `json:"solution_creativity"`
	SolutionRisk         *float64 `json:"solution_risk"`
	SolutionOutcome      *float64 `json:"solution_outcome"`

	CollabStakeholders  *float64 `json:"collab_stakeholders"`
	CollabCommunication *float64 `json:"collab_communication"`
	CollabTeamwork      *float64 `json:"collab_teamwork"`
}
