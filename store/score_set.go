package store

// SummaryScores are the six top-level evaluation scores of an answer.
// problem/solution/collaboration are quantized to 0.5 steps, the rest to
// 0.1 steps; all live on [1, 5].
type SummaryScores struct {
	Problem       float64 `json:"problem"`
	Solution      float64 `json:"solution"`
	Role          float64 `json:"role"`
	Leadership    float64 `json:"leadership"`
	Collaboration float64 `json:"collaboration"`
	Development   float64 `json:"development"`
}

// DetailScores are the fifteen per-aspect scores backing the problem,
// solution and collaboration summaries. All live on {1, 2, 3, 4}.
type DetailScores struct {
	// problem group
	ProblemBackground float64 `json:"problem_background"`
	ProblemDefinition float64 `json:"problem_definition"`
	ProblemImpact     float64 `json:"problem_impact"`
	ProblemCause      float64 `json:"problem_cause"`
	ProblemPriority   float64 `json:"problem_priority"`
	ProblemEvidence   float64 `json:"problem_evidence"`

	// solution group
	SolutionValidity     float64 `json:"solution_validity"`
	SolutionConcreteness float64 `json:"solution_concreteness"`
	SolutionFeasibility  float64 `json:"solution_feasibility"`
	SolutionCreativity   float64 `json:"solution_creativity"`
	SolutionRisk         float64 `json:"solution_risk"`
	SolutionOutcome      float64 `json:"solution_outcome"`

	// collaboration group
	CollabStakeholders  float64 `json:"collab_stakeholders"`
	CollabCommunication float64 `json:"collab_communication"`
	CollabTeamwork      float64 `json:"collab_teamwork"`
}

// ScoreSet is the full score record attached to a stored answer.
type ScoreSet struct {
	Summary SummaryScores `json:"summary"`
	Detail  DetailScores  `json:"detail"`
}
