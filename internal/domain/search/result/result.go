package result

// Scores is the per-signal breakdown behind a ranked hit.
// Semantic, Keyword and Component lie in [0, 1]; Final is their weighted sum.
type Scores struct {
	Semantic  float64 `json:"semantic"`
	Keyword   float64 `json:"keyword"`
	Component float64 `json:"component"`
	Final     float64 `json:"final"`
}

// Zero reports whether every sub-score is zero.
func (s Scores) Zero() bool {
	return s.Semantic == 0 && s.Keyword == 0 && s.Component == 0
}

// Result is a single ranked circuit.
type Result struct {
	id     string
	name   string
	scores Scores
}

// New creates a search result.
func New(id, name string, scores Scores) Result {
	return Result{id: id, name: name, scores: scores}
}

// ID returns the circuit identifier.
func (r *Result) ID() string { return r.id }

// Name returns the circuit name, empty when unknown.
func (r *Result) Name() string { return r.name }

// Scores returns the score breakdown.
func (r *Result) Scores() Scores { return r.scores }

// Score returns the final fused score.
func (r *Result) Score() float64 { return r.scores.Final }
