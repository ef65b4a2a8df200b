package score

import "github.com/ppiankov/clauselens/internal/model"

// AnalysisDiff compares two analyses of a contract, usually before and after
// a revision. Clauses are paired by ID.
type AnalysisDiff struct {
	PreviousScore  int            `json:"previous_risk_score" yaml:"previous_risk_score"`
	CurrentScore   int            `json:"current_risk_score" yaml:"current_risk_score"`
	RiskScoreDelta int            `json:"risk_score_delta" yaml:"risk_score_delta"` // current minus previous
	Added          []model.Clause `json:"added" yaml:"added"`
	Removed        []model.Clause `json:"removed" yaml:"removed"`
	Changed        []RiskChange   `json:"changed" yaml:"changed"`
}

// RiskChange is a clause present in both analyses whose risk level moved
type RiskChange struct {
	ID       string          `json:"id" yaml:"id"`
	Category string          `json:"category" yaml:"category"`
	From     model.RiskLevel `json:"from" yaml:"from"`
	To       model.RiskLevel `json:"to" yaml:"to"`
}

// Unchanged reports whether the score and every clause risk are the same
func (d AnalysisDiff) Unchanged() bool {
	return d.RiskScoreDelta == 0 && len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares prev with cur. A nil analysis counts as empty with a zero
// score. Added and changed clauses keep the order of cur, removed clauses
// the order of prev. When an ID repeats, the last clause with that ID is
// the one compared.
func Diff(prev, cur *model.AnalysisResult) AnalysisDiff {
	if prev == nil {
		prev = &model.AnalysisResult{}
	}
	if cur == nil {
		cur = &model.AnalysisResult{}
	}

	byPrev := make(map[string]model.Clause, len(prev.Clauses))
	for _, c := range prev.Clauses {
		byPrev[c.ID] = c
	}
	byCur := make(map[string]model.Clause, len(cur.Clauses))
	for _, c := range cur.Clauses {
		byCur[c.ID] = c
	}

	d := AnalysisDiff{
		PreviousScore:  prev.Overall.RiskScore,
		CurrentScore:   cur.Overall.RiskScore,
		RiskScoreDelta: cur.Overall.RiskScore - prev.Overall.RiskScore,
		Added:          []model.Clause{},
		Removed:        []model.Clause{},
		Changed:        []RiskChange{},
	}

	for _, c := range cur.Clauses {
		old, ok := byPrev[c.ID]
		if !ok {
			d.Added = append(d.Added, c)
			continue
		}
		if old.Risk != c.Risk {
			d.Changed = append(d.Changed, RiskChange{ID: c.ID, Category: c.Category, From: old.Risk, To: c.Risk})
		}
	}
	for _, c := range prev.Clauses {
		if _, ok := byCur[c.ID]; !ok {
			d.Removed = append(d.Removed, c)
		}
	}

	return d
}
