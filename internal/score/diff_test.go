package score

import (
	"testing"

	"github.com/ppiankov/clauselens/internal/model"
)

func clause(id, category string, risk model.RiskLevel) model.Clause {
	return model.Clause{ID: id, Category: category, Risk: risk}
}

func TestDiff(t *testing.T) {
	prev := &model.AnalysisResult{
		Overall: model.Overall{RiskScore: 72},
		Clauses: []model.Clause{
			clause("arb", "arbitration", model.RiskHigh),
			clause("cap", "liability", model.RiskMedium),
			clause("auto", "auto_renewal", model.RiskHigh),
		},
	}
	cur := &model.AnalysisResult{
		Overall: model.Overall{RiskScore: 55},
		Clauses: []model.Clause{
			clause("ip", "ip", model.RiskMedium),
			clause("arb", "arbitration", model.RiskMedium),
			clause("cap", "liability", model.RiskMedium),
			clause("term", "termination", model.RiskLow),
		},
	}

	d := Diff(prev, cur)

	if d.RiskScoreDelta != -17 || d.PreviousScore != 72 || d.CurrentScore != 55 {
		t.Errorf("Expected 72 -> 55 (-17), got %d -> %d (%d)", d.PreviousScore, d.CurrentScore, d.RiskScoreDelta)
	}
	if len(d.Added) != 2 || d.Added[0].ID != "ip" || d.Added[1].ID != "term" {
		t.Errorf("Expected ip and term added in current order, got %+v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].ID != "auto" {
		t.Errorf("Expected auto removed, got %+v", d.Removed)
	}
	want := RiskChange{ID: "arb", Category: "arbitration", From: model.RiskHigh, To: model.RiskMedium}
	if len(d.Changed) != 1 || d.Changed[0] != want {
		t.Errorf("Expected %+v, got %+v", want, d.Changed)
	}
	if d.Unchanged() {
		t.Error("Expected a changed diff")
	}
}

func TestDiff_Identical(t *testing.T) {
	a := groundedAnalysis(0.9)
	d := Diff(a, a)

	if !d.Unchanged() {
		t.Errorf("Expected no changes, got %+v", d)
	}
	if d.Added == nil || d.Removed == nil || d.Changed == nil {
		t.Error("Expected empty, non-nil lists")
	}
}

func TestDiff_ScoreOnly(t *testing.T) {
	prev := groundedAnalysis(0.9)
	cur := groundedAnalysis(0.9)
	cur.Overall.RiskScore = 10

	d := Diff(prev, cur)
	if d.Unchanged() || d.RiskScoreDelta != 10 {
		t.Errorf("Expected a +10 score change, got %+v", d)
	}
}

func TestDiff_NilAnalyses(t *testing.T) {
	cur := &model.AnalysisResult{
		Overall: model.Overall{RiskScore: 40},
		Clauses: []model.Clause{clause("arb", "arbitration", model.RiskHigh)},
	}

	d := Diff(nil, cur)
	if d.RiskScoreDelta != 40 || len(d.Added) != 1 || len(d.Removed) != 0 {
		t.Errorf("Expected everything added against nil, got %+v", d)
	}

	d = Diff(cur, nil)
	if d.RiskScoreDelta != -40 || len(d.Removed) != 1 || len(d.Added) != 0 {
		t.Errorf("Expected everything removed against nil, got %+v", d)
	}

	if !Diff(nil, nil).Unchanged() {
		t.Error("Expected two nil analyses to be unchanged")
	}
}

func TestDiff_RepeatedIDComparesLast(t *testing.T) {
	prev := &model.AnalysisResult{Clauses: []model.Clause{
		clause("c1", "arbitration", model.RiskHigh),
		clause("c1", "arbitration", model.RiskLow),
	}}
	cur := &model.AnalysisResult{Clauses: []model.Clause{
		clause("c1", "arbitration", model.RiskLow),
	}}

	d := Diff(prev, cur)
	if len(d.Changed) != 0 {
		t.Errorf("Expected the last previous c1 (low) to match, got %+v", d.Changed)
	}
	if len(d.Removed) != 0 || len(d.Added) != 0 {
		t.Errorf("Expected no added or removed clauses, got %+v", d)
	}
}
