package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/clauselens/internal/model"
)

const validAnalysisJSON = `{
  "overall": {"risk_score": 72, "risk_level": "high", "confidence": 0.8},
  "clauses": [{
    "id": "arb-1",
    "title": "Arbitration Agreement",
    "category": "arbitration",
    "risk": "High",
    "why_risky": "Waives the right to sue in court.",
    "evidence_quotes": [{"quote": "  resolve disputes exclusively by binding arbitration ", "location": "Section 9"}],
    "pushback": "Ask for a small-claims carve-out.",
    "suggested_revision": "Either party may bring claims in small claims court.",
    "severity_reasoning": "Removes access to courts and class actions."
  }]
}`

func TestDecode_Valid(t *testing.T) {
	v := NewValidator()

	analysis, warnings, err := v.Decode([]byte(validAnalysisJSON), true)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	// defaults
	if analysis.Overall.ContractType != model.ContractToS {
		t.Errorf("expected default contract type tos, got %s", analysis.Overall.ContractType)
	}
	if analysis.Overall.Jurisdiction != model.JurisdictionUSGeneral {
		t.Errorf("expected default jurisdiction us_general, got %s", analysis.Overall.Jurisdiction)
	}
	if analysis.Overall.Persona != model.PersonaCompany {
		t.Errorf("expected default persona company, got %s", analysis.Overall.Persona)
	}

	c := analysis.Clauses[0]
	if c.Risk != model.RiskHigh {
		t.Errorf("expected risk to be lower-cased to high, got %s", c.Risk)
	}
	if c.WhoBenefits != "neutral" {
		t.Errorf("expected default who_benefits neutral, got %s", c.WhoBenefits)
	}
	if c.EvidenceQuotes[0].Quote != "resolve disputes exclusively by binding arbitration" {
		t.Errorf("expected trimmed quote, got %q", c.EvidenceQuotes[0].Quote)
	}
	if c.MissingInfoQuestions == nil || analysis.Recommendations == nil || analysis.MissingOrWeak == nil {
		t.Error("expected nil slices to default to empty")
	}
}

func TestDecode_CodeFence(t *testing.T) {
	v := NewValidator()
	fenced := "Here you go:\n```json\n" + validAnalysisJSON + "\n```"

	if _, _, err := v.Decode([]byte(fenced), true); err != nil {
		t.Fatalf("Decode failed on fenced output: %v", err)
	}
}

func TestDecode_NoJSON(t *testing.T) {
	v := NewValidator()

	_, _, err := v.Decode([]byte("I cannot help with that."), true)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	v := NewValidator()

	_, _, err := v.Decode([]byte(`{"overall": {"risk_score": "high"}}`), true)
	if err == nil {
		t.Fatal("expected decode error")
	}
}

const degradedAnalysisJSON = `{
  "overall": {"risk_score": 140, "risk_level": "extreme", "confidence": 0.4},
  "clauses": [{
    "id": "cap",
    "category": "Liability Cap",
    "risk": "medium",
    "why_risky": "Caps damages.",
    "evidence_quotes": [],
    "pushback": "Raise the cap.",
    "suggested_revision": "Cap at 2x fees.",
    "severity_reasoning": "Limits recovery."
  }]
}`

func TestDecode_StrictRejectsDegraded(t *testing.T) {
	v := NewValidator()

	_, _, err := v.Decode([]byte(degradedAnalysisJSON), true)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}

	fields := make(map[string]string)
	for _, vio := range schemaErr.Violations {
		fields[vio.Field] = vio.Rule
	}
	want := map[string]string{
		"overall.risk_score":         "max",
		"overall.risk_level":         "oneof",
		"clauses[0].category":        "clause_category",
		"clauses[0].evidence_quotes": "min",
	}
	for field, rule := range want {
		if fields[field] != rule {
			t.Errorf("expected %s to fail %s, violations: %v", field, rule, schemaErr.Violations)
		}
	}
}

func TestDecode_LenientKeepsDegraded(t *testing.T) {
	v := NewValidator()

	analysis, warnings, err := v.Decode([]byte(degradedAnalysisJSON), false)
	if err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("expected warnings for degraded analysis")
	}
	if len(analysis.Clauses) != 1 || len(analysis.Clauses[0].EvidenceQuotes) != 0 {
		t.Errorf("expected degraded clause to survive, got %+v", analysis.Clauses)
	}
}

func TestAnalysis_RequiresClauses(t *testing.T) {
	v := NewValidator()
	a := &model.AnalysisResult{Overall: model.Overall{RiskLevel: model.RiskLow}}
	ApplyDefaults(a)

	err := v.Analysis(a)
	if err == nil || !strings.Contains(err.Error(), "clauses") {
		t.Errorf("expected clauses violation, got %v", err)
	}
}

func TestApplyDefaults_AssignsIDs(t *testing.T) {
	a := &model.AnalysisResult{Clauses: []model.Clause{{}, {ID: " keep "}}}

	ApplyDefaults(a)

	if a.Clauses[0].ID != "clause-1" {
		t.Errorf("expected generated id clause-1, got %q", a.Clauses[0].ID)
	}
	if a.Clauses[1].ID != "keep" {
		t.Errorf("expected trimmed id keep, got %q", a.Clauses[1].ID)
	}
	if a.Clauses[0].Category != "other" {
		t.Errorf("expected default category other, got %q", a.Clauses[0].Category)
	}
}

func TestRequest(t *testing.T) {
	v := NewValidator()

	req := &model.AnalyzeRequest{ContractText: strings.Repeat("contract ", 10)}
	ApplyRequestDefaults(req)
	if err := v.Request(req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.ModelID != model.DefaultModelID {
		t.Errorf("expected default model %s, got %s", model.DefaultModelID, req.ModelID)
	}

	short := &model.AnalyzeRequest{ContractText: "too short"}
	ApplyRequestDefaults(short)
	if err := v.Request(short); err == nil {
		t.Error("expected error for short contract text")
	}

	badEnum := &model.AnalyzeRequest{ContractText: strings.Repeat("contract ", 10), Persona: "lawyer"}
	ApplyRequestDefaults(badEnum)
	var schemaErr *SchemaError
	if err := v.Request(badEnum); !errors.As(err, &schemaErr) {
		t.Errorf("expected SchemaError for bad persona, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prefix {\"a\":{\"b\":2}} suffix", `{"a":{"b":2}}`},
		{"no object", ""},
		{"} backwards {", ""},
	}
	for _, tt := range tests {
		if got := ExtractJSON(tt.in); got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
