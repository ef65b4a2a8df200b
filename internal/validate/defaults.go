package validate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// ApplyDefaults fills schema defaults and trims free text in place
func ApplyDefaults(a *model.AnalysisResult) {
	if a.Overall.ContractType == "" {
		a.Overall.ContractType = model.ContractToS
	}
	if a.Overall.Jurisdiction == "" {
		a.Overall.Jurisdiction = model.JurisdictionUSGeneral
	}
	if a.Overall.Persona == "" {
		a.Overall.Persona = model.PersonaCompany
	}

	for i := range a.Clauses {
		c := &a.Clauses[i]
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			c.ID = fmt.Sprintf("clause-%d", i+1)
		}
		c.Title = strings.TrimSpace(c.Title)
		c.Category = strings.TrimSpace(c.Category)
		if c.Category == "" {
			c.Category = "other"
		}
		c.Risk = model.RiskLevel(strings.ToLower(strings.TrimSpace(string(c.Risk))))
		if c.WhoBenefits == "" {
			c.WhoBenefits = "neutral"
		}
		if c.MissingInfoQuestions == nil {
			c.MissingInfoQuestions = []string{}
		}
		if c.EvidenceQuotes == nil {
			c.EvidenceQuotes = []model.EvidenceQuote{}
		}
		for j := range c.EvidenceQuotes {
			q := &c.EvidenceQuotes[j]
			q.Quote = strings.TrimSpace(q.Quote)
			q.Location = strings.TrimSpace(q.Location)
		}
	}

	if a.MissingOrWeak == nil {
		a.MissingOrWeak = []model.MissingClause{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
}

// ApplyRequestDefaults fills request defaults in place
func ApplyRequestDefaults(r *model.AnalyzeRequest) {
	if r.ContractType == "" {
		r.ContractType = model.ContractToS
	}
	if r.Jurisdiction == "" {
		r.Jurisdiction = model.JurisdictionUSGeneral
	}
	if r.Persona == "" {
		r.Persona = model.PersonaCompany
	}
	if strings.TrimSpace(r.ModelID) == "" {
		r.ModelID = model.DefaultModelID
	}
}
