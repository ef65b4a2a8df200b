package model

// AnalysisResult is the structured contract analysis produced by an LLM
type AnalysisResult struct {
	Overall         Overall         `json:"overall" yaml:"overall"`
	Clauses         []Clause        `json:"clauses" yaml:"clauses" validate:"min=1,dive"`
	MissingOrWeak   []MissingClause `json:"missing_or_weak_clauses" yaml:"missing_or_weak_clauses" validate:"dive"`
	Recommendations []string        `json:"recommendations" yaml:"recommendations"`
}

// Overall summarizes the whole contract
type Overall struct {
	RiskScore    int          `json:"risk_score" yaml:"risk_score" validate:"min=0,max=100"`         // 0-100
	RiskLevel    RiskLevel    `json:"risk_level" yaml:"risk_level" validate:"oneof=low medium high"` // low, medium, high
	Confidence   float64      `json:"confidence" yaml:"confidence" validate:"min=0,max=1"`           // 0.0-1.0
	ContractType ContractType `json:"contract_type" yaml:"contract_type" validate:"oneof=tos nda employment_offer saas_agreement lease other"`
	Jurisdiction Jurisdiction `json:"jurisdiction" yaml:"jurisdiction" validate:"oneof=us_general ca ny other"`
	Persona      Persona      `json:"persona" yaml:"persona" validate:"oneof=founder company user employee"`
}

// Clause is one risky or notable provision identified in the contract
type Clause struct {
	ID                   string          `json:"id" yaml:"id" validate:"required"`
	Title                string          `json:"title,omitempty" yaml:"title,omitempty"`
	Category             string          `json:"category" yaml:"category" validate:"clause_category"`
	Risk                 RiskLevel       `json:"risk" yaml:"risk" validate:"oneof=low medium high"`
	WhoBenefits          string          `json:"who_benefits" yaml:"who_benefits" validate:"oneof=company user employee neutral"`
	PlainEnglish         string          `json:"plain_english,omitempty" yaml:"plain_english,omitempty"`
	WhyRisky             string          `json:"why_risky" yaml:"why_risky" validate:"min=5"`
	EvidenceQuotes       []EvidenceQuote `json:"evidence_quotes" yaml:"evidence_quotes" validate:"min=1,dive"`
	Pushback             string          `json:"pushback" yaml:"pushback" validate:"min=5"`
	SuggestedRevision    string          `json:"suggested_revision" yaml:"suggested_revision" validate:"min=5"`
	MissingInfoQuestions []string        `json:"missing_info_questions" yaml:"missing_info_questions"`
	SeverityReasoning    string          `json:"severity_reasoning" yaml:"severity_reasoning" validate:"min=5"`
}

// DisplayTitle returns the title, falling back to category, then "Clause"
func (c Clause) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Category != "" {
		return c.Category
	}
	return "Clause"
}

// EvidenceQuote is an excerpt the model attributes to a clause.
// The quote is claimed verbatim but may be paraphrased or truncated.
type EvidenceQuote struct {
	Quote    string `json:"quote" yaml:"quote" validate:"min=5"`
	Location string `json:"location" yaml:"location" validate:"min=2"` // e.g. "Section 7"
}

// MissingClause is a standard protection the contract lacks or handles weakly
type MissingClause struct {
	Category            string `json:"category" yaml:"category" validate:"min=2"`
	WhyItMatters        string `json:"why_it_matters" yaml:"why_it_matters" validate:"min=5"`
	RecommendedLanguage string `json:"recommended_language" yaml:"recommended_language" validate:"min=5"`
}

// RiskLevel classifies a clause or contract
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ContractType is the kind of agreement under analysis
type ContractType string

const (
	ContractToS             ContractType = "tos"
	ContractNDA             ContractType = "nda"
	ContractEmploymentOffer ContractType = "employment_offer"
	ContractSaaS            ContractType = "saas_agreement"
	ContractLease           ContractType = "lease"
	ContractOther           ContractType = "other"
)

// Jurisdiction is the governing-law context of the analysis
type Jurisdiction string

const (
	JurisdictionUSGeneral Jurisdiction = "us_general"
	JurisdictionCA        Jurisdiction = "ca"
	JurisdictionNY        Jurisdiction = "ny"
	JurisdictionOther     Jurisdiction = "other"
)

// Persona is the party from whose perspective the contract is read
type Persona string

const (
	PersonaFounder  Persona = "founder"
	PersonaCompany  Persona = "company"
	PersonaUser     Persona = "user"
	PersonaEmployee Persona = "employee"
)

// ClauseCategories lists the categories the analysis schema accepts
var ClauseCategories = []string{
	"arbitration", "liability", "termination", "ip", "privacy", "data_retention",
	"payment", "warranty", "governing_law", "assignment", "non_compete", "nda", "other",
}
