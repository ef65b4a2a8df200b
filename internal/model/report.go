package model

import "time"

// Report is the complete clauselens output for one contract
type Report struct {
	RunID      string     `json:"run_id" yaml:"run_id"`                             // Unique identifier of this run
	Subject    string     `json:"subject" yaml:"subject"`                           // Human-readable name (file name, URL slug)
	Source     string     `json:"source" yaml:"source"`                             // Path or URL that was analyzed
	AnalyzedAt time.Time  `json:"analyzed_at" yaml:"analyzed_at"`                   // When the analysis finished
	FetchMeta  *FetchMeta `json:"fetch_meta,omitempty" yaml:"fetch_meta,omitempty"` // HTTP metadata for URL sources

	Document   DocumentStats        `json:"document" yaml:"document"`
	Analysis   AnalysisResult       `json:"analysis" yaml:"analysis"`
	Paragraphs []AnnotatedParagraph `json:"paragraphs" yaml:"paragraphs"` // Highlighted document

	Score      Score          `json:"score" yaml:"score"`                           // Grounding index and signals
	Metrics    *Metrics       `json:"metrics,omitempty" yaml:"metrics,omitempty"`   // Nil for offline highlighting
	Guardrails []GuardrailHit `json:"guardrails,omitempty" yaml:"guardrails,omitempty"`
	Warnings   []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"` // Lenient schema violations and similar
	Principles Principles     `json:"principles" yaml:"principles"`

	StorageURL string `json:"storage_url,omitempty" yaml:"storage_url,omitempty"` // Archived copy, if uploaded
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"status_code" yaml:"status_code"`
	ContentType  string            `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// DocumentStats describes the analyzed text
type DocumentStats struct {
	Characters            int `json:"characters" yaml:"characters"`
	Paragraphs            int `json:"paragraphs" yaml:"paragraphs"` // literal \n segments
	NonBlankParagraphs    int `json:"non_blank_paragraphs" yaml:"non_blank_paragraphs"`
	NumberedSections      int `json:"numbered_sections" yaml:"numbered_sections"` // lines like "7. ..."
	ClauseSegments        int `json:"clause_segments" yaml:"clause_segments"`
	HighlightedParagraphs int `json:"highlighted_paragraphs" yaml:"highlighted_paragraphs"`
}

// Score represents the transparent grounding breakdown
type Score struct {
	Index      int      `json:"index" yaml:"index"`           // Grounding index (0-100)
	Confidence string   `json:"confidence" yaml:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals" yaml:"signals"`       // Diagnostic signals with transparent data
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Severity    SignalSeverity         `json:"severity" yaml:"severity"`
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"` // Formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalClauseCoverage   SignalType = "clause_coverage"   // Clauses located in the document
	SignalQuoteFidelity    SignalType = "quote_fidelity"    // Quotes found verbatim after normalization
	SignalHighlightDensity SignalType = "highlight_density" // Highlighted share of paragraphs
	SignalRiskDistribution SignalType = "risk_distribution" // High/medium/low clause counts
	SignalLowConfidence    SignalType = "low_confidence"    // Model confidence below 0.6
	SignalMissingClauses   SignalType = "missing_clauses"   // Missing or weak protections
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Principles documents which principles the report was produced under
type Principles struct {
	NotLegalAdvice bool `json:"not_legal_advice" yaml:"not_legal_advice"` // Decision support only
	Transparent    bool `json:"transparent" yaml:"transparent"`           // All scoring explainable
	EvidenceBased  bool `json:"evidence_based" yaml:"evidence_based"`     // Highlights come from quoted text
}

// DefaultPrinciples returns the standard clauselens principles
func DefaultPrinciples() Principles {
	return Principles{
		NotLegalAdvice: true,
		Transparent:    true,
		EvidenceBased:  true,
	}
}

// Metrics records cost and latency of one LLM analysis
type Metrics struct {
	ProcessingTimeMS int64      `json:"processing_time_ms" yaml:"processing_time_ms"`
	TokensUsed       TokenUsage `json:"tokens_used" yaml:"tokens_used"`
	ModelUsed        string     `json:"model_used" yaml:"model_used"`
	Provider         string     `json:"provider" yaml:"provider"`
	EstimatedCost    float64    `json:"estimated_cost" yaml:"estimated_cost"` // USD
	RetryCount       int        `json:"retry_count" yaml:"retry_count"`
	Temperature      float64    `json:"temperature" yaml:"temperature"`
	TokensEstimated  bool       `json:"tokens_estimated,omitempty" yaml:"tokens_estimated,omitempty"` // usage approximated from length
	Cached           bool       `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// TokenUsage counts prompt and completion tokens
type TokenUsage struct {
	Input  int `json:"input" yaml:"input"`
	Output int `json:"output" yaml:"output"`
	Total  int `json:"total" yaml:"total"`
}

// GuardrailHit is one sensitive match found in the input
type GuardrailHit struct {
	Type  string `json:"type" yaml:"type"` // ssn, phone, email, profanity
	Match string `json:"match" yaml:"match"`
}

// AnalyzeRequest is the input of one analysis
type AnalyzeRequest struct {
	ContractText string       `json:"contract_text" validate:"min=50"`
	ContractType ContractType `json:"contract_type" validate:"oneof=tos nda employment_offer saas_agreement lease other"`
	Jurisdiction Jurisdiction `json:"jurisdiction" validate:"oneof=us_general ca ny other"`
	Persona      Persona      `json:"persona" validate:"oneof=founder company user employee"`
	ModelID      string       `json:"model_id"`
}

// DefaultModelID is used when a request names no model
const DefaultModelID = "gpt-4o-mini"
