package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// SystemPrompt frames the analysis. It is decision support, not legal advice.
const SystemPrompt = `You are a contract risk analyzer. You help non-lawyers understand contracts; you do not give legal advice.

Turn the contract text into structured, explainable risk findings. Read it for risk exposure, power imbalance, missing protections and ambiguous or predatory language.

Principles:
1. Evidence first. Never invent clauses. Every risk cites text that appears in the contract.
2. Plain English. Explain each risk as you would to a smart non-lawyer.
3. Conservative reading. Flag unclear or missing information instead of guessing.
4. Balance. State who benefits from each clause: company, user, employee or neutral.

Look for non-compete, IP ownership, termination, arbitration and waivers of rights, liability limits, indemnification, data use and privacy, automatic renewal, unilateral changes, governing law and one-sided obligations. Also report standard clauses that are missing or weak.

Scoring: give each clause a risk of low, medium or high, and the contract an overall risk_score from 0 to 100. Risk rises with vague or broad language, rights waived without benefit, one-sided obligations and severe enforcement consequences.

Confidence: report a confidence from 0.0 to 1.0. Lower it when the text is incomplete, references missing sections, or the contract type is unclear. Below 0.6, say that review is recommended and add missing_info_questions.`

// TechnicalRequirements pins the evidence contract the highlighter depends on
const TechnicalRequirements = `

TECHNICAL REQUIREMENTS FOR THIS ANALYSIS:
For EVERY clause you identify, provide evidence_quotes with:
- quote: the EXACT verbatim text from the contract, copied word for word, at least 15 words
- location: the precise location, such as "Section 7", "Paragraph 3" or "Article 2.3"

Return a single JSON object with this shape and nothing else:
{
  "overall": {"risk_score": 0-100, "risk_level": "low|medium|high", "confidence": 0.0-1.0,
              "contract_type": "...", "jurisdiction": "...", "persona": "..."},
  "clauses": [{
    "id": "...", "title": "...", "category": "` + categoryList + `",
    "risk": "low|medium|high", "who_benefits": "company|user|employee|neutral",
    "plain_english": "...", "why_risky": "...",
    "evidence_quotes": [{"quote": "...", "location": "..."}],
    "pushback": "...", "suggested_revision": "...",
    "missing_info_questions": ["..."], "severity_reasoning": "..."
  }],
  "missing_or_weak_clauses": [{"category": "...", "why_it_matters": "...", "recommended_language": "..."}],
  "recommendations": ["..."]
}`

const categoryList = "arbitration|liability|termination|ip|privacy|data_retention|payment|warranty|governing_law|assignment|non_compete|nda|other"

// RetryReminder is appended to the user prompt on retry attempts
const RetryReminder = "\n\nIMPORTANT: Extract verbatim quotes from the actual contract text. Every clause MUST include at least one exact evidence quote with proper location. Analyze thoroughly - don't skip major sections."

// BuildSystemPrompt returns the system prompt with the output contract
func BuildSystemPrompt() string {
	return SystemPrompt + TechnicalRequirements
}

// BuildUserPrompt embeds the contract and the per-request perspective
func BuildUserPrompt(req model.AnalyzeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Perform a comprehensive legal analysis of this %s contract from the perspective of a %s under %s jurisdiction.\n\n",
		req.ContractType, req.Persona, req.Jurisdiction)
	b.WriteString("CONTRACT TEXT:\n")
	b.WriteString(req.ContractText)
	b.WriteString("\n\nANALYSIS REQUIREMENTS:\n")
	b.WriteString("- Identify ALL risky, unfair, or unusual clauses\n")
	b.WriteString("- For EACH clause give a clear title, a plain_english explanation, evidence_quotes and why_risky\n")
	b.WriteString("- Quotes: copy the EXACT text word for word from the contract above (15 to 200 words)\n")
	b.WriteString("- Locations: say exactly where the quote appears (e.g. \"Section 7, Limitation of Liability\")\n")
	fmt.Fprintf(&b, "- Explain each risk from the %s perspective and who benefits\n", req.Persona)
	b.WriteString("- Provide negotiation language (pushback) and concrete revisions\n")
	b.WriteString("- Identify missing protections, the overall risk score and actionable recommendations\n\n")
	b.WriteString("CRITICAL: Do NOT invent or paraphrase quotes. Users need to see the exact language you are analyzing.\n\n")
	fmt.Fprintf(&b, "Focus on real issues that matter to a %s.", req.Persona)

	return b.String()
}
