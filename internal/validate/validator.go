// Package validate checks LLM analyses and analyze requests against the
// contract analysis schema.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/clauselens/internal/model"
)

// Violation is one field that failed a schema rule
type Violation struct {
	Field string `json:"field"` // e.g. clauses[0].evidence_quotes
	Rule  string `json:"rule"`  // e.g. min
	Param string `json:"param,omitempty"`
}

func (v Violation) String() string {
	if v.Param != "" {
		return fmt.Sprintf("%s: failed %s=%s", v.Field, v.Rule, v.Param)
	}
	return fmt.Sprintf("%s: failed %s", v.Field, v.Rule)
}

// SchemaError lists every violation found in one document
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("schema validation failed (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Validator validates analysis documents and requests
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the schema rules registered
func NewValidator() *Validator {
	v := validator.New()

	// Report violations by JSON field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("clause_category", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.ClauseCategories, fl.Field().String())
	})

	return &Validator{validate: v}
}

// Analysis strictly validates an analysis: at least one clause, at least one
// evidence quote per clause, enums and bounds.
func (v *Validator) Analysis(a *model.AnalysisResult) error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	return v.check(a)
}

// Request validates an analyze request
func (v *Validator) Request(r *model.AnalyzeRequest) error {
	if r == nil {
		return errors.New("request is nil")
	}
	return v.check(r)
}

func (v *Validator) check(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	schemaErr := &SchemaError{}
	for _, fe := range fieldErrs {
		schemaErr.Violations = append(schemaErr.Violations, Violation{
			Field: trimRoot(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return schemaErr
}

// trimRoot drops the struct type name from a validator namespace
func trimRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Decode parses raw model output into an analysis and applies defaults.
// Markdown code fences and text around the JSON object are ignored.
// In strict mode schema violations are returned as a *SchemaError;
// otherwise they are returned as warnings alongside the analysis.
func (v *Validator) Decode(data []byte, strict bool) (*model.AnalysisResult, []string, error) {
	raw := ExtractJSON(string(data))
	if raw == "" {
		return nil, nil, &SchemaError{Violations: []Violation{{Field: "(root)", Rule: "json_object"}}}
	}

	var analysis model.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, nil, fmt.Errorf("decode analysis: %w", err)
	}

	ApplyDefaults(&analysis)

	err := v.Analysis(&analysis)
	if err == nil {
		return &analysis, nil, nil
	}

	var schemaErr *SchemaError
	if strict || !errors.As(err, &schemaErr) {
		return nil, nil, err
	}

	warnings := make([]string, len(schemaErr.Violations))
	for i, vio := range schemaErr.Violations {
		warnings[i] = vio.String()
	}
	return &analysis, warnings, nil
}

// ExtractJSON returns the outermost JSON object in s, or "" if there is none
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
