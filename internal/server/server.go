// Package server exposes contract analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ppiankov/clauselens/internal/extract"
	"github.com/ppiankov/clauselens/internal/guard"
	"github.com/ppiankov/clauselens/internal/llm"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/validate"
	"github.com/ppiankov/clauselens/internal/worker"
)

// maxBodyBytes bounds request bodies; the character cap is enforced separately
const maxBodyBytes = 10 << 20

// minPDFText is the shortest extracted text accepted from an uploaded PDF
const minPDFText = 10

// readyTimeout bounds the provider availability check behind /ready
const readyTimeout = 10 * time.Second

// Router serves the contract analysis API
type Router struct {
	pipeline  *pipeline.Pipeline
	validator *validate.Validator
	clients   *worker.Limiter // per client IP on analyze; nil disables
}

// NewRouter builds the HTTP handler with request IDs, logging, panic
// recovery and CORS
func NewRouter(p *pipeline.Pipeline, cfg model.ServerConfig) http.Handler {
	r := &Router{pipeline: p, validator: validate.NewValidator()}
	if rpm := cfg.ClientRequestsPerMinute; rpm > 0 {
		r.clients = worker.NewLimiter(float64(rpm)/60, rpm)
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	mux.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/ready", r.handleReady)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/contract/analyze", r.wrap(r.throttle(r.handleAnalyze)))
		rt.Post("/contract/highlight", r.wrap(r.handleHighlight))
		rt.Post("/contract/check", r.wrap(r.handleCheck))
		rt.Post("/extract-pdf", r.wrap(r.handleExtractPDF))
	})

	return mux
}

// Serve runs the API until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, p *pipeline.Pipeline, cfg model.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(p, cfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// apiError is an error with a specific status and JSON body
type apiError struct {
	status int
	body   map[string]any
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %v", e.status, e.body["error"])
}

func badRequest(details any) *apiError {
	return &apiError{status: http.StatusBadRequest, body: map[string]any{"error": "Invalid request", "details": details}}
}

// throttle rejects clients that exceed server.client_requests_per_minute
func (r *Router) throttle(h handlerFunc) handlerFunc {
	if r.clients == nil {
		return h
	}
	return func(w http.ResponseWriter, req *http.Request) error {
		if !r.clients.Allow(clientKey(req)) {
			return &apiError{status: http.StatusTooManyRequests, body: map[string]any{
				"error":   "Too many requests",
				"details": "analysis request rate exceeded for this client, try again shortly",
			}}
		}
		return h(w, req)
	}
}

// clientKey is the client IP without its port
func clientKey(req *http.Request) string {
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	return req.RemoteAddr
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
		if err := h(w, req); err != nil {
			status, body := errorResponse(err)
			writeJSON(w, status, body)
		}
	}
}

// errorResponse maps pipeline and analyzer errors to HTTP responses
func errorResponse(err error) (int, map[string]any) {
	var aErr *apiError
	if errors.As(err, &aErr) {
		return aErr.status, aErr.body
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge, map[string]any{"error": "Request body too large", "details": err.Error()}
	}

	var sErr *guard.SensitiveError
	if errors.As(err, &sErr) {
		return http.StatusUnprocessableEntity, map[string]any{"error": sErr.Error(), "hits": sErr.Hits}
	}

	if errors.Is(err, pipeline.ErrInputTooLong) {
		return http.StatusRequestEntityTooLarge, map[string]any{"error": "Contract text too long", "details": err.Error()}
	}

	if errors.Is(err, llm.ErrProviderDisabled) {
		return http.StatusServiceUnavailable, map[string]any{"error": "LLM analysis is not configured"}
	}

	retries := llm.RetryCount(err)

	if llm.IsRateLimit(err) {
		return http.StatusTooManyRequests, map[string]any{
			"error":         "rate limit reached",
			"details":       err.Error(),
			"is_rate_limit": true,
			"retry_count":   retries,
		}
	}

	if errors.Is(err, llm.ErrInvalidRequest) {
		return http.StatusBadRequest, map[string]any{"error": "Invalid request", "details": err.Error()}
	}

	return http.StatusInternalServerError, map[string]any{
		"error":       "Analysis failed",
		"details":     err.Error(),
		"retry_count": retries,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(req *http.Request, v any) error {
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest(err.Error())
	}
	return nil
}

// analyzeRequest is the body of POST /api/contract/analyze
type analyzeRequest struct {
	model.AnalyzeRequest
	AllowSensitive bool `json:"allow_sensitive"`
}

// analyzeResponse is the body of a successful analysis
type analyzeResponse struct {
	Analysis       *model.AnalysisResult      `json:"analysis"`
	Paragraphs     []model.AnnotatedParagraph `json:"paragraphs"`
	Score          model.Score                `json:"score"`
	ProcessingTime int64                      `json:"processing_time"` // milliseconds
	TokensUsed     model.TokenUsage           `json:"tokens_used"`
	ModelUsed      string                     `json:"model_used"`
	Provider       string                     `json:"provider"`
	EstimatedCost  float64                    `json:"estimated_cost"`
	RetryCount     int                        `json:"retry_count"`
	Temperature    float64                    `json:"temperature"`
	Cached         bool                       `json:"cached,omitempty"`
	Warnings       []string                   `json:"warnings,omitempty"`
	PromptStrategy string                     `json:"prompt_strategy"`
	OutputFormat   string                     `json:"output_format"`
}

// POST /api/contract/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}

	validate.ApplyRequestDefaults(&body.AnalyzeRequest)
	if err := r.validator.Request(&body.AnalyzeRequest); err != nil {
		var sErr *validate.SchemaError
		if errors.As(err, &sErr) {
			return badRequest(sErr.Violations)
		}
		return badRequest(err.Error())
	}

	result, paragraphs, score, err := r.pipeline.Analyze(req.Context(), body.AnalyzeRequest, body.AllowSensitive)
	if err != nil {
		return err
	}

	m := result.Metrics
	writeJSON(w, http.StatusOK, analyzeResponse{
		Analysis:       result.Analysis,
		Paragraphs:     paragraphs,
		Score:          score,
		ProcessingTime: m.ProcessingTimeMS,
		TokensUsed:     m.TokensUsed,
		ModelUsed:      m.ModelUsed,
		Provider:       m.Provider,
		EstimatedCost:  m.EstimatedCost,
		RetryCount:     m.RetryCount,
		Temperature:    m.Temperature,
		Cached:         m.Cached,
		Warnings:       result.Warnings,
		PromptStrategy: "Structured extraction + explainability",
		OutputFormat:   "Strict JSON (schema-validated)",
	})
	return nil
}

// GET /ready
func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if !r.pipeline.AnalysisEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "disabled", "error": "LLM analysis is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
	defer cancel()

	provider := r.pipeline.ProviderName()
	if !r.pipeline.ProviderReady(ctx) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "provider": provider})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "provider": provider})
}

// highlightRequest is the body of POST /api/contract/highlight
type highlightRequest struct {
	ContractText string                `json:"contract_text"`
	Analysis     *model.AnalysisResult `json:"analysis"`
}

// POST /api/contract/highlight
func (r *Router) handleHighlight(w http.ResponseWriter, req *http.Request) error {
	var body highlightRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.ContractText) == "" {
		return badRequest("contract_text is required")
	}
	if body.Analysis == nil {
		return badRequest("analysis is required")
	}
	if err := r.pipeline.CheckLength(body.ContractText); err != nil {
		return err
	}

	// Degraded analyses still highlight what they can
	validate.ApplyDefaults(body.Analysis)

	report := r.pipeline.Highlight(body.ContractText, body.Analysis)
	writeJSON(w, http.StatusOK, map[string]any{
		"paragraphs": report.Paragraphs,
		"score":      report.Score,
		"document":   report.Document,
	})
	return nil
}

// POST /api/contract/check
func (r *Router) handleCheck(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ContractText string `json:"contract_text"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}

	result := guard.Check(body.ContractText)
	resp := map[string]any{"safe": result.Safe, "hits": result.Hits}
	if !result.Safe {
		resp["message"] = guard.WarningMessage(result.Hits)
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// POST /api/extract-pdf (multipart form field "file")
func (r *Router) handleExtractPDF(w http.ResponseWriter, req *http.Request) error {
	file, _, err := req.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return &apiError{status: http.StatusBadRequest, body: map[string]any{"error": "No file provided"}}
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	doc, err := extract.PDFTextFromBytes(data)
	if err != nil {
		return &apiError{status: http.StatusBadRequest, body: map[string]any{"error": "Failed to extract PDF text", "details": err.Error()}}
	}

	text := strings.TrimSpace(doc.Text)
	if len(text) < minPDFText {
		return &apiError{status: http.StatusBadRequest, body: map[string]any{"error": "PDF appears to be empty or contains only images"}}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":       text,
		"page_count": doc.PageCount,
		"truncated":  doc.Truncated,
	})
	return nil
}
