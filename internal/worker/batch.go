package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/clauselens/internal/model"
)

// Analyzer produces a report for one target (a file path or URL)
type Analyzer interface {
	AnalyzeTarget(ctx context.Context, target string) (*model.Report, error)
}

// TargetJob analyzes one batch target
type TargetJob struct {
	Index    int
	Target   string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute executes the analysis job
func (j *TargetJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &TargetResult{Index: j.Index, Target: j.Target}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, HostKey(j.Target)); err != nil {
			result.Error = fmt.Errorf("throttle wait: %w", err)
			return result
		}
	}

	result.Report, result.Error = j.Analyzer.AnalyzeTarget(ctx, j.Target)
	result.Duration = time.Since(start)
	return result
}

// TargetResult represents the result of one batch target
type TargetResult struct {
	Index    int // position in the input list
	Target   string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the result
func (r *TargetResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple targets concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. Job starts are throttled
// per target host at requestsPerSecond; zero disables throttling.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessTargets analyzes targets concurrently and returns results in input
// order. Cancelling ctx shuts the pool down; targets that never ran report
// the context error.
func (b *BatchProcessor) ProcessTargets(ctx context.Context, targets []string) []*TargetResult {
	if len(targets) == 0 {
		return []*TargetResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(&TargetJob{
			Index:    i,
			Target:   target,
			Analyzer: b.analyzer,
			Limiter:  b.limiter,
		})
	}

	var results []Result
	if ctx.Err() != nil {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	out := make([]*TargetResult, len(targets))
	for _, r := range results {
		tr := r.(*TargetResult)
		out[tr.Index] = tr
	}
	for i, tr := range out {
		if tr == nil {
			out[i] = &TargetResult{Index: i, Target: targets[i], Error: fmt.Errorf("not run: %w", context.Cause(ctx))}
		}
	}

	return out
}

// ProcessFile reads targets from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*TargetResult, error) {
	targets, err := ReadTargetsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	return b.ProcessTargets(ctx, targets), nil
}

// ReadTargetsFromFile reads targets from a file (one path or URL per line).
// Blank lines and # comments are skipped and duplicates dropped.
func ReadTargetsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var targets []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			targets = append(targets, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return targets, nil
}

// Summary counts batch outcomes
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	HighRisk  int // succeeded reports whose overall risk is high
}

// Summarize counts the outcomes of a batch
func Summarize(results []*TargetResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Error != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if r.Report != nil && r.Report.Analysis.Overall.RiskLevel == model.RiskHigh {
			s.HighRisk++
		}
	}
	return s
}
