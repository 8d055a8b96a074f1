// Package worker analyzes petition files concurrently.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/casedesk/internal/analysis"
	"github.com/ppiankov/casedesk/internal/model"
	"github.com/ppiankov/casedesk/internal/normalize"
	"github.com/ppiankov/casedesk/internal/ratelimit"
)

// providerKey is the limiter key shared by every provider call in a batch
const providerKey = "ai"

// Extensions picked up when a directory is given
var Extensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// Analyzer runs one petition analysis
type Analyzer interface {
	AnalyzePetition(ctx context.Context, req analysis.AnalyzeRequest) (normalize.Result[model.PetitionAnalysis], error)
}

// AnalysisJob analyzes one petition file
type AnalysisJob struct {
	Path     string
	Analyzer Analyzer
	Limiter  *ratelimit.Limiter
}

// Execute reads the file, waits for a provider slot and analyzes the text
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	res := &AnalysisResult{Path: j.Path, PetitionID: PetitionID(j.Path)}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		res.Error = fmt.Errorf("read petition: %w", err)
		return res
	}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, providerKey); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}

	out, err := j.Analyzer.AnalyzePetition(ctx, analysis.AnalyzeRequest{
		PetitionID: res.PetitionID,
		Content:    string(data),
	})
	if err != nil {
		res.Error = err
		return res
	}
	res.Kind = out.Kind
	if !out.IsOk() {
		res.Error = out.Err
		return res
	}

	res.Analysis = &out.Value
	return res
}

// AnalysisResult is the outcome for one file
type AnalysisResult struct {
	Path       string
	PetitionID string
	Kind       normalize.Kind
	Analysis   *model.PetitionAnalysis
	Error      error
}

// GetError returns the failure, if any
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many petitions with bounded concurrency. A shared
// limiter keeps provider calls under the configured rate.
type BatchProcessor struct {
	analyzer    Analyzer
	limiter     *ratelimit.Limiter
	concurrency int
	logger      *zap.Logger
}

// NewBatchProcessor creates a processor. A non-positive rate leaves provider
// calls unthrottled.
func NewBatchProcessor(analyzer Analyzer, concurrency int, callsPerSecond float64, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		limiter:     ratelimit.NewLimiter(callsPerSecond, 1),
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessFiles analyzes every path and returns results in path order
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*AnalysisResult {
	if len(paths) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		if !pool.Submit(&AnalysisJob{Path: path, Analyzer: b.analyzer, Limiter: b.limiter}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*AnalysisResult, 0, len(results))
	for _, r := range results {
		ar := r.(*AnalysisResult)
		if ar.Error != nil {
			b.logger.Warn("batch item failed", zap.String("path", ar.Path), zap.Error(ar.Error))
		}
		out = append(out, ar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out
}

// Process resolves target and analyzes what it names
func (b *BatchProcessor) Process(ctx context.Context, target string) ([]*AnalysisResult, error) {
	paths, err := ResolveInputs(target)
	if err != nil {
		return nil, err
	}
	return b.ProcessFiles(ctx, paths), nil
}

// ResolveInputs expands a directory into its petition files, or reads a
// list file with one path per line. Relative list entries resolve against
// the list's directory.
func ResolveInputs(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}

	if !info.IsDir() {
		return ReadPathsFromFile(target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(target, e.Name()))
	}
	return paths, nil
}

// ReadPathsFromFile reads petition paths from a file, skipping blanks,
// comments and duplicates
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// PetitionID derives a stable id from the file name
func PetitionID(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
