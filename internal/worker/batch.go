package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/triagem/internal/model"
)

// Classifier defines the interface for classifying one case file
type Classifier interface {
	ClassifyFile(ctx context.Context, path string) (*model.ClassificationResult, error)
}

// CaseJob represents a case classification job
type CaseJob struct {
	Index      int
	Path       string
	Classifier Classifier
}

// Execute executes the classification job
func (j *CaseJob) Execute(ctx context.Context) Result {
	result, err := j.Classifier.ClassifyFile(ctx, j.Path)
	return &CaseResult{
		Index:  j.Index,
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// CaseResult represents the outcome of a case classification job
type CaseResult struct {
	Index  int
	Path   string
	Result *model.ClassificationResult
	Error  error
}

// GetError returns the error from the case result
func (r *CaseResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies multiple case files concurrently
type BatchProcessor struct {
	classifier  Classifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(classifier Classifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		classifier:  classifier,
		concurrency: concurrency,
	}
}

// ProcessPaths classifies case files concurrently.
// Results come back in input order.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*CaseResult {
	if len(paths) == 0 {
		return []*CaseResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		pool.Submit(&CaseJob{
			Index:      i,
			Path:       path,
			Classifier: b.classifier,
		})
	}

	results := pool.Wait()

	caseResults := make([]*CaseResult, 0, len(paths))
	done := make(map[int]bool, len(results))
	for _, result := range results {
		cr := result.(*CaseResult)
		done[cr.Index] = true
		caseResults = append(caseResults, cr)
	}

	// Jobs dropped by cancellation still get a result
	for i, path := range paths {
		if !done[i] {
			caseResults = append(caseResults, &CaseResult{
				Index: i,
				Path:  path,
				Error: fmt.Errorf("not classified: %w", context.Cause(ctx)),
			})
		}
	}

	sort.Slice(caseResults, func(i, j int) bool {
		return caseResults[i].Index < caseResults[j].Index
	})

	return caseResults
}

// ProcessTarget classifies every case named by target: a directory of
// *.json case files or a list file with one case path per line
func (b *BatchProcessor) ProcessTarget(ctx context.Context, target string) ([]*CaseResult, error) {
	paths, err := ResolveCasePaths(target)
	if err != nil {
		return nil, err
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ResolveCasePaths expands a directory or list file into case file paths
func ResolveCasePaths(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat batch target: %w", err)
	}

	if !info.IsDir() {
		return ReadPathsFromFile(target)
	}

	paths, err := filepath.Glob(filepath.Join(target, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list case files: %w", err)
	}
	sort.Strings(paths)

	return paths, nil
}

// ReadPathsFromFile reads case file paths from a file (one per line).
// Relative paths are resolved against the list file's directory.
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

		// Skip empty lines and comments
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
