package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/triagem/internal/model"
)

// MockClassifier implements Classifier interface
type MockClassifier struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (m *MockClassifier) ClassifyFile(ctx context.Context, path string) (*model.ClassificationResult, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work

	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if m.failOn != "" && strings.HasSuffix(path, m.failOn) {
		return nil, errors.New("classify error")
	}
	return &model.ClassificationResult{
		CaseID: filepath.Base(path),
		Status: model.StatusApproved,
	}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBatchProcessor_ProcessPaths_Order(t *testing.T) {
	processor := NewBatchProcessor(&MockClassifier{}, 3)

	paths := []string{"a.json", "b.json", "c.json", "d.json", "e.json"}
	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d: expected %s, got %s", i, paths[i], res.Path)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Result == nil || res.Result.CaseID != paths[i] {
			t.Errorf("result %d: unexpected classification %+v", i, res.Result)
		}
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockClassifier{failOn: "bad.json"}, 2)

	results := processor.ProcessPaths(context.Background(), []string{"good.json", "bad.json"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("good case failed: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error for bad case, got nil")
	}
	if results[1].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockClassifier{}, 2)

	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessPaths_Cancelled(t *testing.T) {
	processor := NewBatchProcessor(&MockClassifier{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{"a.json", "b.json", "c.json"}
	results := processor.ProcessPaths(ctx, paths)

	if len(results) != len(paths) {
		t.Fatalf("every path needs a result, got %d", len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d out of order: %s", i, res.Path)
		}
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "cases.txt")
	writeFile(t, list, "case1.json\n# comment\n/abs/case2.json\n   \ncase1.json\n")

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{filepath.Join(dir, "case1.json"), "/abs/case2.json"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d: %v", len(expected), len(paths), paths)
	}
	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, p)
		}
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadPathsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestResolveCasePaths_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), "{}")
	writeFile(t, filepath.Join(dir, "a.json"), "{}")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")

	paths, err := ResolveCasePaths(dir)
	if err != nil {
		t.Fatalf("ResolveCasePaths failed: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "a.json" || filepath.Base(paths[1]) != "b.json" {
		t.Errorf("unexpected paths: %v", paths)
	}
}

func TestBatchProcessor_ProcessTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.json"), "{}")
	writeFile(t, filepath.Join(dir, "two.json"), "{}")

	classifier := &MockClassifier{}
	processor := NewBatchProcessor(classifier, 2)

	results, err := processor.ProcessTarget(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessTarget failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if len(classifier.calls) != 2 {
		t.Errorf("expected 2 classifier calls, got %d", len(classifier.calls))
	}
}

func TestBatchProcessor_ProcessTarget_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockClassifier{}, 2)

	if _, err := processor.ProcessTarget(context.Background(), "no_such_dir"); err == nil {
		t.Error("expected error for missing target, got nil")
	}
}

func TestCaseResult_GetError(t *testing.T) {
	r1 := &CaseResult{Path: "a.json"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("classify failed")
	r2 := &CaseResult{Path: "a.json", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
