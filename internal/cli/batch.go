package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ppiankov/triagem/internal/model"
	"github.com/ppiankov/triagem/internal/pipeline"
	"github.com/ppiankov/triagem/internal/worker"
)

var (
	batchFlags   overrides
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|file>",
	Short: "Classify many cases in parallel",
	Long: `Batch classifies many cases concurrently against one checklist snapshot:
- A directory argument classifies every *.json case file in it
- A file argument lists case files, one path per line (# starts a comment)
- Each case gets <case>.json and <case>.md in the output directory

Example:
  triagem batch ./cases
  triagem batch cases.txt --concurrency 8 --output-dir ./results
  triagem batch ./cases --oracle ollama --oracle-model llama3.1:8b --timeout 20m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of cases classified in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./triagem-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchFlags.apply(cmd, cfg)

	sess := newSession(cfg)
	defer sess.flush()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Triagem Batch Classification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", target)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.Oracle.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Oracle:       %s/%s\n", cfg.Oracle.Provider, cfg.Oracle.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	classifier, err := pipeline.New(cfg, sess.logger, sess.metrics)
	if err != nil {
		return fmt.Errorf("initialize classifier: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	// Fail fast when the checklist cannot be loaded at all
	if _, err := classifier.Checklist(ctx); err != nil {
		return fmt.Errorf("load checklist: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Classifying cases with %d workers...\n\n", concurrency)

	processor := worker.NewBatchProcessor(classifier, concurrency)
	results, err := processor.ProcessTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("process %s: %w", target, err)
	}

	renderer := classifier.Renderer()
	counts := make(map[model.Status]int)
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		slug := uniqueName(used, sanitizeFilename(caseName(result)))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Result, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		counts[result.Result.Status]++
		fmt.Fprintf(os.Stderr, "✓ %s: %s (confidence %.2f)\n", slug, result.Result.Status, result.Result.ConfidenceScore)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:              %d cases\n", len(results))
	fmt.Fprintf(os.Stderr, "  Approved:           %d\n", counts[model.StatusApproved])
	fmt.Fprintf(os.Stderr, "  PendingNonBlocking: %d\n", counts[model.StatusPendingNonBlocking])
	fmt.Fprintf(os.Stderr, "  PendingBlocking:    %d\n", counts[model.StatusPendingBlocking])
	fmt.Fprintf(os.Stderr, "  Failures:           %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:             %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d cases failed", failureCount, len(results))
	}
	return nil
}

// caseName prefers the case id and falls back to the case file name
func caseName(r *worker.CaseResult) string {
	if r.Result != nil && r.Result.CaseID != "" {
		return r.Result.CaseID
	}
	return strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
}

// uniqueName suffixes repeated names so two cases never share an output file
func uniqueName(used map[string]int, name string) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	for i := n + 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if used[candidate] == 0 {
			used[name] = i
			used[candidate] = 1
			return candidate
		}
	}
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "case"
	}

	// Limit length
	if len(s) > 100 {
		cut := 100
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	return s
}
