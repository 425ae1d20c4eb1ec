package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/triagem/internal/model"
	"github.com/ppiankov/triagem/internal/pipeline"
)

var (
	classifyFlags overrides
	jsonOut       string
	mdOut         string
	runTimeout    time.Duration
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <case.json>",
	Short: "Classify the documents of one case",
	Long: `Classify validates one case's documents against the checklist:
- Match every checklist rule to a submitted document
- Validate expiry dates and required fields
- Derive status, blocking and non-blocking issues
- Plan remediation actions (data only, nothing is executed)

The case file is JSON:
  {"case_id": "...", "responsible": "...", "tax_id": "...",
   "documents": [{"name": "...", "parsed_content": "...", "expiry_date": "2026-12-31"}]}

Example:
  triagem classify case.json --checklist knowledge/checklist.yaml
  triagem classify case.json --json out/result.json --md out/result.md
  triagem classify case.json --oracle openai --oracle-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyFlags.register(classifyCmd)
	classifyCmd.Flags().StringVar(&jsonOut, "json", "", "write JSON result to this file")
	classifyCmd.Flags().StringVar(&mdOut, "md", "", "write Markdown summary to this file")
	classifyCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "timeout for the whole classification")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifyFlags.apply(cmd, cfg)

	sess := newSession(cfg)
	defer sess.flush()

	classifier, err := pipeline.New(cfg, sess.logger, sess.metrics)
	if err != nil {
		return fmt.Errorf("initialize classifier: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	result, err := classifier.ClassifyFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("classify %s: %w", args[0], err)
	}

	return writeOutputs(classifier.Renderer(), result, jsonOut, mdOut)
}

// writeOutputs writes the requested artifacts; with none requested the
// summary goes to stdout. The digest always goes to stderr.
func writeOutputs(r *pipeline.Renderer, result *model.ClassificationResult, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("write JSON result: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON result: %s\n", jsonPath)
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("write Markdown summary: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown summary: %s\n", mdPath)
	}
	if jsonPath == "" && mdPath == "" {
		fmt.Print(result.Summary)
	}

	r.RenderDigest(os.Stderr, result)
	return nil
}
