package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/triagem/internal/model"
)

// Renderer writes classification results as JSON, markdown and a
// console digest
type Renderer struct{}

// NewRenderer creates a new Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Summary renders the markdown report for a result. Sections with no
// content are omitted entirely.
func (r *Renderer) Summary(result *model.ClassificationResult) string {
	var b strings.Builder

	b.WriteString("# Classification Summary\n\n")
	fmt.Fprintf(&b, "## Status: %s\n", result.Status)

	if len(result.DocumentAnalyses) > 0 {
		b.WriteString("\n## Documents\n\n")
		for _, a := range result.DocumentAnalyses {
			mark := "✅"
			if !a.IsValid {
				mark = "❌"
			}
			fmt.Fprintf(&b, "- %s %s", mark, a.RuleLabel)
			if a.MatchedDocumentName != "" {
				fmt.Fprintf(&b, " (%s)", a.MatchedDocumentName)
			}
			b.WriteString("\n")
			for _, issue := range a.Issues {
				fmt.Fprintf(&b, "  - %s\n", issue)
			}
		}
	}

	writeList(&b, "Blocking Issues", "🚫", result.BlockingIssues)
	writeList(&b, "Non-Blocking Issues", "⚠️", result.NonBlockingIssues)

	if len(result.Actions) > 0 {
		b.WriteString("\n## Automatic Actions\n\n")
		for _, action := range result.Actions {
			fmt.Fprintf(&b, "- 🔄 %s", action.Kind)
			if action.Target != "" {
				fmt.Fprintf(&b, " → %s", action.Target)
			}
			if action.Reason != "" {
				fmt.Fprintf(&b, ": %s", action.Reason)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeList(b *strings.Builder, heading, mark string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s %s\n", mark, item)
	}
}

// RenderJSON writes the result as indented JSON
func (r *Renderer) RenderJSON(result *model.ClassificationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the result's summary as a markdown file
func (r *Renderer) RenderMarkdown(result *model.ClassificationResult, path string) error {
	summary := result.Summary
	if summary == "" {
		summary = r.Summary(result)
	}
	return writeFile(path, []byte(summary))
}

// RenderDigest prints a short console digest of the result
func (r *Renderer) RenderDigest(w io.Writer, result *model.ClassificationResult) {
	present := 0
	for _, a := range result.DocumentAnalyses {
		if a.IsPresent {
			present++
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	if result.CaseID != "" {
		fmt.Fprintf(w, "  Case: %s\n", result.CaseID)
	}
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Status:       %s %s\n", statusIcon(result.Status), result.Status)
	fmt.Fprintf(w, "  Confidence:   %.2f\n", result.ConfidenceScore)
	fmt.Fprintf(w, "  Documents:    %d/%d present\n", present, len(result.DocumentAnalyses))
	fmt.Fprintf(w, "  Blocking:     %d\n", len(result.BlockingIssues))
	fmt.Fprintf(w, "  Non-blocking: %d\n", len(result.NonBlockingIssues))
	fmt.Fprintf(w, "  Actions:      %d\n", len(result.Actions))
	if result.ChecklistVersion != "" {
		fmt.Fprintf(w, "  Checklist:    %s\n", result.ChecklistVersion)
	}
	fmt.Fprintf(w, "\n")
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusApproved:
		return "✓"
	case model.StatusPendingNonBlocking:
		return "⚠️"
	default:
		return "✗"
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
