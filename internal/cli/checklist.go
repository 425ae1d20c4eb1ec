package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/triagem/internal/checklist"
	"github.com/ppiankov/triagem/internal/classify"
	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/model"
	"github.com/ppiankov/triagem/internal/pipeline"
)

var checklistFlags overrides

// checklistCmd represents the checklist command
var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Inspect the document checklist",
}

var checklistShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Load the checklist and print its rules",
	Long: `Load the checklist from the configured source and print every rule with
its flags and the effective status to phase mapping. Loading fails with a
non-zero exit code when the checklist is missing or malformed.`,
	Args: cobra.NoArgs,
	RunE: runChecklistShow,
}

func init() {
	rootCmd.AddCommand(checklistCmd)
	checklistCmd.AddCommand(checklistShowCmd)

	checklistFlags.register(checklistShowCmd)
}

func runChecklistShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	checklistFlags.apply(cmd, cfg)

	source, err := pipeline.SourceFromConfig(cfg.Checklist, cfg.Oracle)
	if err != nil {
		return err
	}
	repo := checklist.NewRepository(source, checklist.WithLogger(logging.New(cfg.Output.LogLevel)))

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	cl, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checklist: %w", err)
	}

	mapping, err := checklist.MergePhaseMapping(cl.PhaseMapping, cfg.Planner.PhaseMapping)
	if err != nil {
		return err
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Checklist")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Source:    %s\n", cl.Source)
	if cl.Version != "" {
		fmt.Printf("  Version:   %s\n", cl.Version)
	}
	if !cl.SourceModTime.IsZero() {
		fmt.Printf("  Modified:  %s\n", cl.SourceModTime.Format(time.RFC3339))
	}
	fmt.Printf("  Rules:     %d\n", len(cl.Rules))
	fmt.Println()

	for _, rule := range cl.Rules {
		fmt.Printf("  • %s\n", rule.Label)
		fmt.Printf("      %s\n", ruleFlags(rule))
		if len(rule.RequiredFields) > 0 {
			fmt.Printf("      fields: %s\n", strings.Join(rule.RequiredFields, ", "))
		}
		if rule.ActionOnViolation != "" {
			fmt.Printf("      on violation: %s\n", rule.ActionOnViolation)
		}
	}

	if len(mapping) > 0 {
		fmt.Println()
		fmt.Println("  Phase mapping:")
		statuses := make([]string, 0, len(mapping))
		for status := range mapping {
			statuses = append(statuses, string(status))
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			fmt.Printf("    %-20s → %s\n", status, mapping[model.Status(status)])
		}
	}
	fmt.Println()

	return nil
}

func ruleFlags(rule model.ChecklistRule) string {
	var flags []string
	if rule.Required {
		flags = append(flags, "required")
	} else {
		flags = append(flags, "optional")
	}
	if rule.BlockingIfInvalid {
		flags = append(flags, "blocking")
	} else {
		flags = append(flags, "non-blocking")
	}
	if rule.ValidateExpiry {
		flags = append(flags, "expiry")
	}
	if rule.AutoGenerable {
		flags = append(flags, "auto-generable")
	}
	if classify.IsRegistryDocument(rule) {
		flags = append(flags, "registry")
	}
	return strings.Join(flags, ", ")
}
