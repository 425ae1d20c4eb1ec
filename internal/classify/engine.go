package classify

import (
	"github.com/ppiankov/triagem/internal/model"
)

// Outcome is the case-level verdict derived from per-rule analyses
type Outcome struct {
	Status            model.Status
	BlockingIssues    []string
	NonBlockingIssues []string
}

// Classify derives the case status and partitions issues by the
// blocking_if_invalid flag of each offending rule. Any unmet blocking
// rule yields PendingBlocking regardless of non-blocking ones.
// Analyses whose rule is unknown are treated as blocking.
func Classify(rules []model.ChecklistRule, analyses []model.DocumentAnalysis) Outcome {
	blocking := blockingByLabel(rules)

	out := Outcome{
		Status:            model.StatusApproved,
		BlockingIssues:    []string{},
		NonBlockingIssues: []string{},
	}

	var hasBlocking, hasNonBlocking bool
	for _, a := range analyses {
		isBlocking, known := blocking[a.RuleLabel]
		if !known {
			isBlocking = true
		}

		if isBlocking {
			out.BlockingIssues = append(out.BlockingIssues, a.Issues...)
		} else {
			out.NonBlockingIssues = append(out.NonBlockingIssues, a.Issues...)
		}

		if a.Satisfied() {
			continue
		}
		if isBlocking {
			hasBlocking = true
		} else {
			hasNonBlocking = true
		}
	}

	switch {
	case hasBlocking:
		out.Status = model.StatusPendingBlocking
	case hasNonBlocking:
		out.Status = model.StatusPendingNonBlocking
	}
	return out
}

func blockingByLabel(rules []model.ChecklistRule) map[string]bool {
	m := make(map[string]bool, len(rules))
	for _, r := range rules {
		m[r.Label] = r.BlockingIfInvalid
	}
	return m
}
