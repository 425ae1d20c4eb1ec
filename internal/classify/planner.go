package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/triagem/internal/checklist"
	"github.com/ppiankov/triagem/internal/model"
	"github.com/ppiankov/triagem/internal/normalize"
	"github.com/ppiankov/triagem/internal/validate"
)

// Action reasons
const (
	ReasonGenerationAttempted = "missing required document - attempting automatic generation"
	ReasonAutoGenerable       = "auto-generable document required"
	ReasonNotify              = "blocking issues identified"
)

// DefaultNotifyRecipient receives NotifyStakeholder actions when the
// case names no responsible party
const DefaultNotifyRecipient = "gestor_comercial"

// Planner derives the ordered remediation actions for a classified case
type Planner struct {
	phaseOverrides  map[string]string
	notifyRecipient string
	taxIDField      string
}

// NewPlanner creates a planner. Phase overrides are merged over each
// checklist's own mapping; unknown status names are rejected here.
func NewPlanner(cfg model.PlannerConfig) (*Planner, error) {
	if _, err := checklist.MergePhaseMapping(nil, cfg.PhaseMapping); err != nil {
		return nil, fmt.Errorf("planner phase mapping: %w", err)
	}

	recipient := cfg.NotifyRecipient
	if recipient == "" {
		recipient = DefaultNotifyRecipient
	}

	return &Planner{
		phaseOverrides:  cfg.PhaseMapping,
		notifyRecipient: recipient,
		taxIDField:      cfg.TaxIDField,
	}, nil
}

// Plan returns MoveCard, then GenerateDocument per unmet auto-generable
// rule in checklist order, then NotifyStakeholder when blocking issues exist
func (p *Planner) Plan(cl *model.Checklist, outcome Outcome, analyses []model.DocumentAnalysis, kase model.CaseInput) []model.Action {
	actions := []model.Action{}

	if phase, ok := p.phaseFor(cl, outcome.Status); ok {
		actions = append(actions, model.Action{
			Kind:   model.ActionMoveCard,
			Target: phase,
			Reason: fmt.Sprintf("classification: %s", outcome.Status),
		})
	}

	rules := rulesByLabel(cl.Rules)
	for _, a := range analyses {
		rule, ok := rules[a.RuleLabel]
		if !ok || !rule.AutoGenerable {
			continue
		}
		if a.IsPresent && a.IsValid {
			continue
		}
		actions = append(actions, p.generateAction(rule, kase))
	}

	if len(outcome.BlockingIssues) > 0 {
		recipient := strings.TrimSpace(kase.Responsible)
		if recipient == "" {
			recipient = p.notifyRecipient
		}
		actions = append(actions, model.Action{
			Kind:   model.ActionNotifyStakeholder,
			Target: recipient,
			Reason: ReasonNotify,
			Params: map[string]string{
				"blocking_issues": strconv.Itoa(len(outcome.BlockingIssues)),
			},
		})
	}

	return actions
}

func (p *Planner) phaseFor(cl *model.Checklist, status model.Status) (string, bool) {
	// Overrides were validated in NewPlanner
	mapping, _ := checklist.MergePhaseMapping(cl.PhaseMapping, p.phaseOverrides)
	phase, ok := mapping[status]
	return phase, ok && phase != ""
}

func (p *Planner) generateAction(rule model.ChecklistRule, kase model.CaseInput) model.Action {
	action := model.Action{
		Kind:   model.ActionGenerateDocument,
		Target: rule.Label,
		Reason: ReasonAutoGenerable,
	}
	if rule.ActionOnViolation != "" {
		action.Params = map[string]string{"action_on_violation": rule.ActionOnViolation}
	}

	if !IsRegistryDocument(rule) {
		return action
	}

	digits, err := validate.ValidateTaxID(kase.TaxIdentifier(p.taxIDField))
	if err != nil {
		action.Reason = fmt.Sprintf("missing required document - automatic generation not attempted: %v", err)
		return action
	}

	action.Reason = ReasonGenerationAttempted
	if action.Params == nil {
		action.Params = map[string]string{}
	}
	action.Params["tax_id"] = digits
	return action
}

// IsRegistryDocument reports whether a rule names a government-registry
// document derivable from the company tax identifier
func IsRegistryDocument(rule model.ChecklistRule) bool {
	if rule.RegistryDocument {
		return true
	}
	for _, word := range strings.Fields(normalize.Name(rule.Label)) {
		if word == "cnpj" {
			return true
		}
	}
	return false
}

func rulesByLabel(rules []model.ChecklistRule) map[string]model.ChecklistRule {
	m := make(map[string]model.ChecklistRule, len(rules))
	for _, r := range rules {
		m[r.Label] = r
	}
	return m
}
