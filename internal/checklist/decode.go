package checklist

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/triagem/internal/model"
)

// ruleRecord mirrors ChecklistRule with optional flags so absent
// keys take the documented defaults
type ruleRecord struct {
	Label             string   `json:"label" yaml:"label"`
	Required          *bool    `json:"required" yaml:"required"`
	BlockingIfInvalid *bool    `json:"blocking_if_invalid" yaml:"blocking_if_invalid"`
	ValidateExpiry    bool     `json:"validate_expiry" yaml:"validate_expiry"`
	AutoGenerable     bool     `json:"auto_generable" yaml:"auto_generable"`
	ActionOnViolation string   `json:"action_on_violation" yaml:"action_on_violation"`
	RequiredFields    []string `json:"required_fields" yaml:"required_fields"`
	RegistryDocument  bool     `json:"registry_document" yaml:"registry_document"`
}

type document struct {
	Version      string            `json:"version" yaml:"version"`
	PhaseMapping map[string]string `json:"phase_mapping" yaml:"phase_mapping"`
	Rules        []ruleRecord      `json:"rules" yaml:"rules"`
}

// Decode parses a checklist document. YAML is selected by a .yaml or
// .yml extension on name; anything else is decoded as JSON.
func Decode(name string, data []byte) (*model.Checklist, error) {
	var doc document

	if isYAML(name) {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedChecklist, name, err)
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedChecklist, name, err)
		}
	}

	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("%w: %s: no rules", ErrMalformedChecklist, name)
	}

	rules := make([]model.ChecklistRule, 0, len(doc.Rules))
	seen := make(map[string]bool, len(doc.Rules))
	for i, rec := range doc.Rules {
		label := strings.TrimSpace(rec.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: %s: rule %d has no label", ErrMalformedChecklist, name, i+1)
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: %s: duplicate rule %q", ErrMalformedChecklist, name, label)
		}
		seen[label] = true

		rules = append(rules, model.ChecklistRule{
			Label:             label,
			Required:          boolOr(rec.Required, true),
			BlockingIfInvalid: boolOr(rec.BlockingIfInvalid, true),
			ValidateExpiry:    rec.ValidateExpiry,
			AutoGenerable:     rec.AutoGenerable,
			ActionOnViolation: rec.ActionOnViolation,
			RequiredFields:    rec.RequiredFields,
			RegistryDocument:  rec.RegistryDocument,
		})
	}

	mapping, err := decodePhaseMapping(doc.PhaseMapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedChecklist, name, err)
	}

	return &model.Checklist{
		Version:      doc.Version,
		Rules:        rules,
		PhaseMapping: mapping,
		Source:       name,
	}, nil
}

// ParseStatus resolves a status name, accepting any letter case
func ParseStatus(raw string) (model.Status, error) {
	for _, s := range []model.Status{model.StatusApproved, model.StatusPendingBlocking, model.StatusPendingNonBlocking} {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// MergePhaseMapping overlays overrides on base. Empty phase identifiers
// in overrides remove the mapping for that status.
func MergePhaseMapping(base map[model.Status]string, overrides map[string]string) (map[model.Status]string, error) {
	merged := make(map[model.Status]string, len(base)+len(overrides))
	for status, phase := range base {
		merged[status] = phase
	}

	for raw, phase := range overrides {
		status, err := ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		if phase == "" {
			delete(merged, status)
			continue
		}
		merged[status] = phase
	}
	return merged, nil
}

func decodePhaseMapping(raw map[string]string) (map[model.Status]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return MergePhaseMapping(nil, raw)
}

func isYAML(name string) bool {
	p := name
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
