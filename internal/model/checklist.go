package model

import "time"

// ChecklistRule represents one required document entry of the checklist
type ChecklistRule struct {
	Label             string   `json:"label" yaml:"label"`                                                 // Human name of the required document
	Required          bool     `json:"required" yaml:"required"`                                           // Whether absence is an issue
	BlockingIfInvalid bool     `json:"blocking_if_invalid" yaml:"blocking_if_invalid"`                     // Severity when unmet
	ValidateExpiry    bool     `json:"validate_expiry" yaml:"validate_expiry"`                             // Check the submission's expiry date
	AutoGenerable     bool     `json:"auto_generable" yaml:"auto_generable"`                               // System can synthesize the document
	ActionOnViolation string   `json:"action_on_violation,omitempty" yaml:"action_on_violation,omitempty"` // Free-form remediation descriptor, copied into GenerateDocument params
	RequiredFields    []string `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`         // Extra fields the submission must carry
	RegistryDocument  bool     `json:"registry_document,omitempty" yaml:"registry_document,omitempty"`     // Derivable from the case's tax identifier
}

// Checklist is an immutable snapshot of the rule set and its freshness metadata
type Checklist struct {
	Version       string            `json:"version,omitempty"`
	Rules         []ChecklistRule   `json:"rules"`
	PhaseMapping  map[Status]string `json:"phase_mapping,omitempty"` // Status -> workflow phase identifier
	Source        string            `json:"source"`                  // Where the snapshot was read from
	SourceModTime time.Time         `json:"source_mod_time"`         // Modification time reported by the source
	LoadedAt      time.Time         `json:"loaded_at"`               // Time of the successful load
}
