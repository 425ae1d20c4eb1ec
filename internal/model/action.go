package model

// ActionKind identifies an automated remediation
type ActionKind string

const (
	ActionMoveCard          ActionKind = "MoveCard"
	ActionGenerateDocument  ActionKind = "GenerateDocument"
	ActionNotifyStakeholder ActionKind = "NotifyStakeholder"
)

// Action is a pure-data remediation descriptor; executing it is the caller's concern
type Action struct {
	Kind   ActionKind        `json:"kind"`
	Target string            `json:"target"` // Phase id, rule label or recipient
	Reason string            `json:"reason"`
	Params map[string]string `json:"params,omitempty"` // Kind-specific extras (tax_id, action_on_violation)
}
