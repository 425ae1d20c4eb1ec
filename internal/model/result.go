package model

import "time"

// Status is the case-level classification outcome
type Status string

const (
	StatusApproved           Status = "Approved"
	StatusPendingBlocking    Status = "PendingBlocking"
	StatusPendingNonBlocking Status = "PendingNonBlocking"
)

// MatchStage records which stage established a document's presence
type MatchStage string

const (
	MatchNone     MatchStage = ""         // No document satisfied the rule
	MatchExact    MatchStage = "exact"    // Normalized name containment
	MatchSemantic MatchStage = "semantic" // Oracle answer
)

// DocumentAnalysis is the result of matching one rule against the submissions
type DocumentAnalysis struct {
	RuleLabel           string     `json:"rule_label"`
	IsPresent           bool       `json:"is_present"`
	IsValid             bool       `json:"is_valid"`
	Issues              []string   `json:"issues"`
	ConfidenceScore     float64    `json:"confidence_score"`
	MatchedDocumentName string     `json:"matched_document_name,omitempty"`
	MatchStage          MatchStage `json:"match_stage,omitempty"`
	OracleRationale     string     `json:"oracle_rationale,omitempty"` // Free text returned by the oracle
}

// Satisfied reports whether the analysis meets its rule
func (a DocumentAnalysis) Satisfied() bool {
	return a.IsValid
}

// ClassificationResult is the case-level output of one classification call
type ClassificationResult struct {
	RunID             string             `json:"run_id"`
	CaseID            string             `json:"case_id,omitempty"`
	Status            Status             `json:"status"`
	DocumentAnalyses  []DocumentAnalysis `json:"document_analyses"`
	BlockingIssues    []string           `json:"blocking_issues"`
	NonBlockingIssues []string           `json:"non_blocking_issues"`
	ConfidenceScore   float64            `json:"confidence_score"`
	Actions           []Action           `json:"actions"`
	Summary           string             `json:"summary"`
	ChecklistVersion  string             `json:"checklist_version,omitempty"`
	ClassifiedAt      time.Time          `json:"classified_at"`
}
