package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/triagem/internal/extract"
	"github.com/ppiankov/triagem/internal/llm"
	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/metrics"
	"github.com/ppiankov/triagem/internal/model"
	"github.com/ppiankov/triagem/internal/normalize"
	"github.com/ppiankov/triagem/internal/score"
	"github.com/ppiankov/triagem/internal/validate"
)

// Defaults for matcher options
const (
	DefaultOracleTimeout = 30 * time.Second
	DefaultWorkers       = 4
)

// Matcher resolves, per checklist rule, which submitted document
// satisfies it: normalized name containment first, the semantic oracle
// second, then content validation.
type Matcher struct {
	oracle        llm.Oracle
	validator     *validate.Validator
	logger        *slog.Logger
	metrics       *metrics.Metrics
	oracleTimeout time.Duration
	excerptChars  int
	workers       int
}

// Option configures a Matcher
type Option func(*Matcher)

// WithOracleTimeout bounds each per-rule oracle call
func WithOracleTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.oracleTimeout = d
		}
	}
}

// WithExcerptChars bounds the content excerpt sent per candidate
func WithExcerptChars(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.excerptChars = n
		}
	}
}

// WithWorkers sets how many rules are evaluated in parallel
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithValidator replaces the content validator
func WithValidator(v *validate.Validator) Option {
	return func(m *Matcher) { m.validator = v }
}

// WithLogger sets the logger for degraded-match events
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = logging.OrDefault(l) }
}

// WithMetrics records oracle calls and degraded matches
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matcher) { m.metrics = mt }
}

// NewMatcher creates a matcher. A nil oracle disables the semantic stage.
func NewMatcher(oracle llm.Oracle, opts ...Option) *Matcher {
	m := &Matcher{
		oracle:        oracle,
		validator:     validate.NewValidator(nil),
		logger:        slog.Default(),
		oracleTimeout: DefaultOracleTimeout,
		excerptChars:  extract.DefaultExcerptChars,
		workers:       DefaultWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// candidates is the per-run view of the submissions shared by all rules
type candidates struct {
	docs     []model.DocumentSubmission
	keys     []string
	names    []string
	excerpts map[string]string
}

// Analyze produces one DocumentAnalysis per rule, in checklist order.
// Oracle failures degrade only the affected rule. The only error is the
// caller's context being cancelled.
func (m *Matcher) Analyze(ctx context.Context, rules []model.ChecklistRule, docs []model.DocumentSubmission) ([]model.DocumentAnalysis, error) {
	c := m.prepare(docs)
	analyses := make([]model.DocumentAnalysis, len(rules))

	var g errgroup.Group
	g.SetLimit(m.workers)

	for i, rule := range rules {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			analyses[i] = m.analyzeRule(ctx, rule, c)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analyses, nil
}

func (m *Matcher) prepare(docs []model.DocumentSubmission) *candidates {
	c := &candidates{
		docs:  docs,
		keys:  make([]string, len(docs)),
		names: make([]string, len(docs)),
	}
	contents := make([]string, len(docs))
	for i, doc := range docs {
		c.keys[i] = normalize.Name(doc.Name)
		c.names[i] = doc.Name
		contents[i] = doc.ParsedContent
	}
	c.excerpts = extract.Excerpts(c.names, contents, m.excerptChars)
	return c
}

func (m *Matcher) analyzeRule(ctx context.Context, rule model.ChecklistRule, c *candidates) model.DocumentAnalysis {
	analysis := model.DocumentAnalysis{
		RuleLabel: rule.Label,
		Issues:    []string{},
	}

	idx := exactMatch(normalize.Name(rule.Label), c.keys)
	stage := model.MatchExact
	if idx < 0 {
		stage = model.MatchSemantic
		idx, analysis.OracleRationale = m.semanticMatch(ctx, rule, c)
	}

	if idx < 0 {
		if rule.Required {
			analysis.Issues = append(analysis.Issues, fmt.Sprintf("document %s is required but not present", rule.Label))
			analysis.IsValid = false
		} else {
			analysis.IsValid = true
		}
		analysis.ConfidenceScore = score.ConfidenceDegraded
		return analysis
	}

	doc := c.docs[idx]
	analysis.IsPresent = true
	analysis.MatchedDocumentName = doc.Name
	analysis.MatchStage = stage
	analysis.Issues = append(analysis.Issues, m.validator.Validate(rule, doc)...)
	analysis.IsValid = len(analysis.Issues) == 0

	analysis.ConfidenceScore = score.ConfidenceDegraded
	if analysis.IsValid {
		analysis.ConfidenceScore = score.ConfidenceSatisfied
	}
	return analysis
}

// exactMatch returns the first submission whose key contains the label
// key or is contained by it, or -1
func exactMatch(labelKey string, keys []string) int {
	for i, key := range keys {
		if normalize.Contains(key, labelKey) {
			return i
		}
	}
	return -1
}

// semanticMatch asks the oracle and returns the matched submission index
// (or -1) and the oracle's rationale. Failures are logged, never returned.
func (m *Matcher) semanticMatch(ctx context.Context, rule model.ChecklistRule, c *candidates) (int, string) {
	if m.oracle == nil || len(c.docs) == 0 {
		return -1, ""
	}

	callCtx, cancel := context.WithTimeout(ctx, m.oracleTimeout)
	defer cancel()

	start := time.Now()
	answer, err := m.oracle.Match(callCtx, llm.MatchRequest{
		RuleLabel:  rule.Label,
		Candidates: c.names,
		Excerpts:   c.excerpts,
	})
	elapsed := time.Since(start)

	if err != nil {
		m.metrics.ObserveOracleCall(m.oracle.Name(), "error", elapsed)
		// The whole run is being abandoned; not a degraded match
		if ctx.Err() != nil {
			return -1, ""
		}
		m.degraded(rule, failureReason(err), err)
		return -1, ""
	}
	m.metrics.ObserveOracleCall(m.oracle.Name(), "ok", elapsed)

	if answer.None || len(answer.MatchedNames) == 0 {
		return -1, answer.Rationale
	}

	for _, name := range answer.MatchedNames {
		for i, candidate := range c.names {
			if candidate == name {
				return i, answer.Rationale
			}
		}
	}

	m.degraded(rule, "unknown_candidate",
		fmt.Errorf("oracle answered %q, not among the submitted documents", answer.MatchedNames))
	return -1, answer.Rationale
}

func (m *Matcher) degraded(rule model.ChecklistRule, reason string, err error) {
	m.metrics.IncrementDegradedMatch(reason)
	m.logger.Warn("degraded match",
		"rule", rule.Label,
		"reason", reason,
		"error", err,
	)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrOracleTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, llm.ErrMalformedAnswer):
		return "malformed"
	default:
		return "error"
	}
}
