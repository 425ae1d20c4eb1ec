package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/triagem/internal/cache"
	"github.com/ppiankov/triagem/internal/checklist"
	"github.com/ppiankov/triagem/internal/classify"
	"github.com/ppiankov/triagem/internal/llm"
	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/match"
	"github.com/ppiankov/triagem/internal/metrics"
	"github.com/ppiankov/triagem/internal/model"
	"github.com/ppiankov/triagem/internal/score"
	"github.com/ppiankov/triagem/internal/worker"
)

// Classifier orchestrates one classification run:
// load checklist → match → classify → plan → score → render
type Classifier struct {
	repo     *checklist.Repository
	matcher  *match.Matcher
	planner  *classify.Planner
	scorer   *score.Scorer
	renderer *Renderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newRunID func() string
}

// Option configures a Classifier
type Option func(*Classifier)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logging.OrDefault(l) }
}

// WithMetrics records run outcomes and degraded events
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Classifier) { c.metrics = m }
}

// WithClock overrides the time source used for ClassifiedAt
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// WithRunIDs overrides run identifier generation
func WithRunIDs(gen func() string) Option {
	return func(c *Classifier) { c.newRunID = gen }
}

// NewClassifier assembles a Classifier from its components
func NewClassifier(repo *checklist.Repository, matcher *match.Matcher, planner *classify.Planner, opts ...Option) *Classifier {
	c := &Classifier{
		repo:     repo,
		matcher:  matcher,
		planner:  planner,
		renderer: NewRenderer(),
		logger:   slog.Default(),
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scorer = score.NewScorer(c.logger, c.metrics)
	return c
}

// New builds a Classifier and all of its collaborators from configuration.
// The oracle is optional: a disabled or misconfigured provider leaves only
// exact matching active, which is logged.
func New(cfg *model.Config, logger *slog.Logger, m *metrics.Metrics) (*Classifier, error) {
	logger = logging.OrDefault(logger)

	source, err := SourceFromConfig(cfg.Checklist, cfg.Oracle)
	if err != nil {
		return nil, err
	}
	repo := checklist.NewRepository(source,
		checklist.WithTTL(cfg.Checklist.TTL),
		checklist.WithReloadBackoff(cfg.Checklist.ReloadBackoff),
		checklist.WithLogger(logger),
		checklist.WithMetrics(m),
	)

	oracle := buildOracle(cfg, logger)
	matcher := match.NewMatcher(oracle,
		match.WithOracleTimeout(cfg.Oracle.Timeout),
		match.WithExcerptChars(cfg.Oracle.ExcerptChars),
		match.WithWorkers(cfg.Matching.Workers),
		match.WithLogger(logger),
		match.WithMetrics(m),
	)

	planner, err := classify.NewPlanner(cfg.Planner)
	if err != nil {
		return nil, err
	}

	return NewClassifier(repo, matcher, planner, WithLogger(logger), WithMetrics(m)), nil
}

// SourceFromConfig selects the checklist source: an explicit path, then a
// URL, then the search paths
func SourceFromConfig(cfg model.ChecklistConfig, proxy model.LLMConfig) (checklist.Source, error) {
	switch {
	case cfg.Path != "":
		return checklist.NewFileSource(cfg.Path), nil
	case cfg.URL != "":
		return checklist.NewHTTPSource(cfg.URL, 30*time.Second, proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy), nil
	case len(cfg.SearchPaths) > 0:
		return checklist.NewFileSource(cfg.SearchPaths...), nil
	default:
		return nil, fmt.Errorf("%w: no checklist path, url or search paths configured", checklist.ErrSourceUnavailable)
	}
}

func buildOracle(cfg *model.Config, logger *slog.Logger) llm.Oracle {
	oracle, err := llm.NewOracle(llm.ConfigFromModel(cfg.Oracle))
	if err != nil {
		if errors.Is(err, llm.ErrProviderDisabled) {
			logger.Info("semantic matching disabled, exact matching only")
		} else {
			logger.Warn("semantic matching unavailable, exact matching only", "error", err)
		}
		return nil
	}

	oracle = llm.NewRateLimitedOracle(oracle,
		worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))
	oracle = llm.NewCachedOracle(oracle, cache.FromConfig(cfg.Cache), cfg.Cache.MemoryTTL)
	return oracle
}

// Classify validates a case's documents against the current checklist.
// It fails only when no checklist has ever been loaded or ctx is cancelled;
// every other problem degrades the affected rule.
func (c *Classifier) Classify(ctx context.Context, kase model.CaseInput) (*model.ClassificationResult, error) {
	cl, err := c.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}

	analyses, err := c.matcher.Analyze(ctx, cl.Rules, kase.Documents)
	if err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}

	c.scorer.SanitizeAnalyses(analyses)
	outcome := classify.Classify(cl.Rules, analyses)
	actions := c.planner.Plan(cl, outcome, analyses, kase)

	result := &model.ClassificationResult{
		RunID:             c.newRunID(),
		CaseID:            kase.CaseID,
		Status:            outcome.Status,
		DocumentAnalyses:  analyses,
		BlockingIssues:    outcome.BlockingIssues,
		NonBlockingIssues: outcome.NonBlockingIssues,
		ConfidenceScore:   c.scorer.Aggregate(analyses),
		Actions:           actions,
		ChecklistVersion:  cl.Version,
		ClassifiedAt:      c.now().UTC(),
	}
	result.Summary = c.renderer.Summary(result)

	c.metrics.IncrementClassification(string(result.Status))
	c.logger.Info("classification complete",
		"case_id", result.CaseID,
		"run_id", result.RunID,
		"status", result.Status,
		"confidence", result.ConfidenceScore,
		"blocking_issues", len(result.BlockingIssues),
		"actions", len(result.Actions),
	)

	return result, nil
}

// ClassifyFile loads a case description from path and classifies it
func (c *Classifier) ClassifyFile(ctx context.Context, path string) (*model.ClassificationResult, error) {
	kase, err := LoadCase(path)
	if err != nil {
		return nil, err
	}
	return c.Classify(ctx, *kase)
}

// Checklist returns the current checklist, loading it if needed
func (c *Classifier) Checklist(ctx context.Context) (*model.Checklist, error) {
	return c.repo.Load(ctx)
}

// Renderer returns the renderer used for summaries
func (c *Classifier) Renderer() *Renderer {
	return c.renderer
}

// LoadCase decodes a case description from a JSON file.
// A missing case_id defaults to the file name without extension.
func LoadCase(path string) (*model.CaseInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case: %w", err)
	}

	var kase model.CaseInput
	if err := json.Unmarshal(data, &kase); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", path, err)
	}

	if kase.CaseID == "" {
		kase.CaseID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &kase, nil
}
