package score

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/metrics"
	"github.com/ppiankov/triagem/internal/model"
)

// ErrInvalidConfidence marks a confidence value that is not a number in [0, 1]
var ErrInvalidConfidence = errors.New("invalid confidence value")

// Per-rule confidence levels
const (
	ConfidenceSatisfied = 1.0 // present and valid
	ConfidenceDegraded  = 0.5 // absent, or present but invalid
)

// Scorer sanitizes confidence values and computes the aggregate score
type Scorer struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewScorer creates a new scorer
func NewScorer(logger *slog.Logger, m *metrics.Metrics) *Scorer {
	return &Scorer{
		logger:  logging.OrDefault(logger),
		metrics: m,
	}
}

// Check validates a confidence value without replacing it
func Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v is not a finite number", ErrInvalidConfidence, v)
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %v outside [0, 1]", ErrInvalidConfidence, v)
	}
	return nil
}

// Sanitize returns v when it is a valid confidence, otherwise 0.0.
// Replacements are logged as degraded-confidence events, never returned as errors.
func (s *Scorer) Sanitize(source string, v float64) float64 {
	if err := Check(v); err != nil {
		s.logger.Warn("degraded confidence",
			"source", source,
			"value", fmt.Sprint(v),
			"error", err,
		)
		s.metrics.IncrementDegradedConfidence()
		return 0.0
	}
	return v
}

// SanitizeAnalyses sanitizes every per-rule confidence in place
func (s *Scorer) SanitizeAnalyses(analyses []model.DocumentAnalysis) {
	for i := range analyses {
		analyses[i].ConfidenceScore = s.Sanitize("rule:"+analyses[i].RuleLabel, analyses[i].ConfidenceScore)
	}
}

// Aggregate returns the arithmetic mean of the per-rule confidence scores.
// An empty list yields 0.0.
func (s *Scorer) Aggregate(analyses []model.DocumentAnalysis) float64 {
	if len(analyses) == 0 {
		return 0.0
	}

	total := 0.0
	for _, a := range analyses {
		total += s.Sanitize("rule:"+a.RuleLabel, a.ConfidenceScore)
	}

	return s.Sanitize("aggregate", total/float64(len(analyses)))
}
