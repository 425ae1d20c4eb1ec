package checklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/metrics"
	"github.com/ppiankov/triagem/internal/model"
)

// DefaultTTL is how long a loaded snapshot is reused without checking
// the source's content again
const DefaultTTL = 30 * time.Minute

// DefaultReloadBackoff is the minimum gap between failed reload attempts
// and between two modification time checks of the source
const DefaultReloadBackoff = 30 * time.Second

// Repository loads and caches the checklist. Readers always get a
// complete snapshot; reloads build a new one and swap it in atomically.
type Repository struct {
	source  Source
	ttl     time.Duration
	backoff time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics

	snapshot    atomic.Pointer[model.Checklist]
	invalidated atomic.Bool
	lastCheck   atomic.Int64 // unix nanoseconds of the last ModTime check

	// mu serializes reloads; readers of a fresh snapshot never take it
	mu          sync.Mutex
	lastFailure time.Time
}

// Option configures a Repository
type Option func(*Repository)

// WithTTL sets the snapshot lifetime
func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithReloadBackoff sets the minimum gap between failed reload attempts
// and between source modification checks. Zero checks on every Load.
func WithReloadBackoff(d time.Duration) Option {
	return func(r *Repository) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the logger for reload warnings
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = logging.OrDefault(l) }
}

// WithMetrics records reload outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// NewRepository creates a repository over source
func NewRepository(source Source, opts ...Option) *Repository {
	r := &Repository{
		source:  source,
		ttl:     DefaultTTL,
		backoff: DefaultReloadBackoff,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the current checklist, reloading it when the TTL has
// expired or the source changed after the last successful load.
// Only a failure before any snapshot exists is returned as an error;
// later reload failures are logged and the last good snapshot is served.
func (r *Repository) Load(ctx context.Context) (*model.Checklist, error) {
	snap := r.snapshot.Load()
	if snap != nil && !r.stale(ctx, snap) {
		return snap, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller reloaded while we waited
	if current := r.snapshot.Load(); current != snap {
		return current, nil
	}

	if snap != nil && !r.lastFailure.IsZero() && r.now().Sub(r.lastFailure) < r.backoff {
		return snap, nil
	}

	fresh, err := r.read(ctx)
	if err != nil {
		r.metrics.IncrementChecklistReload("failure")
		if snap == nil {
			return nil, err
		}
		r.lastFailure = r.now()
		r.logger.Warn("checklist reload failed, serving last good snapshot",
			"source", r.source.Name(),
			"error", err,
			"snapshot_loaded_at", snap.LoadedAt,
		)
		return snap, nil
	}

	r.lastFailure = time.Time{}
	r.invalidated.Store(false)
	r.snapshot.Store(fresh)
	r.metrics.IncrementChecklistReload("success")
	r.logger.Debug("checklist loaded",
		"source", fresh.Source,
		"version", fresh.Version,
		"rules", len(fresh.Rules),
	)

	return fresh, nil
}

// Current returns the last loaded snapshot without touching the source
func (r *Repository) Current() *model.Checklist {
	return r.snapshot.Load()
}

// Invalidate forces the next Load to read the source
func (r *Repository) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.invalidated.Store(true)
	r.lastFailure = time.Time{}
}

func (r *Repository) stale(ctx context.Context, snap *model.Checklist) bool {
	if r.invalidated.Load() {
		return true
	}
	now := r.now()
	if now.Sub(snap.LoadedAt) >= r.ttl {
		return true
	}

	// Unknown modification time: only the TTL applies
	if snap.SourceModTime.IsZero() {
		return false
	}

	last := r.lastCheck.Load()
	if now.Sub(time.Unix(0, last)) < r.backoff || !r.lastCheck.CompareAndSwap(last, now.UnixNano()) {
		return false
	}

	modTime, err := r.source.ModTime(ctx)
	if err != nil {
		return true
	}
	return modTime.After(snap.SourceModTime)
}

func (r *Repository) read(ctx context.Context) (*model.Checklist, error) {
	// Taken before reading so a change during the read triggers another reload.
	// A source that cannot report it is still readable; only the TTL applies then.
	modTime, err := r.source.ModTime(ctx)
	if err != nil {
		r.logger.Debug("checklist modification time unavailable",
			"source", r.source.Name(),
			"error", err,
		)
		modTime = time.Time{}
	}
	r.lastCheck.Store(r.now().UnixNano())

	data, err := r.source.Read(ctx)
	if err != nil {
		return nil, asUnavailable(err)
	}

	checklist, err := Decode(r.source.Name(), data)
	if err != nil {
		return nil, asUnavailable(err)
	}

	checklist.SourceModTime = modTime
	checklist.LoadedAt = r.now()
	return checklist, nil
}

func asUnavailable(err error) error {
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
