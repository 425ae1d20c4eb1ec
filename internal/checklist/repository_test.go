package checklist

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/triagem/internal/logging"
	"github.com/ppiankov/triagem/internal/metrics"
)

const checklistV1 = `{"version": "v1", "rules": [{"label": "Contrato Social"}]}`
const checklistV2 = `{"version": "v2", "rules": [{"label": "Contrato Social"}, {"label": "RG"}]}`

type stubSource struct {
	mu       sync.Mutex
	data     string
	modTime  time.Time
	modErr   error
	readErr  error
	reads    int
	modCalls int
}

func (s *stubSource) Name() string { return "stub.json" }

func (s *stubSource) ModTime(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modCalls++
	return s.modTime, s.modErr
}

func (s *stubSource) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	return []byte(s.data), nil
}

func (s *stubSource) set(data string, modTime time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.modTime, s.readErr = data, modTime, err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepo(src Source, clock *fakeClock, opts ...Option) *Repository {
	opts = append([]Option{WithClock(clock.Now), WithLogger(logging.Discard())}, opts...)
	return NewRepository(src, opts...)
}

func TestRepository_InitialLoad(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}

	repo := newTestRepo(src, clock)
	cl, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v1", cl.Version)
	assert.Equal(t, "stub.json", cl.Source)
	assert.Equal(t, t0, cl.LoadedAt)
	assert.Equal(t, t0.Add(-time.Hour), cl.SourceModTime)
	require.Len(t, cl.Rules, 1)
	assert.True(t, cl.Rules[0].Required)
	assert.True(t, cl.Rules[0].BlockingIfInvalid)
}

func TestRepository_InitialLoadFailureIsFatal(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	t.Run("unreadable", func(t *testing.T) {
		src := &stubSource{readErr: errors.New("disk gone")}
		_, err := newTestRepo(src, clock).Load(context.Background())
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("unparseable", func(t *testing.T) {
		src := &stubSource{data: "{not json"}
		_, err := newTestRepo(src, clock).Load(context.Background())
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.ErrorIs(t, err, ErrMalformedChecklist)
	})
}

func TestRepository_ReusesSnapshotWithinTTL(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock)

	first, err := repo.Load(context.Background())
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	second, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.reads)
}

func TestRepository_ReloadsAfterTTL(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock)

	_, err := repo.Load(context.Background())
	require.NoError(t, err)

	src.set(checklistV2, t0.Add(-time.Hour), nil)
	clock.Advance(DefaultTTL)

	cl, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", cl.Version)
	assert.Equal(t, 2, src.reads)
}

func TestRepository_ReloadsWhenSourceChanges(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock)

	_, err := repo.Load(context.Background())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	src.set(checklistV2, clock.Now(), nil)
	clock.Advance(time.Second)

	cl, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", cl.Version)
}

func TestRepository_ServesLastGoodSnapshotOnReloadFailure(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}

	var logs bytes.Buffer
	m := metrics.New()
	repo := NewRepository(src,
		WithClock(clock.Now),
		WithLogger(logging.NewWithWriter(&logs, "warn")),
		WithMetrics(m),
		WithReloadBackoff(time.Minute),
	)

	good, err := repo.Load(context.Background())
	require.NoError(t, err)

	src.set("", t0.Add(-time.Hour), errors.New("disk gone"))
	clock.Advance(DefaultTTL)

	served, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, served)
	assert.Contains(t, logs.String(), "checklist reload failed, serving last good snapshot")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecklistReloads.WithLabelValues("failure")))

	// Within the backoff window the source is not retried
	reads := src.reads
	_, err = repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reads, src.reads)

	// After the backoff a healthy source is picked up again
	src.set(checklistV2, t0.Add(-time.Hour), nil)
	clock.Advance(2 * time.Minute)
	cl, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", cl.Version)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChecklistReloads.WithLabelValues("success")))
}

func TestRepository_Invalidate(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock)

	_, err := repo.Load(context.Background())
	require.NoError(t, err)

	src.set(checklistV2, t0.Add(-time.Hour), nil)
	repo.Invalidate()

	cl, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", cl.Version)
	assert.Same(t, cl, repo.Current())
}

func TestRepository_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock, WithTTL(time.Nanosecond))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%10 == 0 && i == 0 {
					if j%20 == 0 {
						src.set(checklistV2, t0.Add(-time.Hour), nil)
					} else {
						src.set(checklistV1, t0.Add(-time.Hour), nil)
					}
					clock.Advance(time.Second)
				}
				cl, err := repo.Load(context.Background())
				if !assert.NoError(t, err) {
					return
				}
				switch cl.Version {
				case "v1":
					assert.Len(t, cl.Rules, 1)
				case "v2":
					assert.Len(t, cl.Rules, 2)
				default:
					t.Errorf("unexpected version %q", cl.Version)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestRepository_FileSourceEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeChecklist(t, dir, "checklist.yaml", "version: y1\nrules:\n  - label: RG\n    blocking_if_invalid: false\n")

	repo := NewRepository(NewFileSource(dir+"/missing.json", path), WithLogger(logging.Discard()))
	cl, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "y1", cl.Version)
	assert.True(t, strings.HasSuffix(cl.Source, "checklist.yaml"))
	require.Len(t, cl.Rules, 1)
	assert.False(t, cl.Rules[0].BlockingIfInvalid)
}

func TestRepository_ModTimeChecksAreThrottled(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock, WithReloadBackoff(time.Minute))

	_, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, src.modCalls)

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		_, err := repo.Load(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.modCalls, "no check within the backoff interval")

	clock.Advance(time.Minute)
	_, err = repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.modCalls)
	assert.Equal(t, 1, src.reads, "unchanged source is not read again")
}

func TestRepository_ChangeDuringReadIsPickedUp(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modTime: t0.Add(-time.Hour)}
	repo := newTestRepo(src, clock)

	_, err := repo.Load(context.Background())
	require.NoError(t, err)

	// Modified after the stat but before the load completed
	src.set(checklistV2, t0.Add(-time.Second), nil)
	clock.Advance(time.Minute)

	cl, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", cl.Version)
}

func TestRepository_UnknownModTimeReliesOnTTL(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: t0}
	src := &stubSource{data: checklistV1, modErr: errors.New("stat not supported")}
	repo := newTestRepo(src, clock)

	cl, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cl.SourceModTime.IsZero())

	src.set(checklistV2, time.Time{}, nil)
	clock.Advance(10 * time.Minute)
	same, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, cl, same)

	clock.Advance(DefaultTTL)
	fresh, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", fresh.Version)
}
