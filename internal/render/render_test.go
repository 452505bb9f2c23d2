package render

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quotechart/internal/provider"
	"quotechart/internal/series"
	"quotechart/internal/ui"
)

type recordingPublisher struct {
	mu     sync.Mutex
	points []series.Point
}

func (p *recordingPublisher) PublishPoint(pt series.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.points = append(p.points, pt)
}

func startExecutor(t *testing.T) (*ui.Executor, context.CancelFunc) {
	t.Helper()
	exec := ui.NewExecutor(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = exec.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return exec, cancel
}

func TestRender_AppendsAndPublishes(t *testing.T) {
	// Arrange
	exec, _ := startExecutor(t)
	pub := &recordingPublisher{}
	r := New(exec, "DIA", pub, nil, zap.NewNop())
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	// Act
	require.NoError(t, r.Render(1, provider.Quote{Symbol: "DIA", Price: 426.75, ObservedAt: at}))
	require.NoError(t, r.Render(2, provider.Quote{Symbol: "DIA", Price: 427.01, ObservedAt: at}))
	snap, err := r.Snapshot(t.Context())

	// Assert
	require.NoError(t, err)
	require.Equal(t, "DIA", snap.Name)
	require.Equal(t, []series.Point{
		{Index: 1, Value: 426.75, ObservedAt: at},
		{Index: 2, Value: 427.01, ObservedAt: at},
	}, snap.Points)
	require.Equal(t, 2, snap.Summary.Count)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.points, 2)
}

func TestRender_SkipsNaN(t *testing.T) {
	exec, _ := startExecutor(t)
	pub := &recordingPublisher{}
	r := New(exec, "DIA", pub, nil, zap.NewNop())

	err := r.Render(1, provider.Quote{Symbol: "DIA", Price: math.NaN()})
	require.ErrorIs(t, err, ErrSkipped)

	snap, err := r.Snapshot(t.Context())
	require.NoError(t, err)
	require.Empty(t, snap.Points)
	require.Empty(t, pub.points)
}

func TestRender_DoesNotTouchSeriesOffExecutor(t *testing.T) {
	// No Run: the closure stays queued, so nothing is appended yet.
	exec := ui.NewExecutor(zap.NewNop())
	r := New(exec, "DIA", nil, nil, zap.NewNop())

	require.NoError(t, r.Render(1, provider.Quote{Price: 1}))
	require.Equal(t, 1, exec.Pending())
	require.Equal(t, 0, r.series.Len())
}

func TestRender_AfterStop(t *testing.T) {
	exec, cancel := startExecutor(t)
	r := New(exec, "DIA", nil, nil, zap.NewNop())
	cancel()

	require.Eventually(t, func() bool {
		return r.Render(1, provider.Quote{Price: 1}) != nil
	}, time.Second, 5*time.Millisecond)

	_, err := r.Snapshot(t.Context())
	require.ErrorIs(t, err, ui.ErrStopped)
}

func TestAttach_OrderedWithAppends(t *testing.T) {
	// Arrange
	exec, _ := startExecutor(t)
	pub := &recordingPublisher{}
	r := New(exec, "DIA", pub, nil, zap.NewNop())
	require.NoError(t, r.Render(1, provider.Quote{Price: 426.75}))

	// Act: point 2 is queued while fn runs, so fn sees one point and the
	// publisher sees point 2 only after fn.
	var seen, publishedDuringFn int
	var renderErr error
	err := r.Attach(t.Context(), func(snap series.Snapshot) {
		seen = len(snap.Points)
		renderErr = r.Render(2, provider.Quote{Price: 427})
		pub.mu.Lock()
		publishedDuringFn = len(pub.points)
		pub.mu.Unlock()
	})
	require.NoError(t, err)
	snap, err := r.Snapshot(t.Context())

	// Assert
	require.NoError(t, err)
	require.NoError(t, renderErr)
	require.Equal(t, 1, seen)
	require.Equal(t, 1, publishedDuringFn)
	require.Len(t, snap.Points, 2)
}
