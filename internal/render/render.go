package render

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"quotechart/internal/metrics"
	"quotechart/internal/provider"
	"quotechart/internal/series"
	"quotechart/internal/ui"
)

// ErrSkipped is returned when a quote has no usable price.
var ErrSkipped = errors.New("render: quote has no price")

// Publisher receives every point after it is appended.
type Publisher interface {
	PublishPoint(p series.Point)
}

// Renderer turns quotes into chart points. All series access happens on the
// executor goroutine.
type Renderer struct {
	exec    *ui.Executor
	series  *series.Series
	pub     Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(exec *ui.Executor, name string, pub Publisher, m *metrics.Metrics, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		exec:    exec,
		series:  series.New(name),
		pub:     pub,
		metrics: m,
		log:     log,
	}
}

// Render schedules q to be plotted at index. It returns without waiting for
// the point to be appended.
func (r *Renderer) Render(index int, q provider.Quote) error {
	if !q.Valid() {
		r.log.Info("skipping quote without price", zap.String("symbol", q.Symbol), zap.Int("index", index))
		return ErrSkipped
	}
	p := series.Point{Index: index, Value: q.Price, ObservedAt: q.ObservedAt}
	if !r.exec.Submit(func() { r.append(p) }) {
		return ui.ErrStopped
	}
	return nil
}

func (r *Renderer) append(p series.Point) {
	if err := r.series.Append(p); err != nil {
		r.log.Warn("append point", zap.Int("index", p.Index), zap.Float64("price", p.Value), zap.Error(err))
		return
	}
	r.metrics.ObservePoint(p.Value, r.series.Len())
	if r.pub != nil {
		r.pub.PublishPoint(p)
	}
	r.log.Debug("point plotted", zap.Int("index", p.Index), zap.Float64("price", p.Value))
}

// Snapshot returns a copy of the series taken on the executor.
func (r *Renderer) Snapshot(ctx context.Context) (series.Snapshot, error) {
	var snap series.Snapshot
	if err := r.exec.Call(ctx, func() { snap = r.series.Snapshot() }); err != nil {
		return series.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// Attach runs fn with a copy of the series on the executor. Points appended
// after fn returns are published after it, never before.
func (r *Renderer) Attach(ctx context.Context, fn func(series.Snapshot)) error {
	if err := r.exec.Call(ctx, func() { fn(r.series.Snapshot()) }); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	return nil
}
