// Package poller drives the fetch, extract and render cycle on a fixed delay.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quotechart/internal/metrics"
	"quotechart/internal/provider"
)

//go:generate mockgen -package=poller_test -destination=mock_poller_test.go -source=poller.go Source,Sink

// Source yields one quote per call.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (provider.Quote, error)
}

// Sink plots a quote at the given index.
type Sink interface {
	Render(index int, q provider.Quote) error
}

// State is the loop's explicit state. Index is the number of quotes handed to
// the sink and is the index of the most recent point.
type State struct {
	Index   int
	Ticks   int
	Skipped int
}

type Poller struct {
	src      Source
	sink     Sink
	interval time.Duration
	metrics  *metrics.Metrics
	log      *zap.Logger

	state State
	now   func() time.Time
}

func New(src Source, sink Sink, interval time.Duration, m *metrics.Metrics, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		src:      src,
		sink:     sink,
		interval: interval,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Tick performs one fetch and, when the quote has a price, hands it to the
// sink at st.Index+1. Errors are returned after being logged; callers in a
// loop ignore them.
func (p *Poller) Tick(ctx context.Context, st *State) error {
	st.Ticks++
	start := p.now()
	q, err := p.src.Fetch(ctx)
	took := p.now().Sub(start)
	if err != nil {
		st.Skipped++
		kind := provider.Kind(err)
		p.metrics.ObserveTick(kind, took)
		p.log.Warn("fetch failed",
			zap.String("provider", p.src.Name()),
			zap.String("kind", kind),
			zap.Int("tick", st.Ticks),
			zap.Error(err))
		return err
	}
	if !q.Valid() {
		st.Skipped++
		p.metrics.ObserveTick("nan", took)
		p.log.Info("no price in quote", zap.String("symbol", q.Symbol), zap.Int("tick", st.Ticks))
		return nil
	}

	next := st.Index + 1
	if err := p.sink.Render(next, q); err != nil {
		st.Skipped++
		p.metrics.ObserveTick(provider.Kind(err), took)
		p.log.Warn("render failed", zap.Int("index", next), zap.Error(err))
		return err
	}
	st.Index = next
	p.metrics.ObserveTick("ok", took)
	p.log.Info("quote",
		zap.String("symbol", q.Symbol),
		zap.Int("index", next),
		zap.Float64("price", q.Price))
	return nil
}

// Run ticks immediately and then once per interval, measured from the end of
// the previous tick. It returns nil when ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("polling started",
		zap.String("provider", p.src.Name()),
		zap.Duration("interval", p.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("polling stopped",
				zap.Int("ticks", p.state.Ticks),
				zap.Int("points", p.state.Index))
			return nil
		case <-timer.C:
		}
		_ = p.Tick(ctx, &p.state)
		timer.Reset(p.interval)
	}
}
