package alphavantageadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"quotechart/internal/provider"
	"quotechart/internal/provider/alphavantage"
)

type Config struct {
	Name   string // display name, default: AlphaVantage
	Symbol string // e.g. DIA
}

// Adapter turns GLOBAL_QUOTE responses into provider.Quote values.
type Adapter struct {
	cfg    Config
	client *alphavantage.AlphaVantageAPIClient
	log    *zap.Logger

	// now is swapped in tests.
	now func() time.Time
}

func New(cfg Config, client *alphavantage.AlphaVantageAPIClient, log *zap.Logger) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "AlphaVantage"
	}
	cfg.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{cfg: cfg, client: client, log: log, now: time.Now}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Symbol is the tracked ticker.
func (a *Adapter) Symbol() string { return a.cfg.Symbol }

// Fetch performs one request and extracts the price. The returned quote may
// carry a NaN price; errors are wrapped provider sentinels.
func (a *Adapter) Fetch(ctx context.Context) (provider.Quote, error) {
	body, err := a.client.GetGlobalQuote(ctx, a.cfg.Symbol)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}
	a.log.Debug("full json response", zap.String("symbol", a.cfg.Symbol), zap.ByteString("body", body))

	price, err := alphavantage.ExtractPrice(body)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}
	return provider.Quote{
		Symbol:     a.cfg.Symbol,
		Price:      price,
		ObservedAt: a.now().UTC(),
	}, nil
}

// FetchRaw returns the upstream body without extracting anything.
func (a *Adapter) FetchRaw(ctx context.Context) ([]byte, error) {
	return a.client.GetGlobalQuote(ctx, a.cfg.Symbol)
}
