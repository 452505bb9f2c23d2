package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quotechart/internal/chart"
	"quotechart/internal/config"
	"quotechart/internal/httpx"
	"quotechart/internal/logging"
	"quotechart/internal/metrics"
	"quotechart/internal/poller"
	"quotechart/internal/provider/alphavantage"
	"quotechart/internal/provider/alphavantageadapter"
	"quotechart/internal/render"
	"quotechart/internal/stream"
	"quotechart/internal/ui"
	"quotechart/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to config.json or config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("exit", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	if cfg.AlphaVantage.APIKey == "" {
		logger.Warn("ALPHAVANTAGE_API_KEY not set; upstream will reject requests")
	}

	httpClient := httpx.New(cfg.FetchTimeout())
	avClient, err := alphavantage.NewAlphaVantageAPIClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(httpClient),
		alphavantage.WithEntitlement(cfg.AlphaVantage.Entitlement),
	)
	if err != nil {
		return err
	}
	source := alphavantageadapter.New(alphavantageadapter.Config{Symbol: cfg.AlphaVantage.Symbol}, avClient, logger)

	m := metrics.New()
	exec := ui.NewExecutor(logger.Named("ui"))
	hub := stream.NewHub(logger.Named("stream"), m)
	renderer := render.New(exec, cfg.Chart.SeriesName, hub, m, logger.Named("render"))
	poll := poller.New(source, renderer, cfg.PollInterval(), m, logger.Named("poller"))

	charts := &chart.Cache{
		Snapshot: renderer.Snapshot,
		Options: chart.Options{
			Title:     cfg.Chart.Title,
			XLabel:    cfg.Chart.XLabel,
			YLabel:    cfg.Chart.YLabel,
			Width:     cfg.Chart.Width,
			Height:    cfg.Chart.Height,
			YMin:      cfg.Chart.YMin,
			YMax:      cfg.Chart.YMax,
			YStep:     cfg.Chart.YStep,
			AutoRange: cfg.Chart.AutoRange,
		},
		MaxItems: cfg.Chart.CacheMaxItems,
		Metrics:  m,
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: web.NewRouter(web.Deps{
			Snapshot: renderer.Snapshot,
			Attach:   renderer.Attach,
			Charts:   charts,
			Hub:      hub,
			Metrics:  m,
			Log:      logger.Named("web"),
			Page: web.Page{
				Title:  cfg.Chart.Title,
				Symbol: source.Symbol(),
				Width:  cfg.Chart.Width,
				Height: cfg.Chart.Height,
			},
			RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return exec.Run(ctx) })
	g.Go(func() error { return poll.Run(ctx) })
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("symbol", source.Symbol()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}
