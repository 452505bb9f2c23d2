package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"quotechart/internal/config"
	"quotechart/internal/httpx"
	"quotechart/internal/logging"
	"quotechart/internal/provider"
	"quotechart/internal/provider/alphavantage"
	"quotechart/internal/provider/alphavantageadapter"
)

func main() {
	var symbol string
	var configPath string
	var raw bool
	var timeout int

	flag.StringVar(&symbol, "symbol", "", "ticker to fetch (default from config, DIA)")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json or config.yaml (optional)")
	flag.BoolVar(&raw, "raw", false, "print the upstream JSON body instead of the extracted quote")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "overall timeout in seconds")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if symbol != "" {
		cfg.AlphaVantage.Symbol = symbol
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := alphavantage.NewAlphaVantageAPIClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(httpx.New(cfg.FetchTimeout())),
		alphavantage.WithEntitlement(cfg.AlphaVantage.Entitlement),
	)
	if err != nil {
		log.Fatalf("alphavantage client: %v", err)
	}
	a := alphavantageadapter.New(alphavantageadapter.Config{Symbol: cfg.AlphaVantage.Symbol}, client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if raw {
		body, err := a.FetchRaw(ctx)
		if err != nil {
			log.Fatalf("%s [%s]: %v", a.Name(), provider.Kind(err), err)
		}
		_, _ = os.Stdout.Write(body)
		fmt.Println()
		return
	}

	q, err := a.Fetch(ctx)
	if err != nil {
		log.Fatalf("%s [%s]: %v", a.Name(), provider.Kind(err), err)
	}
	if !q.Valid() {
		log.Printf("%s: no numeric price in response", q.Symbol)
	}
	b, _ := json.MarshalIndent(q, "", "  ")
	fmt.Println(string(b))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			return x
		}
	}
	return def
}
