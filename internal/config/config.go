package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

type AlphaVantage struct {
	APIKey            string `json:"api_key" yaml:"api_key"`
	Endpoint          string `json:"endpoint" yaml:"endpoint"`
	Symbol            string `json:"symbol" yaml:"symbol"`
	Entitlement       string `json:"entitlement" yaml:"entitlement"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

type Poll struct {
	IntervalSec int `json:"interval_sec" yaml:"interval_sec"`
}

type Chart struct {
	Title         string  `json:"title" yaml:"title"`
	SeriesName    string  `json:"series_name" yaml:"series_name"`
	XLabel        string  `json:"x_label" yaml:"x_label"`
	YLabel        string  `json:"y_label" yaml:"y_label"`
	Width         int     `json:"width" yaml:"width"`
	Height        int     `json:"height" yaml:"height"`
	YMin          float64 `json:"y_min" yaml:"y_min"`
	YMax          float64 `json:"y_max" yaml:"y_max"`
	YStep         float64 `json:"y_step" yaml:"y_step"`
	AutoRange     bool    `json:"auto_range" yaml:"auto_range"`
	CacheMaxItems int     `json:"cache_max_items" yaml:"cache_max_items"`
}

type Log struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

type Config struct {
	Server       Server       `json:"server" yaml:"server"`
	AlphaVantage AlphaVantage `json:"alphavantage" yaml:"alphavantage"`
	Poll         Poll         `json:"poll" yaml:"poll"`
	Chart        Chart        `json:"chart" yaml:"chart"`
	Log          Log          `json:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		AlphaVantage: AlphaVantage{
			Endpoint:    "https://www.alphavantage.co",
			Symbol:      "DIA",
			Entitlement: "delayed",
		},
		Poll: Poll{IntervalSec: 5},
		Chart: Chart{
			Title:         "DIA Price (Dow Jones Industrial Average Proxy)",
			XLabel:        "Fetch #",
			YLabel:        "Price (USD)",
			Width:         800,
			Height:        600,
			YMin:          425.5,
			YMax:          427.5,
			YStep:         0.1,
			AutoRange:     true,
			CacheMaxItems: 8,
		},
		Log: Log{Level: "info"},
	}
}

// PollInterval is the delay between the end of one tick and the next.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSec) * time.Second
}

// FetchTimeout is zero when the HTTP client should not impose its own limit.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.AlphaVantage.RequestTimeoutSec) * time.Second
}

// Load reads config from path, then applies .env and environment overrides.
// An empty path falls back to CONFIG_FILE, then config.json or config.yaml in
// the working directory. A missing file yields defaults. Files ending in
// .yaml or .yml are parsed as YAML, anything else as JSON.
func Load(path string) (Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		for _, p := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Chart.SeriesName == "" {
		cfg.Chart.SeriesName = strings.ToUpper(strings.TrimSpace(cfg.AlphaVantage.Symbol))
	}
	return cfg, cfg.Validate()
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate reports the first setting that would make the program misbehave.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.AlphaVantage.Symbol) == "":
		return errors.New("config: alphavantage.symbol is required")
	case c.AlphaVantage.Endpoint == "":
		return errors.New("config: alphavantage.endpoint is required")
	case c.AlphaVantage.RequestTimeoutSec < 0:
		return errors.New("config: alphavantage.request_timeout_sec must not be negative")
	case c.Poll.IntervalSec <= 0:
		return fmt.Errorf("config: poll.interval_sec must be positive, got %d", c.Poll.IntervalSec)
	case c.Chart.Width <= 0 || c.Chart.Height <= 0:
		return fmt.Errorf("config: chart size %dx%d is invalid", c.Chart.Width, c.Chart.Height)
	case !c.Chart.AutoRange && c.Chart.YMax <= c.Chart.YMin:
		return fmt.Errorf("config: chart.y_max (%g) must exceed chart.y_min (%g)", c.Chart.YMax, c.Chart.YMin)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_ENDPOINT"); v != "" {
		cfg.AlphaVantage.Endpoint = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.AlphaVantage.Symbol = v
	}
	if v := os.Getenv("ENTITLEMENT"); v != "" {
		cfg.AlphaVantage.Entitlement = v
	}
	if v := os.Getenv("POLL_INTERVAL_SEC"); v != "" {
		x, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL_SEC: %w", err)
		}
		cfg.Poll.IntervalSec = x
	}
	if v := os.Getenv("CHART_TITLE"); v != "" {
		cfg.Chart.Title = v
	}
	if v := os.Getenv("CHART_Y_MIN"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CHART_Y_MIN: %w", err)
		}
		cfg.Chart.YMin = x
	}
	if v := os.Getenv("CHART_Y_MAX"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CHART_Y_MAX: %w", err)
		}
		cfg.Chart.YMax = x
	}
	if v := os.Getenv("CHART_AUTO_RANGE"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("CHART_AUTO_RANGE: invalid boolean %q", v)
		}
		cfg.Chart.AutoRange = b
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("LOG_DEVELOPMENT: invalid boolean %q", v)
		}
		cfg.Log.Development = b
	}
	return nil
}

func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}
