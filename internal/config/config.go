package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	// ModeLive routes orders to the Alpaca paper/live trading API.
	ModeLive Mode = "live"
	// ModePaper keeps orders on the in-memory venue.
	ModePaper Mode = "paper"
)

type Config struct {
	Mode              Mode
	Symbols           []string
	AssetClass        string
	Feed              string
	Aggressiveness    float64
	PositionSize      int
	ShortWindowSize   int
	LongWindowSize    int
	Debug             bool
	ReconcileInterval time.Duration
	ActionsPath       string
	CheckpointPath    string
	MetricsAddr       string
	BaseURL           string
	APIKey            string
	APISecret         string
}

func Load() (Config, error) {
	var cfg Config
	var mode string
	var symbols string

	// Environment never loses to the .env file.
	_ = godotenv.Load(".env")

	flag.StringVar(&mode, "mode", string(ModePaper), "run mode: live or paper")
	flag.StringVar(&symbols, "symbols", "SPY", "comma-separated symbols to track")
	flag.StringVar(&cfg.AssetClass, "asset-class", "equity", "asset class: equity, option, or future")
	flag.StringVar(&cfg.Feed, "feed", "iex", "market data feed: iex or sip")
	flag.Float64Var(&cfg.Aggressiveness, "aggressiveness", 0, "book-path price offset in dollars")
	flag.IntVar(&cfg.PositionSize, "position-size", 100, "target position size")
	flag.IntVar(&cfg.ShortWindowSize, "short-window", 10, "short momentum window length")
	flag.IntVar(&cfg.LongWindowSize, "long-window", 30, "long momentum window length")
	flag.BoolVar(&cfg.Debug, "debug", true, "log quote and depth events")
	flag.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", 10*time.Second, "venue reconciliation interval")
	flag.StringVar(&cfg.ActionsPath, "actions-path", "actions.ndjson", "path to order action log")
	flag.StringVar(&cfg.CheckpointPath, "checkpoint-path", "checkpoint.json", "path to session checkpoint file")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9925", "prometheus metrics listen address")
	flag.StringVar(&cfg.BaseURL, "base-url", "https://paper-api.alpaca.markets", "alpaca trading base URL")
	flag.Parse()

	cfg.Mode = Mode(mode)
	cfg.Symbols = splitSymbols(symbols)
	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func splitSymbols(symbols string) []string {
	parts := strings.Split(symbols, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func validate(cfg Config) error {
	if cfg.Mode != ModeLive && cfg.Mode != ModePaper {
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	switch cfg.AssetClass {
	case "equity", "option", "future":
	default:
		return fmt.Errorf("invalid asset-class: %s", cfg.AssetClass)
	}
	if cfg.Mode == ModeLive && (cfg.APIKey == "" || cfg.APISecret == "") {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required in live mode")
	}
	if cfg.PositionSize <= 0 {
		return fmt.Errorf("position-size must be > 0")
	}
	if cfg.ShortWindowSize <= 0 || cfg.LongWindowSize <= 0 {
		return fmt.Errorf("window sizes must be > 0")
	}
	if cfg.ShortWindowSize >= cfg.LongWindowSize {
		return fmt.Errorf("short-window must be < long-window")
	}
	if cfg.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile-interval must be > 0")
	}
	return nil
}
