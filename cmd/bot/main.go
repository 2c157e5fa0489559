package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"atc/internal/config"
	"atc/internal/engine"
	"atc/internal/market"
	"atc/internal/md"
	"atc/internal/portfolio"
	"atc/internal/risk"
	"atc/internal/state"
	"atc/internal/tracker"
	"atc/internal/venue"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	runID := uuid.NewString()
	actions, err := engine.NewActionLogger(cfg.ActionsPath, runID)
	if err != nil {
		log.Fatalf("action logger error: %v", err)
	}
	defer func() {
		if err := actions.Close(); err != nil {
			log.Printf("failed to close action log: %v", err)
		}
	}()

	store := state.NewStore()
	if err := store.Load(cfg.CheckpointPath); err == nil {
		log.Printf("loaded checkpoint from %s", cfg.CheckpointPath)
	}

	instruments := map[string]*market.Instrument{}
	for _, symbol := range cfg.Symbols {
		instruments[symbol] = market.NewInstrument(symbol, market.AssetClass(cfg.AssetClass))
	}

	book := portfolio.NewBook()
	trk := tracker.New()

	var vn venue.Venue
	var client *venue.Client
	if cfg.Mode == config.ModeLive {
		client = venue.NewClient(cfg.APIKey, cfg.APISecret, cfg.BaseURL)
		vn = client
	} else {
		vn = venue.NewPaper()
	}

	core := engine.New(vn, risk.Gate{}, trk, book, store, actions, instruments, engine.Params{
		Aggressiveness: cfg.Aggressiveness,
		PositionSize:   cfg.PositionSize,
		ShortWindow:    cfg.ShortWindowSize,
		LongWindow:     cfg.LongWindowSize,
		Debug:          cfg.Debug,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Printf("shutdown signal received")
		cancel()
	}()

	go serveMetrics(cfg.MetricsAddr)

	// Handlers run one at a time: stream callbacks and order updates arrive
	// on their own goroutines, so everything funnels through a single loop.
	events := make(chan func(), 1024)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case fn := <-events:
				fn()
			}
		}
	}()

	if cfg.Mode == config.ModeLive {
		go engine.ReconcileLoop(ctx, client, book, cfg.Symbols, cfg.ReconcileInterval)
		go func() {
			err := client.StreamOrderUpdates(ctx, func(ev md.OrderUpdateEvent) {
				events <- func() { core.OnOrderUpdate(ctx, ev) }
			})
			if err != nil && err != context.Canceled {
				log.Printf("order update stream stopped: %v", err)
			}
		}()
	}

	log.Printf("starting bot mode=%s symbols=%v feed=%s run_id=%s", cfg.Mode, cfg.Symbols, cfg.Feed, runID)
	handler := &serialHandler{events: events, core: core}
	if err := md.StartStream(ctx, cfg.APIKey, cfg.APISecret, cfg.Feed, instruments, handler); err != nil && err != context.Canceled {
		log.Printf("market data stream stopped: %v", err)
	}

	if err := store.Save(cfg.CheckpointPath); err != nil {
		log.Printf("failed to save checkpoint: %v", err)
	}

	log.Printf("bot shutdown complete")
}

// serialHandler enqueues events on the dispatch loop so the engine is never
// entered concurrently. The instrument's live view is updated inside the
// enqueued function, on the same goroutine that prices orders off it.
type serialHandler struct {
	events chan func()
	core   *engine.Engine
}

func (h *serialHandler) OnTrade(ctx context.Context, ev md.TradeEvent) {
	h.events <- func() {
		md.ApplyTrade(ev)
		h.core.OnTrade(ctx, ev)
	}
}

func (h *serialHandler) OnQuote(ctx context.Context, ev md.QuoteEvent) {
	h.events <- func() {
		md.ApplyQuote(ev)
		h.core.OnQuote(ctx, ev)
	}
}

func (h *serialHandler) OnBar(ctx context.Context, ev md.BarEvent) {
	h.events <- func() { h.core.OnBar(ctx, ev) }
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
