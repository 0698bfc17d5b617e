package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pivori-app/rubi-studio/internal/backend"
	"github.com/pivori-app/rubi-studio/internal/config"
	"github.com/pivori-app/rubi-studio/internal/connector"
	"github.com/pivori-app/rubi-studio/internal/journal"
	"github.com/pivori-app/rubi-studio/internal/metrics"
	"github.com/pivori-app/rubi-studio/internal/terminal"
	"github.com/pivori-app/rubi-studio/internal/util"
)

const version = "3.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	cfg.ApplyEnv()

	log := util.NewLogger(cfg.App.LogLevel)
	if cfg.App.LogToFile {
		log = util.NewFileLogger(cfg.App.LogLevel, cfg.App.LogPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	journalPath := cfg.Backend.JournalPath
	if journalPath == "" {
		journalPath = ":memory:"
	}
	store, err := journal.Open(journalPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open signal journal")
	}
	defer store.Close()

	client := backend.New(cfg.Backend.URL, cfg.Backend.APIToken, cfg.Timeout(), version, log)

	// Stand-in terminal for running outside a live trading terminal. A real
	// deployment swaps in the terminal-backed implementation here.
	term := terminal.NewSim(terminal.Account{
		Number:   "demo",
		Broker:   "SimBroker",
		Server:   "Sim-Demo",
		Currency: "USD",
		Balance:  10000,
	}, []terminal.SymbolInfo{
		{Name: "EURUSD", Ask: 1.1002, Bid: 1.1000, TickSize: 0.0001, TickValue: 1, MinVolume: 0.01, MaxVolume: 100, VolumeStep: 0.01},
		{Name: "XAUUSD", Ask: 2412.60, Bid: 2412.10, TickSize: 0.01, TickValue: 1, MinVolume: 0.01, MaxVolume: 50, VolumeStep: 0.01},
	})

	conn := connector.New(cfg, client, term, store, log)

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	nudges := make(chan struct{}, 1)
	if cfg.Backend.LiveChannel {
		conn.OnSessionChange = liveChannelHook(ctx, cfg, nudges, log)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	log.Info().Str("backend", cfg.Backend.URL).Bool("auto_trading", cfg.Trading.AutoTrading).Msg("connector started")
	if err := conn.Run(ctx, ticker.C, nudges); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("connector stopped")
	}
	log.Info().Msg("shut down")
}

// liveChannelHook returns a session-change hook that (re)subscribes the
// websocket live channel for the new session id. A reconnect replaces the
// previous subscription; nudges from the channel bring the next poll forward.
func liveChannelHook(ctx context.Context, cfg *config.Config, nudges chan<- struct{}, log zerolog.Logger) func(string) {
	var cancelPrev context.CancelFunc
	return func(sessionID string) {
		if cancelPrev != nil {
			cancelPrev()
		}
		subCtx, cancel := context.WithCancel(ctx)
		cancelPrev = cancel

		live := backend.NewLiveChannel(cfg.Backend.URL, sessionID, log)
		go func() {
			if err := live.Run(subCtx); err != nil && subCtx.Err() == nil {
				log.Warn().Err(err).Msg("live channel stopped")
			}
		}()
		go func() {
			for {
				select {
				case <-subCtx.Done():
					return
				case <-live.Nudges:
					select {
					case nudges <- struct{}{}:
					default:
					}
				}
			}
		}()
	}
}
