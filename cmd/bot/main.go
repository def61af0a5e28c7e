package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"RatePulse/internal/bot"
	"RatePulse/internal/broadcast"
	"RatePulse/internal/collector"
	"RatePulse/internal/config"
	"RatePulse/internal/logx"
	"RatePulse/internal/notifier"
	"RatePulse/internal/registry"
	"RatePulse/internal/scheduler"
	"RatePulse/internal/tracker"
)

func main() {
	boot := logx.New("info", nil)

	if err := config.LoadDotEnv(".env"); err != nil {
		boot.Warn().Err(err).Msg("ignoring .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal().Err(err).Msg("config validation")
	}

	log := logx.New(cfg.Log.Level, nil)
	log.Info().Msg("RatePulse starting...")

	// Init rate source
	fetcher := collector.NewFloatRatesFetcher(cfg.Rates.BaseURL, cfg.Quote(), cfg.Proxy, cfg.Rates.Timeout)
	col := collector.NewCollector(fetcher, cfg.Currencies(), cfg.Rates.Timeout, log)
	log.Info().Str("source", fetcher.Name()).Strs("currencies", cfg.Rates.Currencies).Msg("rate source ready")

	// Init subscriber registry
	var reg registry.Registry
	sr, err := registry.NewSQLiteRegistry(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite registry failed, using in-memory registry")
		reg = registry.NewMemoryRegistry()
	} else {
		reg = sr
	}
	defer reg.Close()

	// Init Telegram notifier
	tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy, cfg.Telegram.PollTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram")
	}

	b := broadcast.New(col, tracker.New(), reg, tn, cfg.Quote(), broadcast.Config{
		Workers:     cfg.Broadcast.Workers,
		RatePerSec:  cfg.Broadcast.RatePerSec,
		SendTimeout: cfg.Broadcast.SendTimeout,
		Location:    cfg.Location(),
	}, log)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	cycle := func(ctx context.Context) error {
		_, err := b.RunCycle(ctx)
		return err
	}
	sched := scheduler.NewScheduler(ctx, scheduler.NewCron(cfg.Location(), log), scheduler.Config{
		Hour:     cfg.Schedule.Hour,
		Minute:   cfg.Schedule.Minute,
		Location: cfg.Location(),
	}, cycle, log)
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	h := bot.NewHandler(reg, b, log)
	h.Currencies = cfg.Currencies()
	h.Quote = cfg.Quote()
	h.Hour = cfg.Schedule.Hour
	h.Minute = cfg.Schedule.Minute
	h.Timezone = cfg.Schedule.Timezone
	go tn.StartPolling(ctx, h.Handle)

	// Optional: run immediately on start
	if cfg.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, broadcasting now")
		go sched.RunNow()
	}

	log.Info().Msg("RatePulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	log.Info().Msg("RatePulse stopped")
}
