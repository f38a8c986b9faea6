package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"thunderwatch/internal/config"
	"thunderwatch/internal/decision"
	"thunderwatch/internal/gametime"
	"thunderwatch/internal/input"
	"thunderwatch/internal/persistence/indexdb"
	"thunderwatch/internal/persistence/journal"
	"thunderwatch/internal/watcher"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	logger := log.New(os.Stdout, "[thunderwatch] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Printf("ERROR: couldn't load the config file: %v", err)
		os.Exit(1)
	}

	th := cfg.Thresholds()
	logger.Printf("watching %s (hotkey=%q start=[%s, %s] min_cycle=%s)",
		cfg.InstancePath, cfg.ResetHotkey,
		gametime.FormatTicks(th.MinStartTick), gametime.FormatTicks(th.MaxStartTick),
		gametime.FormatTicks(th.MinCycleDurationTicks))

	ctx, cancel := signalContext()
	defer cancel()

	var recorders []watcher.Recorder
	if cfg.JournalDir != "" {
		jw := journal.NewWriter(cfg.JournalDir)
		defer jw.Close()
		recorders = append(recorders, jw)
	}
	if cfg.IndexDB != "" {
		idx, err := indexdb.OpenSQLite(cfg.IndexDB)
		if err != nil {
			logger.Printf("ERROR: open index db: %v", err)
			os.Exit(1)
		}
		defer func() {
			_ = idx.Close()
			st := idx.Stats()
			logger.Printf("index: written=%d dropped=%d", st.WrittenTotal, st.DroppedTotal)
		}()
		recorders = append(recorders, idx)
	}

	armed := watcher.NewArmed(cfg.Hotkey(), logger)
	go input.Listen(ctx, func(r rune) { armed.HandleKey(r) })

	triggers, closer, err := watcher.Notify(ctx, cfg.InstancePath, logger)
	if err != nil {
		logger.Printf("ERROR: watch %s: %v", cfg.InstancePath, err)
		os.Exit(1)
	}
	defer closer.Close()

	loop := watcher.New(watcher.Options{
		SavesDir:         cfg.InstancePath,
		SaveFile:         cfg.SaveFile,
		DisarmAfterReset: cfg.DisarmAfterReset,
		Debug:            cfg.DebugMode,
	}, armed, decision.NewEngine(th), input.NewKeyTapper(cfg.Hotkey(), logger), logger, recorders...)

	if err := loop.Run(ctx, triggers); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("watch loop stopped: %v", err)
	}

	st := loop.Stats()
	logger.Printf("stopped: triggers=%d judged=%d resets=%d skipped=%d errors=%d",
		st.Triggers, st.Judged, st.Resets, st.Skipped, st.Errors)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
