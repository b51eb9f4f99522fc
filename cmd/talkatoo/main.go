// Command talkatoo is the moon tracker TUI. It tails the recognizer's
// mention file and keeps the collected moons of the current run in SQLite.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/feed"
	"github.com/abelbrown/talkatoo/internal/logging"
	"github.com/abelbrown/talkatoo/internal/notify"
	"github.com/abelbrown/talkatoo/internal/otel"
	"github.com/abelbrown/talkatoo/internal/store"
	"github.com/abelbrown/talkatoo/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "talkatoo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", config.ConfigPath(), err)
	}

	// Data directory: ~/.talkatoo/ unless TALKATOO_DATA_DIR says otherwise
	dataDir := config.DataDir()
	unlock, err := store.LockDataDir(dataDir)
	if err != nil {
		return err
	}
	defer unlock()

	if err := logging.Init(dataDir); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()

	events, err := otel.OpenFile(filepath.Join(dataDir, otel.EventLogFile))
	if err != nil {
		logging.Warn("event log disabled", "err", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()
	ring := otel.NewRing(otel.DefaultRingSize)
	events.Attach(ring)
	events.SetTrace(cfg.Trace)

	started := time.Now()
	events.Info(otel.KindStartup, "main", "talkatoo "+logging.Version)
	logging.Info("starting", "version", logging.Version, "data_dir", dataDir)

	catalogPath := cfg.CatalogFile(dataDir)
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		events.Error(otel.KindError, "main", err)
		return fmt.Errorf("load moon list: %w", err)
	}
	logging.Info("moon list loaded", "path", catalogPath, "moons", cat.Len())

	st, err := store.Open(filepath.Join(dataDir, store.DBFile))
	if err != nil {
		events.Error(otel.KindError, "main", err)
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	app := ui.NewApp(appConfig(ctx, cfg, config.ConfigPath(), st, cat, notify.NewService(cfg), events, ring))
	program := tea.NewProgram(app, tea.WithAltScreen())

	watcher := feed.NewWatcher(cat, events, cfg.FeedPoll(), feed.NewFileSource(cfg.FeedPath))
	watcher.Start(ctx, program)
	logging.Info("watching feed", "path", cfg.FeedPath, "interval", cfg.FeedPoll())

	// Run UI (blocks until quit)
	_, runErr := program.Run()

	// Graceful shutdown
	cancel()
	watcher.Wait()

	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main", Dur: time.Since(started)})
	if runErr != nil {
		logging.Error("ui exited", "err", runErr)
		return fmt.Errorf("run ui: %w", runErr)
	}
	return nil
}
