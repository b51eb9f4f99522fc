package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/logging"
	"github.com/abelbrown/talkatoo/internal/notify"
	"github.com/abelbrown/talkatoo/internal/otel"
	"github.com/abelbrown/talkatoo/internal/store"
	"github.com/abelbrown/talkatoo/internal/tracker"
	"github.com/abelbrown/talkatoo/internal/ui"
)

// appConfig wires the App's side effects to the store and the notifier.
// Every factory returns a tea.Cmd that runs off the UI goroutine and
// answers with a result message.
func appConfig(ctx context.Context, cfg *config.Config, configPath string, st *store.Store, cat *catalog.Catalog, n notify.Service, events *otel.Logger, ring *otel.Ring) ui.AppConfig {
	return ui.AppConfig{
		Catalog: cat,
		Config:  cfg,
		Events:  events,
		Ring:    ring,
		LoadProgress: func() tea.Cmd {
			return loadProgress(st, cat)
		},
		StartRun: func() tea.Cmd {
			return startRun(st)
		},
		Persist: func(runID string, c tracker.Change) tea.Cmd {
			return persist(st, runID, c)
		},
		Notify: func(message string, err error) tea.Cmd {
			return sendNotification(ctx, n, message, err)
		},
		SaveConfig: func(c *config.Config) tea.Cmd {
			return saveConfig(c, configPath)
		},
	}
}

// loadProgress reads the current run, creating one on first start.
func loadProgress(st *store.Store, cat *catalog.Catalog) tea.Cmd {
	return func() tea.Msg {
		run, err := st.CurrentRun()
		if err != nil {
			return ui.ProgressLoaded{Err: err}
		}
		keys, err := st.LoadCollected(run.ID)
		if err != nil {
			return ui.ProgressLoaded{Err: err}
		}
		moons, missing := cat.Resolve(keys)
		for _, k := range missing {
			logging.WithPrefix("store").Warn("collected moon missing from moon list", "run", run.ID, "moon", k.String())
		}
		return ui.ProgressLoaded{RunID: run.ID, Moons: moons}
	}
}

func startRun(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		run, err := st.StartRun()
		if err != nil {
			return ui.RunStarted{Err: err}
		}
		logging.Info("new run", "run", run.ID)
		return ui.RunStarted{RunID: run.ID}
	}
}

// persist writes a collect or uncollect. Other changes live only in memory.
func persist(st *store.Store, runID string, c tracker.Change) tea.Cmd {
	key := c.Moon.Key()
	switch c.Kind {
	case tracker.ChangeMoonCollected:
		return func() tea.Msg {
			_, err := st.SaveCollected(runID, key)
			return ui.Persisted{Key: key, Err: err}
		}
	case tracker.ChangeMoonUncollected:
		return func() tea.Msg {
			return ui.Persisted{Key: key, Err: st.DeleteCollected(runID, key)}
		}
	default:
		return nil
	}
}

func sendNotification(ctx context.Context, n notify.Service, message string, err error) tea.Cmd {
	return func() tea.Msg {
		if err != nil {
			return ui.Notified{Err: n.Error(ctx, err, "store")}
		}
		return ui.Notified{Err: n.Success(ctx, message)}
	}
}

func saveConfig(c *config.Config, path string) tea.Cmd {
	return func() tea.Msg {
		err := c.SaveTo(path)
		if err == nil {
			logging.Info("settings saved", "path", path)
		}
		return ui.ConfigSaved{Err: err}
	}
}
