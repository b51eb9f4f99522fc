// Package feed connects the moon recognizer to the TUI.
//
// The recognizer appends one JSON object per line to a file. The Watcher
// polls its sources on a ticker, resolves moon keys through the catalog and
// hands the results to the Bubble Tea program as messages. It never touches
// the tracker directly.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/logging"
	"github.com/abelbrown/talkatoo/internal/otel"
	"github.com/abelbrown/talkatoo/internal/ui"
)

// DefaultInterval is the time between polls when none is configured.
const DefaultInterval = 250 * time.Millisecond

// maxConcurrentPolls limits parallel source reads.
const maxConcurrentPolls = 4

// deliveryInterval and deliveryBurst pace messages when the recognizer
// catches up on a backlog.
const (
	deliveryInterval = 50 * time.Millisecond
	deliveryBurst    = 5
)

// Sender is the part of *tea.Program the watcher needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Watcher polls producer sources and forwards their records.
// Uses context cancellation as the ONLY stop mechanism.
type Watcher struct {
	sources  []Source // IMMUTABLE: set at construction, never modified
	catalog  *catalog.Catalog
	events   *otel.Logger
	interval time.Duration
	limiter  *rate.Limiter

	// last holds the previous record signature per source and record type,
	// so a kingdom line between two equal mentions does not let the second
	// through. Only touched by the polling goroutine.
	last map[streamKey]string

	wg sync.WaitGroup
}

type streamKey struct {
	source string
	typ    RecordType
}

// NewWatcher creates a Watcher. events may be nil.
func NewWatcher(cat *catalog.Catalog, events *otel.Logger, interval time.Duration, sources ...Source) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if events == nil {
		events = otel.NewNullLogger()
	}
	sourcesCopy := make([]Source, len(sources))
	copy(sourcesCopy, sources)

	return &Watcher{
		sources:  sourcesCopy,
		catalog:  cat,
		events:   events,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(deliveryInterval), deliveryBurst),
		last:     make(map[streamKey]string),
	}
}

// Start begins polling in the background. Call with a cancellable context.
func (w *Watcher) Start(ctx context.Context, program Sender) {
	for _, src := range w.sources {
		w.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFeedStart, Comp: "feed", Source: src.Name()})
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.pollAll(ctx, program)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

type pollResult struct {
	lines [][]byte
	err   error
}

// pollAll reads every source in parallel, then delivers in source order so
// each source's lines keep their relative order.
func (w *Watcher) pollAll(ctx context.Context, program Sender) {
	results := make([]pollResult, len(w.sources))

	var g errgroup.Group
	g.SetLimit(maxConcurrentPolls)
	for i, src := range w.sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			lines, err := src.Poll(ctx)
			results[i] = pollResult{lines: lines, err: err}
			return nil // never fail the group - errors reported per-source
		})
	}
	_ = g.Wait()

	for i, src := range w.sources {
		if err := results[i].err; err != nil {
			if ctx.Err() != nil {
				return
			}
			w.reportError(program, src.Name(), err)
			continue
		}
		for _, line := range results[i].lines {
			if err := w.deliver(ctx, program, src.Name(), line); err != nil {
				return
			}
		}
	}
}

// deliver parses one line and sends the matching message. It only returns
// an error when ctx is done.
func (w *Watcher) deliver(ctx context.Context, program Sender, source string, line []byte) error {
	rec, err := ParseLine(line)
	if err != nil {
		w.reportError(program, source, err)
		return nil
	}

	sig := rec.signature()
	stream := streamKey{source: source, typ: rec.Type}
	if w.last[stream] == sig {
		return nil
	}
	w.last[stream] = sig

	var msg tea.Msg
	switch rec.Type {
	case TypeKingdom:
		msg = ui.KingdomDetected{Kingdom: rec.Kingdom}

	case TypeMention, TypeCollected:
		found, missing := w.catalog.Resolve(rec.Moons)
		for _, k := range missing {
			logging.WithPrefix("feed").Warn("unknown moon", "source", source, "moon", k.String())
			w.events.Emit(otel.Event{
				Level:   otel.LevelWarn,
				Kind:    otel.KindFeedError,
				Comp:    "feed",
				Source:  source,
				Kingdom: k.Kingdom.String(),
				MoonID:  k.ID,
				Msg:     "unknown moon",
			})
		}
		if rec.Type == TypeMention {
			// Delivered even when empty so the tracker rejects it visibly.
			msg = ui.MentionDetected{Moons: found, Source: source}
		} else {
			if len(found) == 0 {
				return nil
			}
			msg = ui.MoonsCollected{Moons: found, Source: source}
		}
	}

	w.events.Emit(otel.Event{
		Level:  otel.LevelDebug,
		Kind:   otel.KindFeedEvent,
		Comp:   "feed",
		Source: source,
		Count:  len(rec.Moons),
		Msg:    string(rec.Type),
	})

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	// Handle nil program gracefully for testing
	if program != nil {
		program.Send(msg)
	}
	return nil
}

func (w *Watcher) reportError(program Sender, source string, err error) {
	logging.WithPrefix("feed").Error("feed error", "source", source, "err", err)
	w.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindFeedError, Comp: "feed", Source: source, Err: err.Error()})
	if program != nil {
		program.Send(ui.FeedError{Source: source, Err: fmt.Errorf("%s: %w", source, err)})
	}
}
