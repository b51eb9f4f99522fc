package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/otel"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var (
		tail    int
		follow  bool
		rawJSON bool
		level   string
		seq     int
		filter  otel.Filter
	)

	cmd := &cobra.Command{
		Use:         "events",
		Short:       "Show the JSONL event log",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			minLevel, err := otel.ParseLevel(level)
			if err != nil {
				return err
			}
			filter.MinLevel = minLevel
			if cmd.Flags().Changed("seq") {
				filter.Seq = &seq
			}

			logPath := filepath.Join(ctx.dataDir(), otel.EventLogFile)
			f, err := os.Open(logPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("event log not found at %s; run talkatoo first to generate events", logPath)
				}
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			emit := func(ev otel.Event, raw []byte) {
				if rawJSON {
					fmt.Fprintln(out, string(raw))
					return
				}
				fmt.Fprintln(out, formatEvent(ev, colorize))
			}

			for _, l := range readTailLines(f, tail, filter.Match) {
				emit(l.ev, l.raw)
			}
			if !follow {
				return nil
			}
			return followEvents(cmd.Context(), f, filter.Match, emit)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&tail, "tail", "n", 50, "Number of recent events to show")
	flags.BoolVarP(&follow, "follow", "f", false, "Keep printing new events (like tail -f)")
	flags.BoolVar(&rawJSON, "json", false, "Output raw JSON lines")
	flags.StringVar(&filter.Kind, "kind", "", "Filter by event kind prefix (e.g. 'mention')")
	flags.StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	flags.StringVar(&filter.Comp, "comp", "", "Filter by component name")
	flags.StringVar(&filter.Kingdom, "kingdom", "", "Filter by kingdom")
	flags.StringVar(&filter.Session, "session", "", "Filter by session id prefix")
	flags.IntVar(&seq, "seq", 0, "Only events about this mention number")
	return cmd
}

// followEvents polls r for appended lines until ctx is done.
func followEvents(ctx context.Context, r io.Reader, match func(otel.Event) bool, emit func(otel.Event, []byte)) error {
	reader := bufio.NewReader(r)
	var pending []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		pending = append(pending, chunk...)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		line := trimLine(pending)
		pending = nil
		if len(line) == 0 {
			continue
		}
		var ev otel.Event
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			emit(ev, line)
		}
	}
}

func formatEvent(ev otel.Event, colorize bool) string {
	ts := ev.Time.Local().Format("15:04:05.000")
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}
	head := fmt.Sprintf("%s %-5s [%-7s] %-18s", ts, lvl, ev.Comp, ev.Kind)
	switch ev.Level {
	case otel.LevelError:
		head = paint(head, ansiRed, colorize)
	case otel.LevelWarn:
		head = paint(head, ansiYellow, colorize)
	case otel.LevelDebug:
		head = paint(head, ansiDim, colorize)
	}

	parts := []string{head}
	if ev.Seq != nil {
		parts = append(parts, fmt.Sprintf("#%d", *ev.Seq))
	}
	switch {
	case ev.Kingdom != "" && ev.MoonID > 0:
		parts = append(parts, fmt.Sprintf("%s %d", ev.Kingdom, ev.MoonID))
	case ev.Kingdom != "":
		parts = append(parts, ev.Kingdom)
	}
	if ev.Msg != "" {
		parts = append(parts, ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Source != "" {
		parts = append(parts, "src="+ev.Source)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  otel.Event
	raw []byte
}

// readTailLines reads r to the end and returns the last n lines matching
// the filter. Lines that are not valid events are skipped.
func readTailLines(r io.Reader, n int, match func(otel.Event) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Extra maps can make lines long
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	if n <= 0 {
		for scanner.Scan() {
		}
		return nil
	}
	ring := make([]parsedLine, 0, n)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev otel.Event
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// The scanner reuses its buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
