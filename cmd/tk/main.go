// Command tk is the Talkatoo maintenance CLI: progress and collection
// reports, imports, run resets, and the event log viewer.
//
// Usage:
//
//	tk progress             Collected vs required moons per kingdom
//	tk collected            Moons of the current run
//	tk runs                 Every run, newest first
//	tk import <file>        Add moons from a JSON list of keys
//	tk reset                Start a new run
//	tk kingdoms             Kingdom reference table
//	tk events               JSONL event log viewer
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "tk:", err)
		}
		os.Exit(1)
	}
}
