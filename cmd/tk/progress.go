package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/store"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show collected vs required moons per kingdom",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			kingdoms := cfg.DisplayKingdoms()
			if all {
				kingdoms = moon.Kingdoms()
			}

			return ctx.withStore(func(st *store.Store) error {
				run, err := st.CurrentRun()
				if err != nil {
					return err
				}
				counts, err := st.CountByKingdom(run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s, started %s\n", shortID(run.ID), run.Started.Local().Format("2006-01-02 15:04"))
				headers, rows, aligns := progressTable(kingdoms, counts, shouldColorize(out))
				fmt.Fprint(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include every kingdom, not just the configured ones")
	return cmd
}

// progressTable builds one row per kingdom plus a total. Kingdoms with a
// requirement show it; the rest show only the count.
func progressTable(kingdoms []moon.Kingdom, counts map[moon.Kingdom]int, colorize bool) ([]string, [][]string, []columnAlignment) {
	headers := []string{"Kingdom", "Collected", "Required", "Done"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(kingdoms)+1)
	total := 0
	for _, k := range kingdoms {
		n := counts[k]
		total += n
		info := k.Info()

		required, done := "-", ""
		if info.RequiredMoons > 0 {
			required = strconv.Itoa(info.RequiredMoons)
			done = paint("no", ansiDim, colorize)
			if n >= info.RequiredMoons {
				done = paint("yes", ansiGreen, colorize)
			}
		}
		rows = append(rows, []string{info.Name, strconv.Itoa(n), required, done})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(total), "", ""})
	return headers, rows, aligns
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
