package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List every run, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				runs, err := st.Runs()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs yet.")
					return nil
				}
				headers, rows, aligns := runsTable(runs, shouldColorize(out))
				fmt.Fprint(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func runsTable(runs []store.Run, colorize bool) ([]string, [][]string, []columnAlignment) {
	headers := []string{"Run", "Started", "Ended", "Moons"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		ended := paint("current", ansiGreen, colorize)
		if !r.Current() {
			ended = r.Ended.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.Started.Local().Format("2006-01-02 15:04"),
			ended,
			strconv.Itoa(r.Collected),
		})
	}
	return headers, rows, aligns
}
