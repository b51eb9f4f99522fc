package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/store"
)

func newCollectedCommand(ctx *commandContext) *cobra.Command {
	var kingdomFlag string

	cmd := &cobra.Command{
		Use:   "collected",
		Short: "List the moons collected in the current run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := catalog.AnyKingdom
			if kingdomFlag != "" {
				k, err := moon.ParseKingdom(kingdomFlag)
				if err != nil {
					return err
				}
				filter = k
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cat, err := ctx.loadCatalog()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; names unavailable\n", err)
			}

			return ctx.withStore(func(st *store.Store) error {
				run, err := st.CurrentRun()
				if err != nil {
					return err
				}
				keys, err := st.LoadCollected(run.ID)
				if err != nil {
					return err
				}
				keys = filterKeys(keys, filter)

				out := cmd.OutOrStdout()
				if len(keys) == 0 {
					fmt.Fprintln(out, "No moons collected.")
					return nil
				}
				headers, rows, aligns := collectedTable(keys, cat, cfg.OutputLanguage)
				fmt.Fprint(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kingdomFlag, "kingdom", "k", "", "Only show moons of this kingdom")
	return cmd
}

func filterKeys(keys []moon.Key, k moon.Kingdom) []moon.Key {
	if k == catalog.AnyKingdom {
		return keys
	}
	out := keys[:0:0]
	for _, key := range keys {
		if key.Kingdom == k {
			out = append(out, key)
		}
	}
	return out
}

// collectedTable lists keys in collection order. Without a catalog, or for
// keys the catalog no longer knows, the name column shows "?".
func collectedTable(keys []moon.Key, cat *catalog.Catalog, lang moon.Language) ([]string, [][]string, []columnAlignment) {
	headers := []string{"Order", "Kingdom", "Moon", "Name"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}

	rows := make([][]string, 0, len(keys))
	for i, key := range keys {
		name := "?"
		if cat != nil {
			if m, err := cat.Lookup(key.ID, key.Kingdom); err == nil {
				name = m.Name(lang)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			key.Kingdom.String(),
			strconv.Itoa(key.ID),
			name,
		})
	}
	return headers, rows, aligns
}
