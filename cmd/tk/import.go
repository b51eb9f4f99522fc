package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add moons to the current run from a JSON list of keys",
		Long: `Reads a JSON array of moon keys, for example
  [{"id": 1, "kingdom": "Sand"}, {"id": 5, "kingdom": "Lake"}]
and adds them to the current run. Use "-" to read stdin.

Keys missing from the moon list are rejected unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := readImportFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			if !force {
				cat, err := ctx.loadCatalog()
				if err != nil {
					return fmt.Errorf("%w (use --force to import without the moon list)", err)
				}
				if err := checkKeys(cat, keys); err != nil {
					return err
				}
			}

			return ctx.withLockedStore(func(st *store.Store) error {
				run, err := st.CurrentRun()
				if err != nil {
					return err
				}
				added, err := importKeys(st, run.ID, keys)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d moons into run %s (%d already collected)\n",
					added, shortID(run.ID), len(keys)-added)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Import keys that are not in the moon list")
	return cmd
}

func readImportFile(path string, stdin io.Reader) ([]moon.Key, error) {
	if path == "-" {
		return parseImport(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseImport(f)
}

// parseImport decodes a JSON array of keys. Kingdoms are written by name,
// in any spelling ParseKingdom accepts.
func parseImport(r io.Reader) ([]moon.Key, error) {
	var keys []moon.Key
	if err := json.NewDecoder(r).Decode(&keys); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}
	for i, k := range keys {
		if !k.Kingdom.Valid() {
			return nil, fmt.Errorf("parse import: entry %d: %w", i, moon.ErrUnknownKingdom)
		}
		if k.ID <= 0 {
			return nil, fmt.Errorf("parse import: entry %d: moon id must be positive, got %d", i, k.ID)
		}
	}
	return keys, nil
}

func checkKeys(cat *catalog.Catalog, keys []moon.Key) error {
	_, missing := cat.Resolve(keys)
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, k := range missing {
		names[i] = k.String()
	}
	return fmt.Errorf("%w: %s", catalog.ErrUnknownMoon, strings.Join(names, ", "))
}

// importKeys saves keys in order and reports how many were new.
func importKeys(st *store.Store, runID string, keys []moon.Key) (int, error) {
	added := 0
	for _, k := range keys {
		ok, err := st.SaveCollected(runID, k)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}
