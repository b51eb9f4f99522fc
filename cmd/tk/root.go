package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/catalog"
	"github.com/abelbrown/talkatoo/internal/config"
	"github.com/abelbrown/talkatoo/internal/store"
)

func newRootCommand() *cobra.Command {
	var dataDirFlag string

	ctx := newCommandContext(&dataDirFlag)

	rootCmd := &cobra.Command{
		Use:           "tk",
		Short:         "Talkatoo maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "", "Data directory (default $TALKATOO_DATA_DIR or ~/.talkatoo)")

	rootCmd.AddCommand(newProgressCommand(ctx))
	rootCmd.AddCommand(newCollectedCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))
	rootCmd.AddCommand(newKingdomsCommand())
	rootCmd.AddCommand(newEventsCommand(ctx))

	return rootCmd
}

// commandContext is shared by every subcommand. The config is loaded once,
// on first use.
type commandContext struct {
	dataDirFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(dataDirFlag *string) *commandContext {
	return &commandContext{dataDirFlag: dataDirFlag}
}

func (c *commandContext) dataDir() string {
	if c.dataDirFlag != nil {
		if dir := strings.TrimSpace(*c.dataDirFlag); dir != "" {
			return dir
		}
	}
	return config.DataDir()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.LoadFrom(filepath.Join(c.dataDir(), "config.json"))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.ApplyEnv(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	st, err := store.Open(filepath.Join(c.dataDir(), store.DBFile))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// withLockedStore is withStore for commands that write: it refuses to run
// while the tracker holds the data dir.
func (c *commandContext) withLockedStore(fn func(*store.Store) error) error {
	unlock, err := store.LockDataDir(c.dataDir())
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return fmt.Errorf("%w; quit talkatoo first", err)
		}
		return err
	}
	defer unlock()
	return c.withStore(fn)
}

// loadCatalog reads the moon list. Commands that only need names treat a
// missing list as non-fatal and fall back to keys.
func (c *commandContext) loadCatalog() (*catalog.Catalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Load(cfg.CatalogFile(c.dataDir()))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
