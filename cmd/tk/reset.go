package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/store"
)

var errResetAborted = errors.New("reset aborted")

func newResetCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "End the current run and start a new one",
		Long: `Ends the current run and starts an empty one. The old run stays in the
database and is listed by "tk runs".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !isTerminal(cmd.InOrStdin()) {
					return errors.New("refusing to reset without --yes")
				}
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Start a new run? (y/N) ")
				if err != nil {
					return err
				}
				if !ok {
					return errResetAborted
				}
			}

			return ctx.withLockedStore(func(st *store.Store) error {
				old, err := st.CurrentRun()
				if err != nil {
					return err
				}
				run, err := st.StartRun()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ended run %s (%d moons), started run %s\n",
					shortID(old.ID), old.Collected, shortID(run.ID))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(r io.Reader, w io.Writer, prompt string) (bool, error) {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
