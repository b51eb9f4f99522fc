package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abelbrown/talkatoo/internal/moon"
)

func newKingdomsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "kingdoms",
		Short:       "List kingdoms with their moon requirements",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, rows, aligns := kingdomTable(moon.Kingdoms())
			fmt.Fprint(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func kingdomTable(kingdoms []moon.Kingdom) ([]string, [][]string, []columnAlignment) {
	headers := []string{"#", "Kingdom", "Required", "Post-game", "Talkatoo"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(kingdoms))
	for _, k := range kingdoms {
		info := k.Info()
		required := "-"
		if info.RequiredMoons > 0 {
			required = strconv.Itoa(info.RequiredMoons)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(k)),
			info.Name,
			required,
			yesNo(info.IsPostGame),
			yesNo(info.HasTalkatoo),
		})
	}
	return headers, rows, aligns
}
