package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/treedecide/internal/format"
	"github.com/danielpatrickdp/treedecide/internal/reducer"
	"github.com/danielpatrickdp/treedecide/internal/rule"
)

func newReduceCmd(a *app) *cobra.Command {
	var treePath string
	var human bool
	cmd := &cobra.Command{
		Use:   "reduce [rules.json]",
		Short: "Merge decision rules into one rule per property",
		Long: `Read a JSON array of decision rules and print the canonical set, holding
at most one rule per property. Rules are read from stdin when no file is given.`,
		Example: `  echo '[{"property":"speed","operator":">=","operand":2},{"property":"speed","operator":"<","operand":13}]' | treectl reduce`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			var rules []rule.Predicate
			if err := json.Unmarshal(data, &rules); err != nil {
				return fmt.Errorf("decision rules: %w", err)
			}

			reduced, err := reducer.Reduce(rules)
			a.metrics.ObserveReduction(err)
			if err != nil {
				return err
			}

			if !human {
				return printJSON(cmd.OutOrStdout(), reduced)
			}
			cfg, err := loadConfiguration(treePath)
			if err != nil {
				return err
			}
			lines, err := format.Path(reduced, cfg)
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&human, "human", false, "print formatted rules instead of JSON")
	cmd.Flags().StringVar(&treePath, "tree", "", "envelope whose configuration gives property types for --human")
	return cmd
}
