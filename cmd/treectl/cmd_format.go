package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/treedecide/internal/format"
	"github.com/danielpatrickdp/treedecide/internal/rule"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

func newFormatCmd(_ *app) *cobra.Command {
	var treePath, typ, value string
	cmd := &cobra.Command{
		Use:   "format [rules.json]",
		Short: "Render values or decision rules for humans",
		Long: `With --value, render a single value of the property type given by --type.
Otherwise read a JSON array of decision rules and render each one, using the
property types of --tree, or --type for every rule.`,
		Example: `  treectl format --type time_of_day --value 11.5
  treectl format --tree car.json rules.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("value") {
				fmt.Fprintln(out, format.Property(tree.PropertyType(typ))(scalarArg(value)))
				return nil
			}

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

			cfg, err := loadConfiguration(treePath)
			if err != nil {
				return err
			}
			if typ != "" {
				cfg.Context = make(map[string]tree.Property, len(rules))
				for _, r := range rules {
					cfg.Context[r.Property] = tree.Property{Type: tree.PropertyType(typ)}
				}
			}
			lines, err := format.Path(rules, cfg)
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&treePath, "tree", "", "envelope whose configuration gives property types")
	cmd.Flags().StringVar(&typ, "type", "", "property type (continuous, enum, time_of_day, day_of_week, ...)")
	cmd.Flags().StringVar(&value, "value", "", "single value to render")
	return cmd
}

// scalarArg reads a command-line value as a number when it parses as one.
func scalarArg(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
