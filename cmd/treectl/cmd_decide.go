package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/treedecide/internal/engine"
	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/format"
	"github.com/danielpatrickdp/treedecide/internal/instant"
	"github.com/danielpatrickdp/treedecide/internal/logging"
	"github.com/danielpatrickdp/treedecide/internal/reducer"
	"github.com/danielpatrickdp/treedecide/internal/store"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

type decideOptions struct {
	treePath    string
	agentID     string
	contextJSON string
	contextFile string
	timestamp   int64
	hasTime     bool
	timezone    string
	explain     bool
	noLog       bool
}

func newDecideCmd(a *app) *cobra.Command {
	var opts decideOptions
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Take a decision from a tree envelope",
		Long: `Take a decision for a context.

The envelope comes from --tree, or from the active version of --agent in the
tree store. Decisions taken for an agent are written to the decision log.`,
		Example: `  treectl decide --tree car.json --context '{"car": "Renault", "speed": 100}'
  treectl decide --agent car-1 --context-file ctx.json --time 1489998174 --tz +01:00 --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasTime = cmd.Flags().Changed("time")
			if !opts.hasTime && opts.timezone != "" {
				opts.timestamp = time.Now().Unix()
				opts.hasTime = true
			}
			return runDecide(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.treePath, "tree", "", "path to a tree envelope")
	cmd.Flags().StringVar(&opts.agentID, "agent", "", "use the active tree of this agent")
	cmd.Flags().StringVar(&opts.contextJSON, "context", "", "context as a JSON object")
	cmd.Flags().StringVar(&opts.contextFile, "context-file", "", "read the context from a file (- for stdin)")
	cmd.Flags().Int64Var(&opts.timestamp, "time", 0, "reference instant as unix seconds")
	cmd.Flags().StringVar(&opts.timezone, "tz", "", "timezone of the reference instant (alone: now in that zone)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "print reduced, formatted decision rules instead of JSON")
	cmd.Flags().BoolVar(&opts.noLog, "no-log", false, "do not write agent decisions to the decision log")
	cmd.MarkFlagsMutuallyExclusive("tree", "agent")
	cmd.MarkFlagsOneRequired("tree", "agent")
	cmd.MarkFlagsMutuallyExclusive("context", "context-file")
	return cmd
}

func runDecide(cmd *cobra.Command, a *app, opts decideOptions) error {
	state, err := readContext(cmd, opts)
	if err != nil {
		return err
	}

	var at *instant.Time
	if opts.hasTime {
		at, err = instant.New(opts.timestamp, opts.timezone)
		if err != nil {
			return err
		}
	}

	var env *tree.Envelope
	var st *store.Store
	var version store.TreeVersion
	if opts.agentID != "" {
		st, err = a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		env, version, err = st.Load(opts.agentID)
	} else {
		var data []byte
		data, err = readInput(cmd, opts.treePath)
		if err == nil {
			env, err = tree.Parse(data)
		}
	}
	if err != nil {
		a.metrics.ObserveDecision(0, false, err)
		return err
	}

	start := time.Now()
	res, err := engine.DecideEnvelope(env, state, at)
	a.metrics.ObserveDecision(time.Since(start), res != nil && res.Aggregated(), err)

	if st != nil && !opts.noLog {
		entry, lerr := logging.NewDecisionEntry(opts.agentID, version.VersionID, state, res, err)
		if lerr == nil {
			lerr = logging.LogDecision(st.DB(), entry)
		}
		if lerr != nil {
			a.logger.Warn("decision not logged", zap.String("agent", opts.agentID), zap.Error(lerr))
		} else {
			a.logger.Debug("decision logged",
				zap.String("decision_id", entry.DecisionID),
				zap.String("outcome", string(entry.Outcome)))
		}
	}

	if err != nil {
		a.logger.Info("no decision", zap.String("agent", opts.agentID), zap.Error(err))
		return err
	}
	if res.Aggregated() {
		a.logger.Debug("decision aggregated from subtree leaves", zap.String("agent", opts.agentID))
	}

	if opts.explain {
		return explain(cmd.OutOrStdout(), env.Configuration, res)
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func readContext(cmd *cobra.Command, opts decideOptions) (map[string]any, error) {
	raw := []byte(opts.contextJSON)
	if opts.contextFile != "" {
		var err error
		raw, err = readInput(cmd, opts.contextFile)
		if err != nil {
			return nil, err
		}
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var state map[string]any
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("context is not a JSON object: %w", err)
	}
	return state, nil
}

// explain prints one block per output: the predicted value followed by its reduced
// decision rules.
func explain(w io.Writer, cfg tree.Configuration, res *engine.Result) error {
	outputs := make([]string, 0, len(res.Output))
	for name := range res.Output {
		outputs = append(outputs, name)
	}
	sort.Strings(outputs)

	for _, name := range outputs {
		d := res.Output[name]
		fmt.Fprintf(w, "%s = %v (confidence %.2f)\n", name, d.PredictedValue, d.Confidence)
		if d.Aggregated {
			fmt.Fprintln(w, "  no rule matched, aggregated from the subtree")
		}

		rules, err := reducer.Reduce(d.DecisionRules)
		if errors.Is(err, errs.ErrReduction) {
			rules = d.DecisionRules
		} else if err != nil {
			return err
		}
		lines, err := format.Path(rules, cfg)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	return nil
}
