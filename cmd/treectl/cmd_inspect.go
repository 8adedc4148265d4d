package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/treedecide/internal/logging"
)

type decisionRow struct {
	DecisionID string `json:"decision_id"`
	AgentID    string `json:"agent_id"`
	VersionID  string `json:"version_id,omitempty"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	Output     string `json:"output,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newInspectCmd(a *app) *cobra.Command {
	var agentID string
	var last int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show recent decisions from the decision log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := logging.RecentDecisions(st.DB(), agentID, last)
			if err != nil {
				return err
			}

			// Entries come newest first; print them chronologically.
			rows := make([]decisionRow, len(entries))
			for i, e := range entries {
				rows[len(entries)-1-i] = decisionRow{
					DecisionID: e.DecisionID,
					AgentID:    e.AgentID,
					VersionID:  e.VersionID,
					Outcome:    string(e.Outcome),
					Reason:     e.Reason,
					Output:     e.OutputJSON,
					CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z"),
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "no decisions found")
				return nil
			}
			printDecisionTable(out, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "only show this agent's decisions")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent decisions")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

func printDecisionTable(w io.Writer, rows []decisionRow) {
	fmt.Fprintf(w, "%-20s  %-16s  %-10s  %s\n", "Time", "Agent", "Outcome", "Detail")
	fmt.Fprintf(w, "%-20s+-%-16s+-%-10s+-%s\n", "--------------------", "----------------", "----------", "--------------------")
	for _, r := range rows {
		detail := r.Output
		if r.Reason != "" {
			detail = r.Reason
		}
		if len(detail) > 100 {
			detail = detail[:97] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-16s  %-10s  %s\n", r.CreatedAt, r.AgentID, r.Outcome, detail)
	}
}
