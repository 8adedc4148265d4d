package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/treedecide/internal/logging"
	"github.com/danielpatrickdp/treedecide/internal/replay"
)

func newExportCmd(a *app) *cobra.Command {
	var outPath string
	var last int
	cmd := &cobra.Command{
		Use:   "export <agent-id>",
		Short: "Export logged decisions as a replay fixture",
		Long: `Write the agent's active envelope and the most recent decisions taken against
it as a replay fixture. Replaying the fixture later detects behavior drift.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Active(agentID)
			if err != nil {
				return err
			}
			entries, err := logging.RecentDecisions(st.DB(), agentID, last)
			if err != nil {
				return err
			}

			// Keep decisions of the active version, oldest first.
			var kept []logging.DecisionEntry
			for i := len(entries) - 1; i >= 0; i-- {
				if entries[i].VersionID == rec.VersionID {
					kept = append(kept, entries[i])
				}
			}
			if len(kept) == 0 {
				return fmt.Errorf("no logged decisions for version %s of agent %s", rec.VersionID, agentID)
			}

			fixture, err := replay.FromDecisions(
				fmt.Sprintf("agent %s, version %s", agentID, rec.VersionID), rec.Envelope, kept)
			if err != nil {
				return err
			}
			if err := fixture.Save(outPath); err != nil {
				return err
			}
			a.logger.Info("fixture exported",
				zap.String("agent", agentID),
				zap.Int("expectations", len(kept)),
				zap.String("out", outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	cmd.Flags().IntVar(&last, "last", 50, "number of most recent decisions to export")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
