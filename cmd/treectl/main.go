// Command treectl takes decisions from decision trees, canonicalizes and formats their
// rules, and manages stored tree versions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/treedecide/internal/config"
	"github.com/danielpatrickdp/treedecide/internal/logging"
	"github.com/danielpatrickdp/treedecide/internal/metrics"
	"github.com/danielpatrickdp/treedecide/internal/store"
)

// #region app
// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.NewStore(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.cfg.Database.Path, err)
	}
	return st, nil
}

// #endregion app

// #region root
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "treectl",
		Short: "Decision tree interpreter",
		Long: `treectl evaluates versioned decision tree envelopes against a context.

It takes decisions, reduces decision paths to one rule per property, renders
rules for humans, stores tree versions per agent and replays recorded decisions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			a.cfg = cfg

			a.logger, err = logging.NewLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			a.metrics = metrics.New()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
				return a.metrics.WriteTextfile(a.cfg.Metrics.Textfile)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "treectl.yaml", "path to the YAML configuration")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newDecideCmd(a),
		newReduceCmd(a),
		newFormatCmd(a),
		newTreeCmd(a),
		newReplayCmd(a),
		newInspectCmd(a),
		newExportCmd(a),
	)
	return root
}

// #endregion root

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
