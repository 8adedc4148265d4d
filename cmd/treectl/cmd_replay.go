package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/treedecide/internal/engine"
	"github.com/danielpatrickdp/treedecide/internal/replay"
)

func newReplayCmd(a *app) *cobra.Command {
	var concurrency int
	var verbose bool
	cmd := &cobra.Command{
		Use:   "replay <fixture.json|dir>...",
		Short: "Replay decision fixtures and report drift",
		Long: `Re-take every decision recorded in the given fixtures and compare the results
with the expected outputs or errors. Directories are scanned for *.json files.
The command fails when any expectation does not hold.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.cfg.Replay.Concurrency
			}

			start := time.Now()
			observe := func(res *engine.Result, err error) {
				a.metrics.ObserveDecision(0, res != nil && res.Aggregated(), err)
			}
			results, err := replay.Run(cmd.Context(), fixtures, concurrency, observe)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				status := "PASS"
				if !r.Passed {
					status = "FAIL"
				}
				if r.Passed && !verbose {
					continue
				}
				fmt.Fprintf(out, "%s  %s / %s\n", status, r.Fixture, r.Title)
				if r.Diff != "" {
					fmt.Fprintf(out, "      %s\n", strings.ReplaceAll(strings.TrimSpace(r.Diff), "\n", "\n      "))
				}
			}

			sum := replay.Summarize(results)
			a.logger.Info("replay finished",
				zap.Int("fixtures", len(fixtures)),
				zap.Int("total", sum.Total),
				zap.Int("passed", sum.Passed),
				zap.Int("failed", sum.Failed),
				zap.Duration("elapsed", time.Since(start)))
			fmt.Fprintf(out, "%d expectations, %d passed, %d failed\n", sum.Total, sum.Passed, sum.Failed)
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d expectations failed", sum.Failed, sum.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "decisions in flight (default from config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also list passing expectations")
	return cmd
}

func loadFixtures(paths []string) ([]*replay.Fixture, error) {
	var fixtures []*replay.Fixture
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", p, err)
		}
		if info.IsDir() {
			dir, err := replay.LoadDir(p)
			if err != nil {
				return nil, err
			}
			fixtures = append(fixtures, dir...)
			continue
		}
		f, err := replay.LoadFixture(p)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}
