package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/treedecide/internal/store"
	"github.com/danielpatrickdp/treedecide/internal/treesource"
)

// #region tree
func newTreeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage stored decision tree versions",
		Long: `Store decision tree envelopes per agent and move the active version.

Subcommands:
  put       - Store an envelope as the agent's active version
  get       - Print the active (or a given) version
  list      - List stored versions
  rollback  - Make a previous version active again
  fetch     - Download an envelope from the tree service
  serve     - Serve stored envelopes over gRPC`,
	}
	cmd.AddCommand(
		newTreePutCmd(a),
		newTreeGetCmd(a),
		newTreeListCmd(a),
		newTreeRollbackCmd(a),
		newTreeFetchCmd(a),
		newTreeServeCmd(a),
	)
	return cmd
}

// #endregion tree

// #region put-get
func newTreePutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <agent-id> <envelope.json>",
		Short: "Store an envelope as the agent's active version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Put(args[0], data)
			if err != nil {
				return err
			}
			a.logger.Info("tree stored",
				zap.String("agent", rec.AgentID),
				zap.String("version", rec.VersionID),
				zap.Strings("outputs", rec.Outputs))
			fmt.Fprintln(cmd.OutOrStdout(), rec.VersionID)
			return nil
		},
	}
}

func newTreeGetCmd(a *app) *cobra.Command {
	var versionID string
	cmd := &cobra.Command{
		Use:   "get <agent-id>",
		Short: "Print the agent's active envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var rec store.TreeVersion
			if versionID != "" {
				rec, err = st.Version(versionID)
			} else {
				rec, err = st.Active(args[0])
			}
			if err != nil {
				return err
			}
			if rec.AgentID != args[0] {
				return fmt.Errorf("version %s belongs to agent %s", rec.VersionID, rec.AgentID)
			}
			_, err = cmd.OutOrStdout().Write(rec.Envelope)
			return err
		},
	}
	cmd.Flags().StringVar(&versionID, "version", "", "print this version instead of the active one")
	return cmd
}

// #endregion put-get

// #region list-rollback
func newTreeListCmd(a *app) *cobra.Command {
	var agentID string
	var last int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			versions, err := st.ListVersions(agentID, last)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, versions)
			}
			if len(versions) == 0 {
				fmt.Fprintln(out, "no versions found")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-16s  %-8s  %-20s  %s\n", "Version", "Agent", "Model", "Created", "Outputs")
			for _, v := range versions {
				marker := ""
				if v.Active {
					marker = " *"
				}
				fmt.Fprintf(out, "%-36s  %-16s  %-8s  %-20s  %s%s\n",
					v.VersionID, v.AgentID, v.ModelVersion, v.CreatedAt.Format("2006-01-02T15:04:05Z"),
					strings.Join(v.Outputs, ","), marker)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "only list this agent's versions")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent versions")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

func newTreeRollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <agent-id> <version-id>",
		Short: "Make a previous version active again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Rollback(args[0], args[1]); err != nil {
				return err
			}
			a.logger.Info("tree rolled back", zap.String("agent", args[0]), zap.String("version", args[1]))
			return nil
		},
	}
}

// #endregion list-rollback

// #region fetch-serve
func newTreeFetchCmd(a *app) *cobra.Command {
	var at int64
	var save bool
	cmd := &cobra.Command{
		Use:   "fetch <agent-id>",
		Short: "Download an agent's envelope from the tree service",
		Long: `Call GetDecisionTree on the tree service configured under tree_service.address
(or TREEDECIDE_TREE_SERVICE). With --save the envelope becomes the agent's active
version in the local store; otherwise it is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := treesource.NewClient(a.cfg.TreeService.Address)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.TreeService.Timeout)
			defer cancel()
			_, data, err := client.Fetch(ctx, args[0], at)
			if err != nil {
				return err
			}

			if !save {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			rec, err := st.Put(args[0], data)
			if err != nil {
				return err
			}
			a.logger.Info("tree fetched", zap.String("agent", args[0]), zap.String("version", rec.VersionID))
			fmt.Fprintln(cmd.OutOrStdout(), rec.VersionID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&at, "at", 0, "unix seconds; 0 fetches the latest tree")
	cmd.Flags().BoolVar(&save, "save", false, "store the envelope as the agent's active version")
	return cmd
}

func newTreeServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored envelopes over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			lis, err := net.Listen("tcp", a.cfg.TreeService.Listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", a.cfg.TreeService.Listen, err)
			}
			srv := grpc.NewServer()
			treesource.RegisterServer(srv, &treesource.StoreServer{Versions: st})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				srv.GracefulStop()
			}()

			a.logger.Info("tree service listening", zap.String("addr", lis.Addr().String()))
			if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}

// #endregion fetch-serve
