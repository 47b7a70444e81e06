// Copyright 2026 The pgfleet Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/distobject"
	"github.com/pgfleet/pgfleet/pkg/metadata"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "manage the set of worker nodes",
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <host> <port>",
	Short: "register a worker node, activating it if previously removed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNodeChange(cmd, args, (*cluster.PGNodeSource).AddNode)
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "remove <host> <port>",
	Short: "deactivate a worker node so propagation skips it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNodeChange(cmd, args, (*cluster.PGNodeSource).DeactivateNode)
	},
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "list active worker nodes",
	Args:  cobra.NoArgs,
	RunE:  runNodeList,
}

func init() {
	nodeCmd.AddCommand(nodeAddCmd, nodeRemoveCmd, nodeListCmd)
}

func runNodeChange(
	cmd *cobra.Command, args []string,
	change func(*cluster.PGNodeSource, context.Context, string, int) error,
) (err error) {
	ctx := cmd.Context()
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", args[1], err)
	}
	conn, err := connectCoordinator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()
	return change(cluster.NewPGNodeSource(conn), ctx, args[0], port)
}

func runNodeList(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	conn, err := connectCoordinator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	nodes, err := cluster.NewPGNodeSource(conn).ActiveNodes(ctx)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", node.ID, node.Addr())
	}
	return nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "create the pgfleet metadata tables on the coordinator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx := cmd.Context()
		conn, err := connectCoordinator(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close(ctx) }()

		for _, ddl := range []string{
			distobject.BootstrapDDL,
			cluster.NodeTableDDL,
			metadata.ShardTableDDL,
		} {
			if _, err := conn.Exec(ctx, ddl); err != nil {
				return err
			}
		}
		return nil
	},
}
