package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/qrtrlink/qrtr-go"
)

func newNodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List published nodes on the bus",
		Args:  cobra.NoArgs,
		RunE:  runNodes,
	}
	cmd.Flags().String("wait-for", "", "comma-separated node ids to block on before listing")
	return cmd
}

func runNodes(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout+defaultLookupTimeout)
	defer cancel()

	obs, err := qrtr.Create(ctx, timeout)
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer obs.Close()

	if waitFor, _ := cmd.Flags().GetString("wait-for"); waitFor != "" {
		if err := waitForNodes(ctx, obs, waitFor); err != nil {
			return err
		}
	}

	ids := obs.EnumerateNodes()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sec := section{title: "NODES", headers: []string{"NODE", "SERVICES"}}
	for _, id := range ids {
		n, ok := obs.GetNode(id)
		if !ok {
			continue
		}
		sec.rows = append(sec.rows, []string{
			fmt.Sprintf("%d", uint32(id)),
			fmt.Sprintf("%d", len(n.Services())),
		})
	}

	renderSections(cmd.OutOrStdout(), []section{sec})
	return nil
}

// waitForNodes blocks until every id in the comma-separated list is
// published, waiting on all of them concurrently rather than one at a
// time. Grounded on the teacher's errgroup.WithContext fan-out in
// pkg/sock.megaSock: the first failing wait cancels the group's context
// and aborts the rest.
func waitForNodes(ctx context.Context, obs *qrtr.Observer, csv string) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, field := range strings.Split(csv, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid node id %q: %w", field, err)
		}
		g.Go(func() error {
			_, err := obs.WaitForNode(gctx, qrtr.NodeID(id))
			if err != nil {
				return fmt.Errorf("waiting for node %d: %w", id, err)
			}
			return nil
		})
	}

	return g.Wait()
}
