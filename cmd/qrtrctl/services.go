package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/qrtrlink/qrtr-go"
)

func newServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services <node>",
		Short: "List the services a node exports",
		Args:  cobra.ExactArgs(1),
		RunE:  runServices,
	}
}

func runServices(cmd *cobra.Command, args []string) error {
	nodeNum, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", args[0], err)
	}
	node := qrtr.NodeID(nodeNum)

	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout+defaultLookupTimeout)
	defer cancel()

	obs, err := qrtr.Create(ctx, timeout)
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer obs.Close()

	n, ok := obs.GetNode(node)
	if !ok {
		return fmt.Errorf("node %d is not published", node)
	}

	services := n.Services()
	sort.Slice(services, func(i, j int) bool { return services[i].Port < services[j].Port })

	sec := section{
		title:   fmt.Sprintf("NODE %d", nodeNum),
		headers: []string{"SERVICE", "PORT", "VERSION", "INSTANCE"},
	}
	for _, s := range services {
		sec.rows = append(sec.rows, []string{
			fmt.Sprintf("%d", uint32(s.ServiceID)),
			fmt.Sprintf("%d", s.Port),
			fmt.Sprintf("%d", s.Version),
			fmt.Sprintf("%d", s.Instance),
		})
	}

	renderSections(cmd.OutOrStdout(), []section{sec})
	return nil
}
