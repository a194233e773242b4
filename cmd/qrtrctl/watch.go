package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qrtrlink/qrtr-go"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream node and service changes as they happen",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().Bool("metrics", false, "log directory-size gauges every 5s via an otel MeterProvider")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []qrtr.Option{qrtr.WithLogger(zap.S().Named("qrtrctl"))}

	withMetrics, _ := cmd.Flags().GetBool("metrics")
	if withMetrics {
		provider, stopMetrics := startMetricsLogger(ctx, zap.S().Named("qrtrctl.metrics"))
		defer stopMetrics()
		opts = append(opts, qrtr.WithMeterProvider(provider))
	}

	obs, err := qrtr.Create(ctx, 0, opts...)
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer obs.Close()

	out := cmd.OutOrStdout()
	print := func(format string, args ...any) { fmt.Fprintf(out, format+"\n", args...) }

	obs.Subscribe(qrtr.EventNodeAdded, func(ev qrtr.Event) {
		print("node-added   node=%d", ev.(qrtr.NodeAdded).Node)
	})
	obs.Subscribe(qrtr.EventNodeRemoved, func(ev qrtr.Event) {
		print("node-removed node=%d", ev.(qrtr.NodeRemoved).Node)
	})
	obs.Subscribe(qrtr.EventServiceAdded, func(ev qrtr.Event) {
		e := ev.(qrtr.ServiceAdded)
		print("service-added   node=%d service=%d", e.Node, e.Service)
	})
	obs.Subscribe(qrtr.EventServiceRemoved, func(ev qrtr.Event) {
		e := ev.(qrtr.ServiceRemoved)
		print("service-removed node=%d service=%d", e.Node, e.Service)
	})

	<-ctx.Done()
	return nil
}
