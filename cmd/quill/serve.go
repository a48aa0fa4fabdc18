package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/quill/internal/config"
	"github.com/vango-dev/quill/pkg/devtools"
	"github.com/vango-dev/quill/pkg/telemetry"
)

type serveOptions struct {
	addr     string
	interval time.Duration
	loop     bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [scenario.yaml]",
		Short: "Run a scenario behind the devtools inspector",
		Long: `Serve runs the demo inventory UI and exposes it through the devtools
server: tick summaries, the committed tree, the reactive graph and a
WebSocket stream of ticks. Prometheus metrics are served on /metrics.

One scenario step runs per interval. With --loop the scenario restarts
from its initial items after the last step.

Examples:
  quill serve
  quill serve restock.yaml --addr=:7420 --interval=500ms --loop`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.addr == "" {
				opts.addr = cfg.Devtools.Addr
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), cfg, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Listen address (default from quill.json)")
	cmd.Flags().DurationVarP(&opts.interval, "interval", "i", time.Second, "Time between scenario steps")
	cmd.Flags().BoolVarP(&opts.loop, "loop", "l", false, "Restart the scenario after the last step")

	return cmd
}

func runServe(ctx context.Context, out io.Writer, cfg *config.Config, path string, opts serveOptions) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	if opts.interval <= 0 {
		opts.interval = time.Second
	}

	logger := cfg.Logger()
	e := newEngine(cfg, logger)
	if err := e.useJournals(ctx, ""); err != nil {
		return err
	}
	e.root.Use(telemetry.OpenTelemetry(telemetry.WithTracerName(cfg.Tracing.TracerName)))

	hub := devtools.NewHub()
	inspector := devtools.NewInspector(e.root, devtools.WithHub(hub))
	server := devtools.NewServer(inspector,
		devtools.WithServerLogger(logger),
		devtools.WithHandler("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})),
	)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(serveCtx, opts.addr)
		cancel()
	}()

	success(out, "devtools on http://%s", opts.addr)
	info(out, "tree       http://%s/tree", opts.addr)
	info(out, "ticks      http://%s/ticks", opts.addr)
	info(out, "metrics    http://%s/metrics", opts.addr)

	if err := e.start(sc); err != nil {
		return err
	}
	loopErr := drive(serveCtx, out, e, sc, opts)
	cancel()

	serveErr := <-errCh
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		return errors.Join(loopErr, serveErr, e.close(context.Background()))
	}
	return errors.Join(serveErr, e.close(context.Background()))
}

// drive ticks the engine once per interval until ctx is done.
func drive(ctx context.Context, out io.Writer, e *engine, sc *Scenario, opts serveOptions) error {
	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	step := -1 // mount
	for {
		label := "mount"
		switch {
		case step >= 0 && step < len(sc.Steps):
			st := sc.Steps[step]
			st.Apply(e.store)
			label = st.String()
		case step == len(sc.Steps) && opts.loop:
			e.reset(sc)
			label = "reset"
			step = -1
		}

		if step < len(sc.Steps) {
			res, err := e.tick(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "tick %-3d %-28s %s\n", res.Tick, label, res.Counts())
			if res.Err != nil {
				warn(out, "%v", res.Err)
			}
			step++
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}
