package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/weibo-autopilot/internal/adapters/cdp"
	"github.com/bnema/weibo-autopilot/internal/application"
	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const metricsShutdownTimeout = 5 * time.Second

func newRunCmd(app *app) *cobra.Command {
	var (
		group       string
		interval    int
		dryRun      bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the autopilot loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return errors.New("--interval must be a positive number of minutes")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			profile, err := application.RequireProfile(ctx, app.journal)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m := metrics.MustNew(reg)
			if metricsAddr != "" {
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				shutdown := serveMetrics(app, reg, metricsAddr)
				defer shutdown()
			}

			session, err := app.launchBrowser(cmd, m, app.cfg.Site.BaseURL)
			if err != nil {
				return err
			}
			defer func() {
				if err := session.Close(); err != nil {
					app.logger.Warn("close browser", "error", err)
				}
			}()

			ctx, cancel := watchSession(ctx, session)
			defer cancel(nil)

			autopilot := application.NewAutopilot(app.newEngine(session), app.journal,
				application.AutopilotConfig{
					Group:    group,
					Interval: time.Duration(interval) * time.Minute,
					DryRun:   dryRun,
				},
				application.WithAutopilotLogger(app.logger),
				application.WithMetrics(m),
				application.WithSessionLost(cdp.IsConnectionError),
			)
			if err := autopilot.Run(ctx, profile); err != nil {
				return err
			}
			if cause := context.Cause(ctx); errors.Is(cause, cdp.ErrConnectionClosed) {
				return cause
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", app.cfg.Autopilot.Group, "Feed group to browse (default: home feed)")
	cmd.Flags().IntVar(&interval, "interval", app.cfg.Autopilot.Interval, "Minutes between cycles, varied by up to 30%")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Select posts and comments without reposting")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", app.cfg.Metrics.Addr, "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")

	return cmd
}

// watchSession cancels the returned context once the browser connection
// drops, so a cycle waiting out its interval does not outlive the browser.
func watchSession(parent context.Context, session browserSession) (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	go func() {
		select {
		case <-session.Done():
			cancel(fmt.Errorf("browser session lost: %w", cdp.ErrConnectionClosed))
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func serveMetrics(app *app, reg *prometheus.Registry, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	app.logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
