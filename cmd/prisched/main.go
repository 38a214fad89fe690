package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"prisched/internal/api"
	"prisched/internal/job"
	"prisched/internal/logging"
	"prisched/internal/report"
	"prisched/internal/sched"
	"prisched/internal/ui"
)

var (
	flagConfig   string
	flagLogLevel string
	flagNoColor  bool
	flagStrategy string
	flagFormat   string
	flagGantt    bool
	flagEvents   string
	flagVerify   bool
	flagTrace    bool
	flagAddr     string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("error:"), err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prisched",
		Short: "Simulate preemptive priority CPU scheduling",
		Long: `prisched replays a batch of processes with alternating CPU and I/O bursts
on a single virtual CPU under a preemptive priority policy and reports waiting,
turnaround and response time per process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yml", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable coloured output")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(serveCmd())
	return cmd
}

// setup loads the configuration and applies the persistent flags on top.
func setup(cmd *cobra.Command) (sched.Config, *slog.Logger, error) {
	cfg, err := sched.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flagNoColor {
		cfg.Report.Color = false
	}
	ui.SetEnabled(cfg.Report.Color)
	return cfg, logging.BuildLogger(cfg.LogLevel, cfg.LogFormat), nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run the simulation over a process-definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strategy") {
				s, err := sched.ParseStrategy(flagStrategy)
				if err != nil {
					return err
				}
				cfg.Strategy = s
			}
			if cmd.Flags().Changed("format") {
				cfg.Report.Format = flagFormat
			}
			if cmd.Flags().Changed("gantt") {
				cfg.Report.Gantt = flagGantt
			}
			if flagEvents != "" {
				cfg.EventLog = flagEvents
			}

			procs, err := job.Load(args[0])
			if err != nil {
				return err
			}
			logger.Debug("processes loaded", slog.String("file", args[0]), slog.Int("count", len(procs)))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				res    *sched.Result
				events []sched.StatusEvent
			)
			if flagVerify {
				res, events, err = sched.CrossCheck(ctx, cfg, procs, logger)
			} else {
				res, events, err = runTraced(ctx, cfg, procs, logger)
			}
			if err != nil {
				return err
			}

			if flagTrace {
				report.Events(cmd.ErrOrStderr(), events)
			}
			return report.Render(cmd.OutOrStdout(), res, report.Options{
				Format: cfg.Report.Format,
				Gantt:  cfg.Report.Gantt,
				Title:  fmt.Sprintf("Preemptive priority (%s)", res.Strategy),
			})
		},
	}
	cmd.Flags().StringVar(&flagStrategy, "strategy", "event", "Time-advance strategy: event or tick")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "Report format: table, json or csv")
	cmd.Flags().BoolVar(&flagGantt, "gantt", true, "Draw the Gantt chart (table format)")
	cmd.Flags().StringVar(&flagEvents, "events", "", "Write status events to this CSV file")
	cmd.Flags().BoolVar(&flagVerify, "verify", false, "Run both strategies and fail if they disagree")
	cmd.Flags().BoolVar(&flagTrace, "trace", false, "Print the status-event trace to stderr")
	return cmd
}

func runTraced(ctx context.Context, cfg sched.Config, procs []job.Description, logger *slog.Logger) (*sched.Result, []sched.StatusEvent, error) {
	d, err := sched.New(cfg, procs)
	if err != nil {
		return nil, nil, err
	}
	d.SetLogger(logger)
	if cfg.EventLog != "" {
		if err := d.EnableCSVLogging(cfg.EventLog); err != nil {
			return nil, nil, err
		}
	}
	res, err := d.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return res, d.Events(), nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a process-definition file without simulating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := setup(cmd); err != nil {
				return err
			}
			procs, err := job.Load(args[0])
			if err != nil {
				return err
			}
			var cpu, io int64
			for _, p := range procs {
				cpu += p.TotalCPU()
				io += p.TotalIO()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d processes, %d CPU units, %d I/O units\n", ui.Green("✓"), len(procs), cpu, io)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = flagAddr
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewHandler(cfg, logger).Routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", slog.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Listen address")
	return cmd
}
