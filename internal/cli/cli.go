// Package cli implements the streamvis command line.
//
//	streamvis run [scenario|file]        run once, logging every event
//	streamvis verify [scenario|file]     run repeatedly and check invariants
//	streamvis scenarios [name]           list presets or print one as YAML
//	streamvis watch [scenario|file]      replay on a cron schedule
//
// A scenario argument is either a preset name or a path to a YAML file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/streamvis/internal/config"
	"github.com/vnykmshr/streamvis/internal/observer"
	"github.com/vnykmshr/streamvis/internal/replay"
)

const version = "0.3.0"

// options holds the persistent flags shared by every command.
type options struct {
	logLevel    string
	logFormat   string
	metricsAddr string
	redisAddr   string
	redisKey    string
	seed        uint64
	timeScale   float64
}

// BuildCLI returns the root command.
func BuildCLI() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "streamvis",
		Short: "Simulate and observe bounded stream combinators",
		Long: `streamvis runs simulated pipelines of ordered maps, unordered maps and
filters, and reports every item's progress as an ordered event stream.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "console", "log format: console or json")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.StringVar(&opts.redisAddr, "redis-addr", "", "also append events to a Redis stream on this server")
	pf.StringVar(&opts.redisKey, "redis-key", "streamvis", "key prefix for exported runs")
	pf.Uint64Var(&opts.seed, "seed", 0, "seed the random source (overrides the scenario)")
	pf.Float64Var(&opts.timeScale, "time-scale", 1, "multiply every simulated wait; 0 disables waiting (overrides the scenario)")

	rootCmd.AddCommand(buildRunCommand(opts))
	rootCmd.AddCommand(buildVerifyCommand(opts))
	rootCmd.AddCommand(buildScenariosCommand())
	rootCmd.AddCommand(buildWatchCommand(opts))

	return rootCmd
}

// Execute runs the CLI with the process arguments and exits on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := BuildCLI().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// scenario resolves the positional argument and applies flag overrides.
func (o *options) scenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	s, err := config.Resolve(name)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		seed := o.seed
		s.Seed = &seed
	}
	if cmd.Flags().Changed("time-scale") {
		scale := o.timeScale
		s.TimeScale = &scale
	}
	return s, nil
}

func buildRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [scenario|file]",
		Short: "Run a scenario once and log every event",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.scenario(cmd, args)
			if err != nil {
				return err
			}
			sess, err := opts.open(cmd.Context(), cmd.ErrOrStderr(), opts.loggingConfig(cmd, s))
			if err != nil {
				return err
			}
			defer sess.close()

			res, err := sess.execute(cmd.Context(), s, true)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "interrupted")
				return nil
			}
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), s.Name, res)
			return nil
		},
	}
}

func buildVerifyCommand(opts *options) *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "verify [scenario|file]",
		Short: "Run a scenario repeatedly without waiting and check its event stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			s, err := opts.scenario(cmd, args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("time-scale") {
				instant := 0.0
				s.TimeScale = &instant
			}
			sess, err := opts.open(cmd.Context(), cmd.ErrOrStderr(), opts.loggingConfig(cmd, s))
			if err != nil {
				return err
			}
			defer sess.close()

			out := cmd.OutOrStdout()
			var total filterTotals
			failed := 0
			for i := 1; i <= runs; i++ {
				res, err := sess.execute(cmd.Context(), s, false)
				if errors.Is(err, observer.ErrInvariant) {
					failed++
					fmt.Fprintf(out, "run %d: FAIL\n%v\n", i, err)
					continue
				}
				if err != nil {
					return err
				}
				total.add(res.summary)
				fmt.Fprintf(out, "run %d: ok (completed %d, rejected %d)\n", i, res.summary.Completed, res.summary.Rejected)
			}
			total.print(out)

			if failed > 0 {
				return fmt.Errorf("%d of %d runs violated invariants", failed, runs)
			}
			fmt.Fprintf(out, "%d runs verified\n", runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 20, "number of runs")
	return cmd
}

func buildScenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios [name]",
		Short: "List built-in scenarios, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range config.PresetNames() {
					p, _ := config.Preset(name)
					fmt.Fprintf(out, "%-30s %s\n", name, p.Description)
				}
				return nil
			}
			p, ok := config.Preset(args[0])
			if !ok {
				return fmt.Errorf("unknown scenario %q", args[0])
			}
			data, err := p.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func buildWatchCommand(opts *options) *cobra.Command {
	var schedule string
	var maxRuns int

	cmd := &cobra.Command{
		Use:   "watch [scenario|file]",
		Short: "Replay a scenario on a cron schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.scenario(cmd, args)
			if err != nil {
				return err
			}
			sess, err := opts.open(cmd.Context(), cmd.ErrOrStderr(), opts.loggingConfig(cmd, s))
			if err != nil {
				return err
			}
			defer sess.close()

			r, err := replay.New(replay.Config{
				Schedule: schedule,
				MaxRuns:  maxRuns,
				Logger:   sess.logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range r.Upcoming(3) {
				fmt.Fprintf(out, "next run %s\n", t.Format(time.DateTime))
			}
			stats, err := r.Run(cmd.Context(), func(ctx context.Context, run int) error {
				res, err := sess.execute(ctx, s, false)
				if err != nil {
					return err
				}
				printRun(out, fmt.Sprintf("%s #%d", s.Name, run), res)
				return nil
			})
			fmt.Fprintf(out, "%d runs, %d failed\n", stats.Runs, stats.Failures)
			return err
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "@every 30s", "cron expression or descriptor")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "stop after this many runs (0 = unlimited)")
	return cmd
}

func printRun(w io.Writer, name string, res result) {
	fmt.Fprintf(w, "scenario %s\n", name)
	for _, d := range res.descriptors {
		line := "  " + d.String()
		if peak, ok := res.summary.Peak[d.ID]; ok {
			line += fmt.Sprintf(" peak=%d", peak)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "created %d, completed %d, rejected %d\n",
		res.summary.Created, res.summary.Completed, res.summary.Rejected)
	if res.redisRun != "" {
		fmt.Fprintf(w, "exported as run %s\n", res.redisRun)
	}
}
