package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/streamvis/internal/config"
	"github.com/vnykmshr/streamvis/internal/logging"
	"github.com/vnykmshr/streamvis/internal/observer"
	"github.com/vnykmshr/streamvis/pkg/metrics"
	"github.com/vnykmshr/streamvis/pkg/streaming/event"
	"github.com/vnykmshr/streamvis/pkg/streaming/pipeline"
	"github.com/vnykmshr/streamvis/pkg/streaming/stage"
)

// session holds what every run of one command invocation shares.
type session struct {
	logger  zerolog.Logger
	logFile io.Closer
	metrics *metrics.Registry
	redis   *redis.Client
	opts    *options
	server  *http.Server
}

type result struct {
	descriptors []stage.Descriptor
	summary     observer.Summary
	redisRun    string
}

// loggingConfig merges the scenario's logging block with the log flags.
// Flags set on the command line win; unset flags only fill gaps.
func (o *options) loggingConfig(cmd *cobra.Command, sc *config.Scenario) logging.Config {
	cfg := sc.Logging
	flags := cmd.Flags()
	if flags.Changed("log-level") || cfg.Level == "" {
		cfg.Level = o.logLevel
	}
	if flags.Changed("log-format") || cfg.Format == "" {
		cfg.Format = o.logFormat
	}
	return cfg
}

// open starts the shared resources of a command. Logs go to logOut unless
// logCfg names an output of its own.
func (o *options) open(ctx context.Context, logOut io.Writer, logCfg logging.Config) (*session, error) {
	if logCfg.Output != "" {
		logOut = nil
	}
	logger, logFile, err := logging.New(logCfg, logOut)
	if err != nil {
		return nil, err
	}
	s := &session{logger: logger, logFile: logFile, opts: o}

	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.Config{Enabled: true, Registry: reg}.Build()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		s.server = &http.Server{Addr: o.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info().Str("addr", o.metricsAddr).Msg("serving metrics")
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	if o.redisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: o.redisAddr})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.close()
			return nil, fmt.Errorf("connect to redis at %s: %w", o.redisAddr, err)
		}
	}
	return s, nil
}

func (s *session) close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// execute runs sc to completion. With logEvents set every event is logged.
func (s *session) execute(ctx context.Context, sc *config.Scenario, logEvents bool) (result, error) {
	cfg := pipeline.DefaultConfig()
	cfg.Logger = s.logger
	cfg.Metrics = s.metrics

	descriptors, r, err := sc.Builder(cfg).Sink()
	if err != nil {
		return result{}, err
	}
	defer r.Close()

	res := result{descriptors: descriptors}
	checker := observer.NewChecker(descriptors)
	obs := observer.Multi{checker}
	if logEvents {
		obs = append(obs, observer.NewLogObserver(s.logger, zerolog.InfoLevel))
	}
	if s.redis != nil {
		xcfg := observer.DefaultRedisConfig()
		xcfg.Redis = s.redis
		xcfg.Key = s.opts.redisKey
		x, err := observer.NewRedisExporter(xcfg)
		if err != nil {
			return result{}, err
		}
		if err := x.WriteStages(ctx, descriptors); err != nil {
			return result{}, err
		}
		obs = append(obs, x)
		res.redisRun = x.RunID()
	}

	if _, err := observer.Drain(ctx, r, obs); err != nil {
		return result{}, err
	}
	<-r.Done()
	if err := r.Err(); err != nil {
		return result{}, err
	}

	res.summary, err = checker.Finish()
	return res, err
}

// filterTotals pools filter statistics over several runs.
type filterTotals struct {
	stages   []event.StageID
	admitted map[event.StageID]int
	rejected map[event.StageID]int
	expected map[event.StageID]float64
	variance map[event.StageID]float64
}

func (t *filterTotals) add(s observer.Summary) {
	if t.admitted == nil {
		t.admitted = make(map[event.StageID]int)
		t.rejected = make(map[event.StageID]int)
		t.expected = make(map[event.StageID]float64)
		t.variance = make(map[event.StageID]float64)
	}
	for _, f := range s.Filters {
		if _, seen := t.admitted[f.Stage]; !seen {
			t.stages = append(t.stages, f.Stage)
		}
		t.admitted[f.Stage] += f.Admitted
		t.rejected[f.Stage] += f.Rejected
		t.expected[f.Stage] += f.Expected
		t.variance[f.Stage] += f.StdDev * f.StdDev
	}
}

func (t *filterTotals) print(w io.Writer) {
	for _, id := range t.stages {
		stat := observer.FilterStat{
			Stage:    id,
			Admitted: t.admitted[id],
			Rejected: t.rejected[id],
			Expected: t.expected[id],
			StdDev:   math.Sqrt(t.variance[id]),
		}
		fmt.Fprintf(w, "filter #%d: rejected %d of %d (expected %.1f, z=%+.2f)\n",
			id, stat.Rejected, stat.Admitted, stat.Expected, stat.Z())
	}
}
