package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/roguesave/internal/config"
	"github.com/yndnr/roguesave/internal/infra/confloader"
	"github.com/yndnr/roguesave/internal/infra/shutdown"
	"github.com/yndnr/roguesave/internal/telemetry/logger"
	"github.com/yndnr/roguesave/internal/telemetry/metric"
)

// simStats is printed when a simulation ends.
type simStats struct {
	RunID      string `json:"run_id" table:"wide"`
	Slot       int    `json:"slot"`
	Ticks      int64  `json:"ticks"`
	Saves      int    `json:"saves"`
	Autosaves  int    `json:"autosaves"`
	Failures   int    `json:"failures"`
	Quicksaved bool   `json:"quicksaved"`
	Status     string `json:"status"`
}

// simulation drives the game state and the save manager tick by tick.
type simulation struct {
	r       *runtime
	slot    int
	ticks   int64
	tickMs  int64
	combat  int64
	every   int64
	limiter *rate.Limiter
	stats   simStats
}

// SimulateCommand returns the simulate command.
func SimulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Run a deterministic game loop with autosave, then quicksave on exit",
		ArgsUsage: "SLOT",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "seed", Usage: "world seed for a fresh game", Value: 1},
			&cli.BoolFlag{Name: "continue", Usage: "load the slot (with recovery) before running"},
			&cli.Int64Flag{Name: "ticks", Usage: "ticks to run; 0 runs until interrupted", Value: 600},
			&cli.DurationFlag{Name: "tick", Usage: "game time per tick", Value: time.Second},
			&cli.Float64Flag{Name: "rate", Usage: "wall-clock ticks per second; 0 is unthrottled"},
			&cli.Int64Flag{Name: "combat-every", Usage: "mark every Nth tick as combat"},
			&cli.Int64Flag{Name: "save-every", Usage: "manual save to the slot every N ticks"},
			&cli.DurationFlag{Name: "shutdown-timeout", Usage: "time allowed for exit hooks", Value: 10 * time.Second},
		},
		Action: runSimulate,
	}
}

func runSimulate(c *cli.Context) error {
	runID := ulid.Make().String()
	gatherer := metric.NewGatherer()
	reg := metric.NewRegistry(gatherer)

	r, err := open(c, runtimeOptions{
		seed:     uint32(c.Uint("seed")),
		runID:    runID,
		observer: reg,
		registry: gatherer,
	})
	if err != nil {
		return err
	}
	gatherer.MustRegister(metric.NewCollector(r.store))

	slot, err := slotArg(c, 0)
	if err != nil {
		r.Close()
		return err
	}
	ctx := logger.WithRunID(logger.WithLogger(c.Context, r.log), runID)
	log := logger.L(ctx)

	if c.Bool("continue") {
		recovered, err := r.mgr.LoadWithRecovery(slot)
		if err != nil {
			r.Close()
			return err
		}
		log.Info("game loaded", "slot", slot, "recovered", recovered,
			"migration_steps", r.mgr.LastMigrationSteps())
	}

	sim := &simulation{
		r:       r,
		slot:    slot,
		ticks:   c.Int64("ticks"),
		tickMs:  c.Duration("tick").Milliseconds(),
		combat:  c.Int64("combat-every"),
		every:   c.Int64("save-every"),
		limiter: rate.NewLimiter(rate.Inf, 1),
		stats:   simStats{RunID: runID, Slot: slot},
	}
	if tps := c.Float64("rate"); tps > 0 {
		sim.limiter = rate.NewLimiter(rate.Limit(tps), 1)
	}
	if sim.tickMs <= 0 {
		r.Close()
		return errors.New("--tick must be at least 1ms")
	}

	h := shutdown.NewHandler(c.Duration("shutdown-timeout"))
	h.OnShutdown("store", func(context.Context) error { return r.Close() })

	if addr := r.cfg.Metrics.Addr; addr != "" {
		srv, err := serveMetrics(addr, gatherer, log)
		if err != nil {
			h.Run()
			return err
		}
		log.Info("metrics listening", "addr", srv.Addr)
		h.OnShutdown("metrics", srv.Shutdown)
	}

	if path := ParseGlobalFlags(c).ConfigFile; path != "" {
		w, err := watchLogLevel(c, path, r.log)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			h.OnShutdown("config watch", func(context.Context) error { return w.Stop() })
		}
	}

	h.OnShutdown("quicksave", func(context.Context) error {
		if err := r.mgr.Quicksave(); err != nil {
			return err
		}
		sim.stats.Quicksaved = true
		return nil
	})

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	var loopErr error
	go func() {
		defer close(done)
		defer cancel()
		loopErr = sim.run(loopCtx)
	}()
	// Runs first: stop the loop before the final quicksave touches the
	// manager.
	h.OnShutdown("game loop", func(hctx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-hctx.Done():
			return hctx.Err()
		}
	})

	hookErr := h.Wait(loopCtx)
	<-done
	sim.stats.Status = r.mgr.StatusString()
	log.Info("simulation finished", "ticks", sim.stats.Ticks, "autosaves", sim.stats.Autosaves,
		"saves", sim.stats.Saves, "failures", sim.stats.Failures)
	if err := r.print(sim.stats); err != nil {
		return err
	}
	return errors.Join(loopErr, hookErr)
}

// run advances the game until the tick budget is spent or ctx is done.
// Save failures are counted and logged; the game keeps running.
func (s *simulation) run(ctx context.Context) error {
	log := logger.L(ctx)
	for tick := int64(1); s.ticks == 0 || tick <= s.ticks; tick++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		for _, id := range s.r.state.Step(tick) {
			s.r.mgr.MarkDirty(id)
		}
		inCombat := s.combat > 0 && tick%s.combat == 0
		saved, err := s.r.mgr.Update(tick*s.tickMs, inCombat)
		switch {
		case err != nil:
			s.stats.Failures++
			log.Warn("autosave failed", "tick", tick, "error", err)
		case saved:
			s.stats.Autosaves++
		}

		if s.every > 0 && tick%s.every == 0 {
			if err := s.r.mgr.Save(s.slot); err != nil {
				s.stats.Failures++
				log.Warn("save failed", "tick", tick, "slot", s.slot, "error", err)
			} else {
				s.stats.Saves++
				log.Debug("slot saved", "tick", tick, "reused", s.r.mgr.LastSectionsReused(),
					"written", s.r.mgr.LastSectionsWritten())
			}
		}
		s.stats.Ticks = tick
	}
	return nil
}

// serveMetrics starts the Prometheus endpoint in the background.
func serveMetrics(addr string, g prometheus.Gatherer, log logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	return startMetrics(ln, g, log), nil
}

// startMetrics serves /metrics on ln. Errors other than a normal shutdown
// are logged.
func startMetrics(ln net.Listener, g prometheus.Gatherer, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metric.Handler(g))
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()
	return srv
}

// watchLogLevel re-reads the configuration file on change and applies its
// log level.
func watchLogLevel(c *cli.Context, path string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}
	ov := overrides(c)
	w.OnChange(func(p string) {
		cfg, err := config.Load(p, ov)
		if err != nil {
			log.Warn("config reload rejected", "path", p, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", logger.GetLevel())
	})
	w.StartAsync()
	return w, nil
}
