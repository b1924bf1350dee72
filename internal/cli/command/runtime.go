package command

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/roguesave/internal/cli/output"
	"github.com/yndnr/roguesave/internal/config"
	"github.com/yndnr/roguesave/internal/gamestate"
	"github.com/yndnr/roguesave/internal/persist"
	"github.com/yndnr/roguesave/internal/storage"
	"github.com/yndnr/roguesave/internal/telemetry/logger"
	"github.com/yndnr/roguesave/pkg/signer"
)

// runtime is the per-invocation wiring shared by all commands.
type runtime struct {
	cfg    *config.Config
	log    logger.Logger
	store  storage.Store
	signer signer.Provider
	mgr    *persist.Manager
	state  *gamestate.State
	out    output.Formatter
	w      io.Writer
}

type runtimeOptions struct {
	seed     uint32
	runID    string
	observer persist.Observer
	registry prometheus.Registerer
}

// open resolves configuration and builds the store and manager.
func open(c *cli.Context, opts runtimeOptions) (*runtime, error) {
	flags := ParseGlobalFlags(c)
	out, err := outputFormat(c)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags.ConfigFile, overrides(c))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	errw := c.App.ErrWriter
	if errw == nil {
		errw = os.Stderr
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: errw})
	if err != nil {
		return nil, err
	}

	p, err := cfg.Signer.Build()
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}

	store, err := storage.Open(cfg.Storage.StoreConfig(), log.Slog())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if bs, ok := store.(*storage.BadgerStore); ok && opts.registry != nil {
		bs.RegisterMetrics(opts.registry)
	}

	mlog := log
	if opts.runID != "" {
		mlog = log.With("run_id", opts.runID)
	}
	pc := cfg.PersistConfig(store, mlog.Slog(), p)
	pc.Observer = opts.observer
	mgr, err := persist.NewManager(pc)
	if err != nil {
		store.Close()
		return nil, err
	}
	state := gamestate.New(opts.seed)
	if err := state.Register(mgr); err != nil {
		store.Close()
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		log:    log,
		store:  store,
		signer: p,
		mgr:    mgr,
		state:  state,
		out:    out,
		w:      c.App.Writer,
	}, nil
}

func (r *runtime) Close() error {
	return r.store.Close()
}

func (r *runtime) print(data any) error {
	return r.out.Format(r.w, data)
}

// outputFormat builds the formatter selected by --output and --wide.
func outputFormat(c *cli.Context) (output.Formatter, error) {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, flags.Wide), nil
}

// withRuntime adapts a command body that needs a runtime.
func withRuntime(fn func(c *cli.Context, r *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := open(c, runtimeOptions{})
		if err != nil {
			return err
		}
		defer r.Close()
		return fn(c, r)
	}
}

// slotArg parses the positional slot argument at index i.
func slotArg(c *cli.Context, i int) (int, error) {
	s := c.Args().Get(i)
	if s == "" {
		return 0, fmt.Errorf("missing slot argument (0..%d)", persist.SlotCount-1)
	}
	slot, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	return slot, nil
}

// fileArg resolves a positional argument that is either a slot number or
// a store file name.
func fileArg(c *cli.Context, i int) (string, error) {
	s := c.Args().Get(i)
	if s == "" {
		return "", fmt.Errorf("missing file argument")
	}
	if slot, err := strconv.Atoi(s); err == nil {
		return persist.SlotName(slot), nil
	}
	return s, nil
}
