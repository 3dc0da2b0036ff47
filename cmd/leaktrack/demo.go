package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kolkov/leaktrack/internal/config"
	"github.com/kolkov/leaktrack/internal/leak/arena"
	"github.com/kolkov/leaktrack/internal/leak/layout"
	"github.com/kolkov/leaktrack/internal/leak/reporter"
	"github.com/kolkov/leaktrack/internal/leak/tracker"
	"github.com/kolkov/leaktrack/internal/logging"
)

type demoOptions struct {
	configPath string
	objects    int
	freeEvery  int
	leakEvery  int
	pprofPath  string
	showLive   bool
}

func newDemoCommand() *cobra.Command {
	opts := &demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a simulated engine and report its leaks",
		Long: `Run a simulated engine on the handle-based arena.

Every object is recorded at creation. Every --free-every'th object is freed
and forgotten, every --leak-every'th object is dropped from the live list
without being freed. The leak report is written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.pprofPath != "" {
				cfg.Output = config.OutputPprof
				cfg.PprofPath = opts.pprofPath
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // stderr sync

			_, err = runDemo(cmd.ErrOrStderr(), cfg, logger, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.Flags().IntVar(&opts.objects, "objects", 1000, "number of objects to create")
	cmd.Flags().IntVar(&opts.freeEvery, "free-every", 3, "free every Nth object (0 disables)")
	cmd.Flags().IntVar(&opts.leakEvery, "leak-every", 100, "leak every Nth object (0 disables)")
	cmd.Flags().StringVar(&opts.pprofPath, "pprof", "", "also write the leak profile to this file")
	cmd.Flags().BoolVar(&opts.showLive, "live", false, "print the full live-object table")
	return cmd
}

// engine is a minimal single-threaded host: an arena plus the tracker hooks
// a real engine calls from its constructor and finalizer.
type engine struct {
	objects *arena.Arena
	tracker *tracker.Tracker
}

func (e *engine) newObject(tag layout.TypeTag) arena.Handle {
	h := e.objects.Alloc(tag)
	e.tracker.RecordIdentity(h.Identity())
	return h
}

func (e *engine) freeObject(h arena.Handle) error {
	if err := e.objects.Free(h); err != nil {
		return err
	}
	e.tracker.ForgetIdentity(h.Identity())
	return nil
}

func runDemo(w io.Writer, cfg *config.Config, logger *zap.Logger, opts *demoOptions) (*reporter.Report, error) {
	if opts.objects < 0 {
		return nil, fmt.Errorf("--objects must not be negative, got %d", opts.objects)
	}

	e := &engine{
		objects: arena.New(),
		tracker: tracker.New(tracker.WithConfig(cfg), tracker.WithLogger(logger)),
	}

	for i := 1; i <= opts.objects; i++ {
		h := e.newObject(layout.TypeTag(i % 6))
		switch {
		case opts.leakEvery > 0 && i%opts.leakEvery == 0:
			if err := e.objects.Unlink(h); err != nil {
				return nil, err
			}
		case opts.freeEvery > 0 && i%opts.freeEvery == 0:
			if err := e.freeObject(h); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("simulation finished",
		zap.Int("created", opts.objects),
		zap.Int("live", e.objects.Len()))

	r := e.tracker.Report(e.objects.Objects())
	if !opts.showLive {
		r.Live = nil
	}
	if err := e.tracker.Emit(w, r); err != nil {
		return r, err
	}
	return r, nil
}
