package gol

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"uk.ac.bris.cs/golengine/util"
)

// Params provides the details of how to run the Game of Life and which image to load.
type Params struct {
	Turns       int
	Threads     int
	ImageWidth  int
	ImageHeight int

	ImageDir   string // Directory holding <w>x<h>.pgm, "images" when empty
	OutDir     string // Directory receiving <w>x<h>x<turns>.pgm, "out" when empty
	SaveOutput bool   // Write the final grid through the io goroutine before quitting
}

func (p Params) validate() error {
	switch {
	case p.ImageWidth <= 0 || p.ImageHeight <= 0:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidParams, p.ImageWidth, p.ImageHeight)
	case p.Threads < 1:
		return fmt.Errorf("%w: %d threads", ErrInvalidParams, p.Threads)
	case p.Turns < 0:
		return fmt.Errorf("%w: %d turns", ErrInvalidParams, p.Turns)
	}
	return nil
}

func (p Params) withDefaults() Params {
	if p.ImageDir == "" {
		p.ImageDir = "images"
	}
	if p.OutDir == "" {
		p.OutDir = "out"
	}
	return p
}

// ProgressFunc is called with the alive cell count after the input is loaded (turn 0)
// and after every completed turn. It runs on the engine goroutine and must not block.
type ProgressFunc func(completedTurns int, alive int)

// LoadedFunc is called once with the alive cells of the input, before the run starts
// executing. It runs on the engine goroutine.
type LoadedFunc func(alive []util.Cell)

type options struct {
	logger   log.Interface
	progress ProgressFunc
	loaded   LoadedFunc
	io       *IOChannels
}

// Option configures a run.
type Option func(*options)

// WithLogger replaces the default apex logger.
func WithLogger(logger log.Interface) Option {
	return func(o *options) { o.logger = logger }
}

// WithProgress registers a progress callback.
func WithProgress(progress ProgressFunc) Option {
	return func(o *options) { o.progress = progress }
}

// WithLoaded registers a callback for the initial grid.
func WithLoaded(loaded LoadedFunc) Option {
	return func(o *options) { o.loaded = loaded }
}

// WithIO connects the engine to an existing io goroutine instead of starting the PGM one.
func WithIO(io IOChannels) Option {
	return func(o *options) { o.io = &io }
}

// Run starts the processing of Game of Life. It blocks until every turn has been evaluated
// and the io goroutine is idle, or until the run fails.
// The events channel is closed when Run returns, whatever the outcome.
func Run(ctx context.Context, p Params, events chan<- Event, opts ...Option) error {
	defer close(events)

	o := options{logger: log.Log}
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.validate(); err != nil {
		return &RunError{Phase: PhaseLoad, Err: err}
	}
	p = p.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // stops the io goroutine

	io := o.io
	if io == nil {
		channels := startIo(ctx, p, o.logger)
		io = &channels
	}

	d := &distributor{
		p:        p,
		io:       *io,
		events:   events,
		logger:   o.logger,
		progress: o.progress,
		loaded:   o.loaded,
	}
	return d.run(ctx)
}
