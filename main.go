package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/google/uuid"

	"uk.ac.bris.cs/golengine/gol"
	"uk.ac.bris.cs/golengine/journal"
	"uk.ac.bris.cs/golengine/sdl"
	"uk.ac.bris.cs/golengine/status"
	"uk.ac.bris.cs/golengine/util"
)

// SDL must stay on the main thread
func init() {
	runtime.LockOSThread()
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("run failed")
	}
}

func newLogger(cfg LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var handler log.Handler
	switch cfg.Format {
	case "cli":
		handler = cli.New(os.Stderr)
	case "json":
		handler = json.New(os.Stderr)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return &log.Logger{Handler: handler, Level: level}, nil
}

func run(cfg *Config, logger *log.Logger) error {
	runID := uuid.New()
	entry := logger.WithField("run", runID.String())
	p := cfg.Params()

	entry.WithFields(log.Fields{
		"threads": p.Threads,
		"width":   p.ImageWidth,
		"height":  p.ImageHeight,
		"turns":   p.Turns,
	}).Info("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tracker := status.NewTracker(runID)
	if cfg.Status != "" {
		shutdown, err := serveStatus(cfg.Status, tracker, entry)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var recorder *journal.Writer
	if cfg.Trace != "" {
		file, err := os.Create(cfg.Trace)
		if err != nil {
			return err
		}
		defer file.Close()
		recorder, err = journal.NewWriter(file, runID, p)
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.Flush(); err != nil {
				entry.WithError(err).Error("journal flush failed")
			}
		}()
	}
	record := func(event gol.Event) {
		if recorder == nil {
			return
		}
		if err := recorder.Record(event); err != nil {
			entry.WithError(err).Warn("journal record failed")
		}
	}

	var viewerEvents chan gol.Event
	if !cfg.Headless {
		viewerEvents = make(chan gol.Event, 1000)
	}

	// The initial grid is replayed as the flips of turn 0
	loaded := func(alive []util.Cell) {
		initial := gol.CellsFlipped{CompletedTurns: 0, Cells: alive}
		record(initial)
		if viewerEvents != nil {
			viewerEvents <- initial
		}
	}

	events := make(chan gol.Event, 1000)
	result := make(chan error, 1)
	go func() {
		result <- gol.Run(ctx, p, events,
			gol.WithLogger(entry),
			gol.WithProgress(tracker.Update),
			gol.WithLoaded(loaded))
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if viewerEvents != nil {
			defer close(viewerEvents)
		}
		for event := range events {
			tracker.Observe(event)
			record(event)
			switch e := event.(type) {
			case gol.FinalTurnComplete:
				entry.WithFields(log.Fields{"turn": e.CompletedTurns, "alive": len(e.Alive)}).Info("final turn complete")
			case gol.ImageOutputComplete:
				entry.WithField("file", e.Filename).Info("image written")
			case gol.StateChange:
				entry.WithField("turn", e.CompletedTurns).Info(e.String())
			}
			if viewerEvents != nil {
				viewerEvents <- event
			}
		}
	}()

	if viewerEvents != nil {
		sdl.Run(p, viewerEvents, entry)
	}
	<-done
	return <-result
}

// serveStatus starts the status service and returns a function that stops it.
func serveStatus(addr string, tracker *status.Tracker, logger log.Interface) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(status.NewHandler(tracker))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("status server failed")
		}
	}()
	logger.WithField("addr", listener.Addr().String()).Info("status listening")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("status server shutdown")
		}
	}, nil
}
