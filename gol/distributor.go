package gol

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"

	"uk.ac.bris.cs/golengine/util"
)

type distributor struct {
	p        Params
	io       IOChannels
	events   chan<- Event
	logger   log.Interface
	progress ProgressFunc
	loaded   LoadedFunc
	turn     int // Completed turns
}

// run loads the image, evaluates every turn and finalises with the io goroutine.
func (d *distributor) run(ctx context.Context) error {
	logger := d.logger.WithFields(log.Fields{
		"width":   d.p.ImageWidth,
		"height":  d.p.ImageHeight,
		"turns":   d.p.Turns,
		"threads": d.p.Threads,
	})
	start := time.Now()

	// Read file
	matrix, err := d.load(ctx)
	if err != nil {
		logger.WithError(err).Error("load failed")
		return &RunError{Phase: PhaseLoad, Err: err}
	}
	count := matrix.Count()
	logger.WithField("alive", count).Info("run started")
	if d.loaded != nil {
		d.loaded(matrix.Alive())
	}

	if err := d.emit(ctx, StateChange{0, Executing}); err != nil {
		return &RunError{Phase: PhaseExecute, Err: err}
	}
	d.report(count)

	workers := startWorkers(d.p)
	defer workers.stop()
	next := MakeMatrix(d.p)

	// Evaluate each turn
	for d.turn != d.p.Turns {
		workers.evaluate(&matrix, &next)
		flipped, countDiff := merge(&matrix, &next)
		count += countDiff

		turn := d.turn + 1
		if len(flipped) != 0 {
			if err := d.emit(ctx, CellsFlipped{turn, flipped}); err != nil {
				logger.WithError(err).Error("execute failed")
				return &RunError{Phase: PhaseExecute, Turn: d.turn, Err: err}
			}
		}
		if err := d.emit(ctx, TurnComplete{turn}); err != nil {
			logger.WithError(err).Error("execute failed")
			return &RunError{Phase: PhaseExecute, Turn: d.turn, Err: err}
		}
		d.turn = turn
		d.report(count)
		logger.WithFields(log.Fields{
			"turn":    turn,
			"flipped": len(flipped),
			"alive":   count,
		}).Debug("turn complete")
	}

	if err := d.finalize(ctx, &matrix); err != nil {
		logger.WithError(err).Error("finalize failed")
		return &RunError{Phase: PhaseFinalize, Turn: d.turn, Err: err}
	}
	logger.WithFields(log.Fields{
		"alive":    count,
		"duration": time.Since(start).String(),
	}).Info("run complete")
	return nil
}

// Compare the staging matrix with the current one
// Every difference is written back to matrix and returned in row-major order
func merge(matrix *Matrix, next *Matrix) ([]util.Cell, int) {
	var flipped []util.Cell
	countDiff := 0
	width := matrix.Width()
	for i, pixel := range next.pixels {
		if matrix.pixels[i] == pixel {
			continue
		}
		matrix.pixels[i] = pixel
		flipped = append(flipped, util.Cell{X: i % width, Y: i / width})
		if pixel == Alive {
			countDiff++
		} else {
			countDiff--
		}
	}
	return flipped, countDiff
}

// load requests the input image and reads it cell by cell in row-major order.
func (d *distributor) load(ctx context.Context) (Matrix, error) {
	filename := fmt.Sprintf("%dx%d", d.p.ImageWidth, d.p.ImageHeight)
	if err := d.command(ctx, IOInput, filename); err != nil {
		return Matrix{}, fmt.Errorf("%w: %w", ErrInputUnavailable, err)
	}
	pixels := make([]uint8, d.p.ImageWidth*d.p.ImageHeight)
	for i := range pixels {
		select {
		case pixel, ok := <-d.io.Input:
			if !ok {
				return Matrix{}, fmt.Errorf("%w: stream closed after %d of %d cells",
					ErrInputUnavailable, i, len(pixels))
			}
			if pixel != Dead {
				pixel = Alive
			}
			pixels[i] = pixel
		case <-ctx.Done():
			return Matrix{}, fmt.Errorf("%w: %w", ErrInputUnavailable, context.Cause(ctx))
		}
	}
	return MakeMatrixFromData(d.p, pixels), nil
}

// finalize reports the alive cells, optionally writes the image, and waits for the io
// goroutine to become idle before announcing Quitting.
func (d *distributor) finalize(ctx context.Context, matrix *Matrix) error {
	if err := d.emit(ctx, FinalTurnComplete{d.turn, matrix.Alive()}); err != nil {
		return err
	}

	if d.p.SaveOutput {
		// Write file
		filename := fmt.Sprintf("%dx%dx%d", d.p.ImageWidth, d.p.ImageHeight, d.turn)
		if err := d.command(ctx, IOOutput, filename); err != nil {
			return fmt.Errorf("%w: %w", ErrIdleSignalLost, err)
		}
		for _, pixel := range matrix.pixels {
			select {
			case d.io.Output <- pixel:
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrIdleSignalLost, context.Cause(ctx))
			}
		}
		if err := d.emit(ctx, ImageOutputComplete{d.turn, filename}); err != nil {
			return err
		}
	}

	// Make sure that the io has finished any output before exiting.
	if err := d.command(ctx, IOCheckIdle, ""); err != nil {
		return fmt.Errorf("%w: %w", ErrIdleSignalLost, err)
	}
	select {
	case _, ok := <-d.io.Idle:
		if !ok {
			return fmt.Errorf("%w: idle channel closed", ErrIdleSignalLost)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrIdleSignalLost, context.Cause(ctx))
	}

	return d.emit(ctx, StateChange{d.turn, Quitting})
}

// command sends a request, followed by its filename when there is one.
func (d *distributor) command(ctx context.Context, command IOCommand, filename string) error {
	select {
	case d.io.Command <- command:
	case <-ctx.Done():
		return context.Cause(ctx)
	}
	if command == IOCheckIdle {
		return nil
	}
	select {
	case d.io.Filename <- filename:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// emit delivers an event, failing once the observer has gone away.
func (d *distributor) emit(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrEventChannelClosed, context.Cause(ctx))
	}
	select {
	case d.events <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrEventChannelClosed, context.Cause(ctx))
	}
}

func (d *distributor) report(count int) {
	if d.progress != nil {
		d.progress(d.turn, count)
	}
}
