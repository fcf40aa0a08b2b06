package sdl

import (
	"time"

	"github.com/apex/log"

	"uk.ac.bris.cs/golengine/gol"
)

// Run draws the grid from the event stream until the channel is closed.
// It must be called from the main goroutine. Closing the window stops rendering, but the
// events are still drained so the engine is never blocked on the viewer.
func Run(p gol.Params, events <-chan gol.Event, logger log.Interface) {
	w, err := NewWindow(int32(p.ImageWidth), int32(p.ImageHeight))
	if err != nil {
		logger.WithError(err).Warn("viewer unavailable")
		for range events {
		}
		return
	}

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	open := true
	closeWindow := func() {
		if open {
			w.Destroy()
			open = false
		}
	}
	defer closeWindow()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !open {
				continue
			}
			switch e := event.(type) {
			case gol.CellsFlipped:
				for _, cell := range e.Cells {
					w.FlipCell(cell.X, cell.Y)
				}
			case gol.TurnComplete:
				if err := w.RenderFrame(); err != nil {
					logger.WithError(err).Warn("render failed")
				}
			case gol.FinalTurnComplete:
				w.SetCells(e.Alive)
				if err := w.RenderFrame(); err != nil {
					logger.WithError(err).Warn("render failed")
				}
			}
		case <-ticker.C:
			if open && w.PollQuit() {
				logger.Info("viewer closed")
				closeWindow()
			}
		}
	}
}
