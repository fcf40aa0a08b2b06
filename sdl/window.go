package sdl

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"uk.ac.bris.cs/golengine/util"
)

// Window draws a grid of cells, one logical pixel per cell.
type Window struct {
	Width, Height int32
	window        *sdl.Window
	renderer      *sdl.Renderer
	cells         []bool
}

// NewWindow opens a window for a width x height grid, scaled up so small grids stay visible.
func NewWindow(width, height int32) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}

	scale := max(1, 512/max(width, height))
	window, err := sdl.CreateWindow("GOL GUI", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		width*scale, height*scale, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	if err := renderer.SetLogicalSize(width, height); err != nil {
		_ = renderer.Destroy()
		_ = window.Destroy()
		sdl.Quit()
		return nil, err
	}

	return &Window{
		Width:    width,
		Height:   height,
		window:   window,
		renderer: renderer,
		cells:    make([]bool, width*height),
	}, nil
}

func (w *Window) Destroy() {
	_ = w.renderer.Destroy()
	_ = w.window.Destroy()
	sdl.Quit()
}

func (w *Window) FlipCell(x, y int) {
	i := y*int(w.Width) + x
	w.cells[i] = !w.cells[i]
}

// SetCells replaces the whole grid with the given alive cells.
func (w *Window) SetCells(alive []util.Cell) {
	clear(w.cells)
	for _, cell := range alive {
		w.cells[cell.Y*int(w.Width)+cell.X] = true
	}
}

func (w *Window) RenderFrame() error {
	if err := w.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return err
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	if err := w.renderer.SetDrawColor(255, 255, 255, 255); err != nil {
		return err
	}
	for i, alive := range w.cells {
		if alive {
			if err := w.renderer.DrawPoint(int32(i)%w.Width, int32(i)/w.Width); err != nil {
				return err
			}
		}
	}
	w.renderer.Present()
	return nil
}

// PollQuit drains pending window events and reports whether the window was closed.
func (w *Window) PollQuit() bool {
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			quit = true
		}
	}
	return quit
}
