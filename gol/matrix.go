package gol

import (
	"fmt"

	"uk.ac.bris.cs/golengine/util"
)

// Cell values as stored in the matrix and streamed to and from the io goroutine.
const (
	Dead  uint8 = 0
	Alive uint8 = 255
)

// Matrix is the authoritative cell grid, stored row-major in a single backing array.
type Matrix struct {
	width  int
	height int
	pixels []uint8
}

// View is a read-only snapshot of a matrix handed to workers.
type View struct {
	width  int
	height int
	pixels []uint8
}

// Make matrix object with empty data
func MakeMatrix(p Params) Matrix {
	return Matrix{
		width:  p.ImageWidth,
		height: p.ImageHeight,
		pixels: make([]uint8, p.ImageWidth*p.ImageHeight),
	}
}

// Make matrix object by providing pixel array
// Ownership of pixel array is transferred to matrix object
func MakeMatrixFromData(p Params, pixels []uint8) Matrix {
	matrix := Matrix{width: p.ImageWidth, height: p.ImageHeight}
	matrix.Replace(pixels)
	return matrix
}

func (matrix *Matrix) Width() int  { return matrix.width }
func (matrix *Matrix) Height() int { return matrix.height }

// Get returns the cell at (x, y). Coordinates must be in range.
func (matrix *Matrix) Get(x, y int) uint8 {
	return matrix.pixels[y*matrix.width+x]
}

// Set stores the cell at (x, y). Coordinates must be in range.
func (matrix *Matrix) Set(x, y int, value uint8) {
	matrix.pixels[y*matrix.width+x] = value
}

// Snapshot returns a view of the current cells. The view shares storage with the matrix,
// so it stays consistent only while nothing calls Set or Replace.
func (matrix *Matrix) Snapshot() View {
	return View{width: matrix.width, height: matrix.height, pixels: matrix.pixels}
}

// Replace swaps in a whole new grid. Ownership of pixels is transferred to the matrix.
func (matrix *Matrix) Replace(pixels []uint8) {
	if len(pixels) != matrix.width*matrix.height {
		panic(fmt.Sprintf("matrix: replace with %d cells, want %d", len(pixels), matrix.width*matrix.height))
	}
	matrix.pixels = pixels
}

// Rows returns the backing slice of rows [start, end).
func (matrix *Matrix) Rows(start, end int) []uint8 {
	return matrix.pixels[start*matrix.width : end*matrix.width]
}

// Alive returns all alive cells in row-major order.
func (matrix *Matrix) Alive() []util.Cell {
	cells := make([]util.Cell, 0, matrix.Count())
	for i, pixel := range matrix.pixels {
		if pixel != Dead {
			cells = append(cells, util.Cell{X: i % matrix.width, Y: i / matrix.width})
		}
	}
	return cells
}

// Count returns the number of alive cells.
func (matrix *Matrix) Count() int {
	count := 0
	for _, pixel := range matrix.pixels {
		if pixel != Dead {
			count++
		}
	}
	return count
}

// Get returns the cell at (x, y). Coordinates must be in range.
func (view View) Get(x, y int) uint8 {
	return view.pixels[y*view.width+x]
}

// Count alive cells among the eight surrounding cells
// Cells outside the grid do not exist, there is no wraparound
func (view View) surroundingCount(x, y int) int {
	count := 0
	if x == 0 || y == 0 || x == view.width-1 || y == view.height-1 {
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= view.height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if (dx == 0 && dy == 0) || nx < 0 || nx >= view.width {
					continue
				}
				if view.pixels[ny*view.width+nx] != Dead {
					count++
				}
			}
		}
		return count
	}
	// Interior cells have all eight neighbours
	above := view.pixels[(y-1)*view.width+x-1 : (y-1)*view.width+x+2]
	row := view.pixels[y*view.width+x-1 : y*view.width+x+2]
	below := view.pixels[(y+1)*view.width+x-1 : (y+1)*view.width+x+2]
	for i := 0; i != 3; i++ {
		if above[i] != Dead {
			count++
		}
		if below[i] != Dead {
			count++
		}
	}
	if row[0] != Dead {
		count++
	}
	if row[2] != Dead {
		count++
	}
	return count
}

// Next state of cell at (x, y) under the B3/S23 rule
func (view View) nextState(x, y int) uint8 {
	switch view.surroundingCount(x, y) {
	case 2:
		// Survival only
		if view.Get(x, y) != Dead {
			return Alive
		}
		return Dead
	case 3:
		return Alive
	default:
		return Dead
	}
}
