package journal

import (
	"fmt"

	"uk.ac.bris.cs/golengine/util"
)

// Bytes needed per coordinate to hold the largest X or Y in cells, at least one
func coordinateBytes(cells []util.Cell) int {
	largest := 0
	for _, cell := range cells {
		largest = max(largest, cell.X, cell.Y)
	}
	size := 1
	for largest >>= 8; largest != 0; largest >>= 8 {
		size++
	}
	return size
}

// Compress cells into little-endian X then Y, size bytes each
func compressCells(cells []util.Cell, size int) []byte {
	data := make([]byte, len(cells)*size*2)
	dest := data
	for _, cell := range cells {
		for j := 0; j != size; j++ {
			dest[0] = byte(cell.X >> (j << 3))
			dest = dest[1:]
		}
		for j := 0; j != size; j++ {
			dest[0] = byte(cell.Y >> (j << 3))
			dest = dest[1:]
		}
	}
	return data
}

// Decompress cells written by compressCells
func decompressCells(data []byte, size int) ([]util.Cell, error) {
	if size < 1 || len(data)%(size*2) != 0 {
		return nil, fmt.Errorf("%w: %d bytes of %d-byte coordinates", ErrCorrupt, len(data), size)
	}
	cells := make([]util.Cell, len(data)/(size*2))
	index := 0
	for i := 0; i != len(data); i += size * 2 {
		for j := 0; j != size; j++ {
			cells[index].X |= int(data[i+j]) << (j << 3)
		}
		for j := 0; j != size; j++ {
			cells[index].Y |= int(data[i+size+j]) << (j << 3)
		}
		index++
	}
	return cells, nil
}
