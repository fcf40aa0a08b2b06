// Package journal records the event stream of a run as length-delimited protobuf records
// and reads it back.
//
// The first record is a header carrying the run id and parameters. Every following record
// is one event. Cell lists are packed with the smallest coordinate width that fits their
// largest coordinate, so sparse flips near the origin stay small on large grids.
package journal

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"

	"uk.ac.bris.cs/golengine/gol"
	"uk.ac.bris.cs/golengine/util"
)

var (
	ErrMissingHeader = errors.New("journal has no header")
	ErrUnknownRecord = errors.New("unknown journal record")
	ErrCorrupt       = errors.New("corrupt journal record")
)

// Record kinds
const (
	kindHeader              = "header"
	kindStateChange         = "state_change"
	kindCellsFlipped        = "cells_flipped"
	kindTurnComplete        = "turn_complete"
	kindFinalTurnComplete   = "final_turn_complete"
	kindImageOutputComplete = "image_output_complete"
)

// Header identifies the run a journal belongs to.
type Header struct {
	RunID  uuid.UUID
	Params gol.Params
}

// Writer appends records to an underlying writer. Call Flush before closing it.
type Writer struct {
	w *bufio.Writer
}

// NewWriter writes the header record and returns a Writer for the run's events.
func NewWriter(w io.Writer, runID uuid.UUID, p gol.Params) (*Writer, error) {
	writer := &Writer{w: bufio.NewWriter(w)}
	err := writer.write(map[string]any{
		"kind":    kindHeader,
		"run_id":  runID.String(),
		"width":   p.ImageWidth,
		"height":  p.ImageHeight,
		"threads": p.Threads,
		"turns":   p.Turns,
	})
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// Record appends one event.
func (w *Writer) Record(event gol.Event) error {
	fields := map[string]any{"turn": event.GetCompletedTurns()}
	switch e := event.(type) {
	case gol.StateChange:
		fields["kind"] = kindStateChange
		fields["state"] = int(e.NewState)
	case gol.CellsFlipped:
		fields["kind"] = kindCellsFlipped
		addCells(fields, e.Cells)
	case gol.TurnComplete:
		fields["kind"] = kindTurnComplete
	case gol.FinalTurnComplete:
		fields["kind"] = kindFinalTurnComplete
		addCells(fields, e.Alive)
	case gol.ImageOutputComplete:
		fields["kind"] = kindImageOutputComplete
		fields["filename"] = e.Filename
	default:
		return fmt.Errorf("%w: %T", ErrUnknownRecord, event)
	}
	return w.write(fields)
}

func addCells(fields map[string]any, cells []util.Cell) {
	size := coordinateBytes(cells)
	fields["coord_bytes"] = size
	fields["cells"] = compressCells(cells, size)
}

// Flush writes any buffered records.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) write(fields map[string]any) error {
	record, err := structpb.NewStruct(fields)
	if err != nil {
		return err
	}
	_, err = protodelim.MarshalTo(w.w, record)
	return err
}

// Reader decodes the records written by Writer.
type Reader struct {
	r      *bufio.Reader
	Header Header
}

// NewReader reads the header record.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{r: bufio.NewReader(r)}
	record, err := reader.read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, err
	}
	if kind(record) != kindHeader {
		return nil, fmt.Errorf("%w: first record is %q", ErrMissingHeader, kind(record))
	}

	runID, err := uuid.Parse(record.Fields["run_id"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	reader.Header = Header{
		RunID: runID,
		Params: gol.Params{
			Turns:       number(record, "turns"),
			Threads:     number(record, "threads"),
			ImageWidth:  number(record, "width"),
			ImageHeight: number(record, "height"),
		},
	}
	return reader, nil
}

// Next returns the next event, or io.EOF once the journal is exhausted.
func (r *Reader) Next() (gol.Event, error) {
	record, err := r.read()
	if err != nil {
		return nil, err
	}

	turn := number(record, "turn")
	switch kind(record) {
	case kindStateChange:
		return gol.StateChange{CompletedTurns: turn, NewState: gol.State(number(record, "state"))}, nil
	case kindCellsFlipped:
		cells, err := r.cells(record)
		if err != nil {
			return nil, err
		}
		return gol.CellsFlipped{CompletedTurns: turn, Cells: cells}, nil
	case kindTurnComplete:
		return gol.TurnComplete{CompletedTurns: turn}, nil
	case kindFinalTurnComplete:
		cells, err := r.cells(record)
		if err != nil {
			return nil, err
		}
		return gol.FinalTurnComplete{CompletedTurns: turn, Alive: cells}, nil
	case kindImageOutputComplete:
		filename := record.Fields["filename"].GetStringValue()
		return gol.ImageOutputComplete{CompletedTurns: turn, Filename: filename}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecord, kind(record))
	}
}

func (r *Reader) read() (*structpb.Struct, error) {
	record := &structpb.Struct{}
	err := protodelim.UnmarshalOptions{MaxSize: -1}.UnmarshalFrom(r.r, record)
	if err == io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: truncated", ErrCorrupt)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// structpb stores []byte as base64 text
func (r *Reader) cells(record *structpb.Struct) ([]util.Cell, error) {
	data, err := base64.StdEncoding.DecodeString(record.Fields["cells"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decompressCells(data, number(record, "coord_bytes"))
}

func kind(record *structpb.Struct) string {
	return record.Fields["kind"].GetStringValue()
}

func number(record *structpb.Struct, name string) int {
	return int(record.Fields[name].GetNumberValue())
}
