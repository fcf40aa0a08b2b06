package journal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"uk.ac.bris.cs/golengine/gol"
	"uk.ac.bris.cs/golengine/util"
)

func TestCoordinateBytes(t *testing.T) {
	tests := []struct {
		name  string
		cells []util.Cell
		want  int
	}{
		{"none", nil, 1},
		{"origin", []util.Cell{{X: 0, Y: 0}}, 1},
		{"one byte", []util.Cell{{X: 255, Y: 3}, {X: 7, Y: 200}}, 1},
		{"tall", []util.Cell{{X: 3, Y: 256}}, 2},
		{"two bytes", []util.Cell{{X: 65535, Y: 0}}, 2},
		{"three bytes", []util.Cell{{X: 1, Y: 1}, {X: 65536, Y: 9}}, 3},
	}
	for _, tt := range tests {
		if got := coordinateBytes(tt.cells); got != tt.want {
			t.Errorf("%s: coordinateBytes = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCompressCells(t *testing.T) {
	cells := []util.Cell{{X: 0, Y: 0}, {X: 511, Y: 3}, {X: 300, Y: 511}}
	size := coordinateBytes(cells)
	if size != 2 {
		t.Fatalf("coordinateBytes = %d, want 2", size)
	}

	data := compressCells(cells, size)
	if len(data) != len(cells)*size*2 {
		t.Fatalf("compressed to %d bytes, want %d", len(data), len(cells)*size*2)
	}
	// 511 little-endian
	if data[4] != 0xFF || data[5] != 0x01 {
		t.Errorf("X of the second cell encoded as %x", data[4:6])
	}

	got, err := decompressCells(data, size)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, cells) {
		t.Errorf("decompressCells = %v, want %v", got, cells)
	}
}

func TestDecompressCells_BadLength(t *testing.T) {
	if _, err := decompressCells(make([]byte, 5), 2); !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	runID := uuid.New()
	p := gol.Params{Turns: 2, Threads: 4, ImageWidth: 300, ImageHeight: 200}
	events := []gol.Event{
		gol.StateChange{CompletedTurns: 0, NewState: gol.Executing},
		gol.CellsFlipped{CompletedTurns: 1, Cells: []util.Cell{{X: 1, Y: 2}, {X: 299, Y: 199}}},
		gol.TurnComplete{CompletedTurns: 1},
		gol.TurnComplete{CompletedTurns: 2},
		gol.FinalTurnComplete{CompletedTurns: 2, Alive: []util.Cell{{X: 7, Y: 8}}},
		gol.ImageOutputComplete{CompletedTurns: 2, Filename: "300x200x2"},
		gol.StateChange{CompletedTurns: 2, NewState: gol.Quitting},
	}

	var buf bytes.Buffer
	writer, err := NewWriter(&buf, runID, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, event := range events {
		if err := writer.Record(event); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if reader.Header.RunID != runID {
		t.Errorf("run id = %v, want %v", reader.Header.RunID, runID)
	}
	if reader.Header.Params != p {
		t.Errorf("params = %+v, want %+v", reader.Header.Params, p)
	}

	for i, want := range events {
		got, err := reader.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("record %d = %#v, want %#v", i, got, want)
		}
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("err after the last record = %v, want io.EOF", err)
	}
}

// Each record picks its own coordinate width, so sparse flips on a large grid stay small
func TestJournal_CoordinateBytesPerRecord(t *testing.T) {
	var buf bytes.Buffer
	p := gol.Params{Turns: 2, Threads: 1, ImageWidth: 40000, ImageHeight: 40000}
	writer, err := NewWriter(&buf, uuid.New(), p)
	if err != nil {
		t.Fatal(err)
	}
	near := []util.Cell{{X: 1, Y: 2}, {X: 200, Y: 3}}
	far := []util.Cell{{X: 39999, Y: 39999}}
	if err := writer.Record(gol.CellsFlipped{CompletedTurns: 1, Cells: near}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Record(gol.CellsFlipped{CompletedTurns: 2, Cells: far}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []struct {
		size  int
		cells []util.Cell
	}{{1, near}, {2, far}} {
		record, err := reader.read()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got := number(record, "coord_bytes"); got != want.size {
			t.Errorf("record %d: coord_bytes = %d, want %d", i, got, want.size)
		}
		cells, err := reader.cells(record)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !reflect.DeepEqual(cells, want.cells) {
			t.Errorf("record %d: cells = %v, want %v", i, cells, want.cells)
		}
	}
}

func TestJournal_EmptyFinalTurn(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf, uuid.New(), gol.Params{Turns: 1, Threads: 1, ImageWidth: 4, ImageHeight: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Record(gol.FinalTurnComplete{CompletedTurns: 1}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	event, err := reader.Next()
	if err != nil {
		t.Fatal(err)
	}
	final, ok := event.(gol.FinalTurnComplete)
	if !ok || len(final.Alive) != 0 || final.CompletedTurns != 1 {
		t.Errorf("event = %#v, want an empty FinalTurnComplete at turn 1", event)
	}
}

func TestNewReader_MissingHeader(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(nil)); !errors.Is(err, ErrMissingHeader) {
		t.Errorf("empty journal: err = %v, want ErrMissingHeader", err)
	}

	// First record is an event
	var buf bytes.Buffer
	writer := &Writer{w: bufio.NewWriter(&buf)}
	if err := writer.Record(gol.TurnComplete{CompletedTurns: 1}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(&buf); !errors.Is(err, ErrMissingHeader) {
		t.Errorf("headless journal: err = %v, want ErrMissingHeader", err)
	}
}

func TestReader_Truncated(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf, uuid.New(), gol.Params{Turns: 1, Threads: 1, ImageWidth: 4, ImageHeight: 4})
	if err != nil {
		t.Fatal(err)
	}
	cells := []util.Cell{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	if err := writer.Record(gol.CellsFlipped{CompletedTurns: 1, Cells: cells}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	reader, err := NewReader(bytes.NewReader(data[:len(data)-3]))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reader.Next(); err == nil || err == io.EOF {
		t.Errorf("err = %v, want a truncation error", err)
	}
}
