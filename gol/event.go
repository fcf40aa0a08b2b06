package gol

import (
	"fmt"
	"strings"

	"uk.ac.bris.cs/golengine/util"
)

// Event represents any Game of Life event that the engine reports to its observer.
type Event interface {
	fmt.Stringer
	GetCompletedTurns() int
}

// State represents a lifecycle change of the engine.
type State int

const (
	Executing State = iota
	Quitting
)

// String methods allow the different types of Events and States to be printed.
func (state State) String() string {
	switch state {
	case Executing:
		return "Executing"
	case Quitting:
		return "Quitting"
	default:
		return "Incorrect State"
	}
}

// StateChange is sent at the start of a run (Executing) and after finalisation (Quitting).
type StateChange struct {
	CompletedTurns int
	NewState       State
}

// CellsFlipped carries every cell that changed state in one generation, in row-major order.
// It is only sent when at least one cell flipped.
type CellsFlipped struct {
	CompletedTurns int
	Cells          []util.Cell
}

// TurnComplete is sent once per generation, after CellsFlipped for the same turn.
type TurnComplete struct {
	CompletedTurns int
}

// FinalTurnComplete carries every alive cell after the last generation.
type FinalTurnComplete struct {
	CompletedTurns int
	Alive          []util.Cell
}

// ImageOutputComplete is sent once the final image has been handed to the io goroutine.
type ImageOutputComplete struct {
	CompletedTurns int
	Filename       string
}

func (event StateChange) String() string {
	return event.NewState.String()
}

func (event StateChange) GetCompletedTurns() int {
	return event.CompletedTurns
}

func (event CellsFlipped) String() string {
	return fmt.Sprintf("%d cells flipped", len(event.Cells))
}

func (event CellsFlipped) GetCompletedTurns() int {
	return event.CompletedTurns
}

func (event TurnComplete) String() string {
	return fmt.Sprintf("Turn %d", event.CompletedTurns)
}

func (event TurnComplete) GetCompletedTurns() int {
	return event.CompletedTurns
}

func (event FinalTurnComplete) String() string {
	if len(event.Alive) > 8 {
		return fmt.Sprintf("Final turn %d: %d alive", event.CompletedTurns, len(event.Alive))
	}
	cells := make([]string, len(event.Alive))
	for i, cell := range event.Alive {
		cells[i] = cell.String()
	}
	return fmt.Sprintf("Final turn %d: [%s]", event.CompletedTurns, strings.Join(cells, " "))
}

func (event FinalTurnComplete) GetCompletedTurns() int {
	return event.CompletedTurns
}

func (event ImageOutputComplete) String() string {
	return fmt.Sprintf("File %s output complete", event.Filename)
}

func (event ImageOutputComplete) GetCompletedTurns() int {
	return event.CompletedTurns
}
