package gol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
)

// IOCommand allows requesting behaviour from the io (pgm) goroutine.
type IOCommand uint8

// This is a way of creating enums in Go.
// It will evaluate to:
//
//	IOOutput 	= 0
//	IOInput 	= 1
//	IOCheckIdle = 2
const (
	IOOutput IOCommand = iota
	IOInput
	IOCheckIdle
)

// IOChannels is the engine's side of the io goroutine.
// IOInput and IOOutput are followed by a filename on Filename, then exactly
// width*height cells on Input or Output. IOCheckIdle is answered on Idle once every
// earlier request has completed.
type IOChannels struct {
	Command  chan<- IOCommand
	Idle     <-chan bool
	Filename chan<- string
	Output   chan<- uint8
	Input    <-chan uint8
}

// ioState is the internal ioState of the io goroutine.
type ioState struct {
	params   Params
	logger   log.Interface
	command  <-chan IOCommand
	idle     chan<- bool
	filename <-chan string
	output   <-chan uint8
	input    chan<- uint8
	failed   error // Last write failure, reported by refusing the idle check
}

// startIo starts the pgm goroutine. It stops when ctx is done.
func startIo(ctx context.Context, p Params, logger log.Interface) IOChannels {
	command := make(chan IOCommand)
	idle := make(chan bool)
	filename := make(chan string)
	output := make(chan uint8)
	input := make(chan uint8)

	io := &ioState{
		params:   p,
		logger:   logger,
		command:  command,
		idle:     idle,
		filename: filename,
		output:   output,
		input:    input,
	}
	go io.loop(ctx)

	return IOChannels{
		Command:  command,
		Idle:     idle,
		Filename: filename,
		Output:   output,
		Input:    input,
	}
}

// loop serves one command at a time, so an idle answer implies all earlier writes are done.
func (io *ioState) loop(ctx context.Context) {
	for {
		var command IOCommand
		select {
		case command = <-io.command:
		case <-ctx.Done():
			return
		}

		switch command {
		case IOInput:
			name, ok := io.receiveFilename(ctx)
			if !ok {
				return
			}
			if err := io.readPgmImage(ctx, name); err != nil {
				io.logger.WithError(err).WithField("file", name).Error("input failed")
				close(io.input) // The engine sees a short stream
				return
			}
		case IOOutput:
			name, ok := io.receiveFilename(ctx)
			if !ok {
				return
			}
			if err := io.writePgmImage(ctx, name); err != nil {
				io.logger.WithError(err).WithField("file", name).Error("output failed")
				io.failed = err
			}
		case IOCheckIdle:
			if io.failed != nil {
				close(io.idle) // Finalisation cannot be confirmed
				return
			}
			select {
			case io.idle <- true:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (io *ioState) receiveFilename(ctx context.Context) (string, bool) {
	select {
	case name := <-io.filename:
		return name, true
	case <-ctx.Done():
		return "", false
	}
}

// readPgmImage opens a pgm file and sends its data cell by cell.
func (io *ioState) readPgmImage(ctx context.Context, name string) error {
	path := filepath.Join(io.params.ImageDir, name+".pgm")
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var magic string
	var width, height, maxval int
	if _, err := fmt.Fscan(reader, &magic, &width, &height, &maxval); err != nil {
		return fmt.Errorf("%s: bad header: %w", path, err)
	}
	if magic != "P5" {
		return fmt.Errorf("%s: not a pgm file", path)
	}
	if width != io.params.ImageWidth || height != io.params.ImageHeight {
		return fmt.Errorf("%s: incorrect size %dx%d", path, width, height)
	}
	if maxval != 255 {
		return fmt.Errorf("%s: incorrect maxval/bit depth %d", path, maxval)
	}
	// Single whitespace byte separates the header from the data
	if _, err := reader.ReadByte(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	data := make([]byte, width*height)
	if err := readData(reader, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, pixel := range data {
		select {
		case io.input <- pixel:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}

	io.logger.WithField("file", name).Info("input done")
	return nil
}

// readData fills data from reader, reporting a short file as truncated.
func readData(reader io.Reader, data []byte) error {
	n, err := io.ReadFull(reader, data)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return fmt.Errorf("truncated image data, %d of %d bytes", n, len(data))
	}
	return err
}

// writePgmImage receives the cells of a whole grid and writes them to a pgm file.
func (io *ioState) writePgmImage(ctx context.Context, name string) error {
	data := make([]byte, io.params.ImageWidth*io.params.ImageHeight)
	for i := range data {
		select {
		case data[i] = <-io.output:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}

	if err := os.MkdirAll(io.params.OutDir, os.ModePerm); err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(io.params.OutDir, name+".pgm"))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	_, _ = writer.WriteString("P5\n")
	_, _ = writer.WriteString(strconv.Itoa(io.params.ImageWidth))
	_, _ = writer.WriteString(" ")
	_, _ = writer.WriteString(strconv.Itoa(io.params.ImageHeight))
	_, _ = writer.WriteString("\n")
	_, _ = writer.WriteString(strconv.Itoa(255))
	_, _ = writer.WriteString("\n")
	if _, err := writer.Write(data); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return err
	}

	io.logger.WithField("file", name).Info("output done")
	return nil
}
