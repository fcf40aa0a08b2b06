package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"uk.ac.bris.cs/golengine/gol"
)

// Write a random image with roughly a quarter of the cells alive
func writeBenchImage(b *testing.B, width, height int) string {
	b.Helper()
	dir := b.TempDir()
	rng := rand.New(rand.NewSource(int64(width)))
	data := []byte(fmt.Sprintf("P5\n%d %d\n255\n", width, height))
	for i := 0; i < width*height; i++ {
		if rng.Intn(4) == 0 {
			data = append(data, 255)
		} else {
			data = append(data, 0)
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("%dx%d.pgm", width, height))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.Fatal(err)
	}
	return dir
}

func benchmarkRun(b *testing.B, size, turns int) {
	dir := writeBenchImage(b, size, size)
	logger := &log.Logger{Handler: discard.New(), Level: log.ErrorLevel}

	for threads := 1; threads <= 16; threads++ {
		p := gol.Params{
			Turns:       turns,
			Threads:     threads,
			ImageWidth:  size,
			ImageHeight: size,
			ImageDir:    dir,
		}
		name := fmt.Sprintf("%dx%dx%d-%d", p.ImageWidth, p.ImageHeight, p.Turns, p.Threads)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				events := make(chan gol.Event)
				result := make(chan error, 1)
				go func() {
					result <- gol.Run(context.Background(), p, events, gol.WithLogger(logger))
				}()
				for range events {
				}
				if err := <-result; err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func Benchmark_128_16000(b *testing.B) {
	benchmarkRun(b, 128, 16000)
}

func Benchmark_256_4000(b *testing.B) {
	benchmarkRun(b, 256, 4000)
}

func Benchmark_512_1000(b *testing.B) {
	benchmarkRun(b, 512, 1000)
}
