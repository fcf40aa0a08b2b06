package gol

import (
	"fmt"
	"testing"
)

func TestDivideToRows(t *testing.T) {
	tests := []struct {
		height  int
		threads int
		want    []WorkAssignment
	}{
		{height: 10, threads: 1, want: []WorkAssignment{{0, 10}}},
		{height: 10, threads: 2, want: []WorkAssignment{{0, 5}, {5, 10}}},
		{height: 10, threads: 4, want: []WorkAssignment{{0, 3}, {3, 6}, {6, 8}, {8, 10}}},
		{height: 3, threads: 5, want: []WorkAssignment{{0, 1}, {1, 2}, {2, 3}, {3, 3}, {3, 3}}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d rows %d threads", tt.height, tt.threads), func(t *testing.T) {
			got := divideToRows(tt.height, tt.threads)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d assignments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("assignment %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDivideToRows_Tiling(t *testing.T) {
	for height := 1; height <= 64; height++ {
		for threads := 1; threads <= height+4; threads++ {
			assignments := divideToRows(height, threads)

			next := 0
			smallest, largest := height, 0
			for i, a := range assignments {
				if a.Start != next {
					t.Fatalf("height %d threads %d: assignment %d starts at %d, want %d",
						height, threads, i, a.Start, next)
				}
				if a.End < a.Start {
					t.Fatalf("height %d threads %d: assignment %d is inverted: %v", height, threads, i, a)
				}
				next = a.End
				smallest = min(smallest, a.Rows())
				largest = max(largest, a.Rows())
			}
			if next != height {
				t.Fatalf("height %d threads %d: assignments cover [0, %d)", height, threads, next)
			}
			if largest-smallest > 1 {
				t.Errorf("height %d threads %d: sizes range from %d to %d", height, threads, smallest, largest)
			}
		}
	}
}

func TestDivideToRows_ExtraRowsGoFirst(t *testing.T) {
	assignments := divideToRows(11, 4)
	wantRows := []int{3, 3, 3, 2}
	for i, a := range assignments {
		if a.Rows() != wantRows[i] {
			t.Errorf("assignment %d has %d rows, want %d", i, a.Rows(), wantRows[i])
		}
	}
}
