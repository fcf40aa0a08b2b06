package gol

// WorkAssignment is the row range [Start, End) owned by one worker.
type WorkAssignment struct {
	Start int
	End   int
}

// Rows returns the number of rows in the assignment.
func (a WorkAssignment) Rows() int {
	return a.End - a.Start
}

// Divide rows between workers
// The first height%threads workers get one extra row, so sizes differ by at most one and
// worker 0 always owns the lowest rows. Workers beyond height get empty ranges.
func divideToRows(height, threads int) []WorkAssignment {
	assignments := make([]WorkAssignment, threads)
	rows := height / threads
	extra := height % threads
	for i := 0; i != threads; i++ {
		start := i*rows + min(i, extra)
		end := start + rows
		if i < extra {
			end++
		}
		assignments[i] = WorkAssignment{Start: min(start, height), End: min(end, height)}
	}
	return assignments
}
