package gol

import (
	"github.com/ChrisGora/semaphore"
)

// workerTask is one generation of work for a single worker.
type workerTask struct {
	matrix View    // Read from this snapshot
	next   []uint8 // Write to these rows of the staging matrix only
}

type WorkerParams struct {
	width      int                 // Row length
	assignment WorkAssignment      // Rows allocated to this worker
	tasks      <-chan workerTask   // One task per generation, closed when the run ends
	done       semaphore.Semaphore // Posted once per finished task
}

// workerPool keeps one goroutine per thread alive for the whole run.
type workerPool struct {
	assignments []WorkAssignment
	tasks       []chan workerTask
	done        semaphore.Semaphore
}

// Create goroutines
func startWorkers(p Params) *workerPool {
	assignments := divideToRows(p.ImageHeight, p.Threads)
	pool := &workerPool{
		assignments: assignments,
		tasks:       make([]chan workerTask, len(assignments)),
		done:        semaphore.Init(len(assignments), 0),
	}
	for i, assignment := range assignments {
		pool.tasks[i] = make(chan workerTask, 1)
		go worker(WorkerParams{
			width:      p.ImageWidth,
			assignment: assignment,
			tasks:      pool.tasks[i],
			done:       pool.done,
		})
	}
	return pool
}

// evaluate computes the next generation of matrix into next and returns once every worker
// has finished. This is the only point where the engine waits on workers.
func (pool *workerPool) evaluate(matrix *Matrix, next *Matrix) {
	view := matrix.Snapshot()
	for i, assignment := range pool.assignments {
		pool.tasks[i] <- workerTask{
			matrix: view,
			next:   next.Rows(assignment.Start, assignment.End),
		}
	}
	for range pool.assignments {
		pool.done.Wait()
	}
}

// Exit all worker routines
func (pool *workerPool) stop() {
	for _, tasks := range pool.tasks {
		close(tasks)
	}
}

func worker(wp WorkerParams) {
	for task := range wp.tasks {
		next := task.next
		for y := wp.assignment.Start; y != wp.assignment.End; y++ {
			row := next[(y-wp.assignment.Start)*wp.width:]
			for x := 0; x != wp.width; x++ {
				row[x] = task.matrix.nextState(x, y)
			}
		}
		wp.done.Post()
	}
}
