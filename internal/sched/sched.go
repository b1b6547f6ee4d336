// Package sched implements the cooperative task scheduler spec.md §5
// describes: "tasks may be expressed as independent units of work with
// declared inputs and outputs, and the scheduler dispatches them
// respecting those dependencies." Grounded on the teacher's
// BckJog/sync.WaitGroup "jog" idiom (r.BckJog.Run() in xact/xs/tcb.go),
// generalized from "jog a bucket" to "run declared tile producer/consumer
// tasks" and built on golang.org/x/sync/errgroup for the worker pool.
package sched

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Key identifies a resource a Task reads or writes — typically a
// registry.Coord, but left generic so callers outside this module's own
// packages can schedule against their own key space.
type Key any

// Task is one independent unit of work: declared inputs/outputs plus the
// function to run once every task that last touched those keys has
// completed.
type Task struct {
	Name    string
	Inputs  []Key
	Outputs []Key
	Run     func(ctx context.Context) error
}

type node struct {
	task *Task
	deps []*node
	done chan struct{}
}

// Pool dispatches a batch of Tasks respecting their declared
// input/output dependencies, bounding concurrency to Concurrency workers.
type Pool struct {
	// Concurrency caps the number of tasks running at once. Zero means
	// runtime.GOMAXPROCS(0).
	Concurrency int
}

// Run builds the dependency graph for tasks (a task depends on the most
// recent earlier task that wrote any key it reads or writes: RAW and WAW
// edges only; a task that writes a key does not wait for earlier tasks
// that only read it) and executes it, returning the first error any task
// produced.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	nodes := make([]*node, len(tasks))
	lastWriter := make(map[Key]*node)
	for i := range tasks {
		n := &node{task: &tasks[i], done: make(chan struct{})}
		nodes[i] = n

		seen := make(map[*node]bool)
		addDep := func(k Key) {
			if w, ok := lastWriter[k]; ok && !seen[w] {
				seen[w] = true
				n.deps = append(n.deps, w)
			}
		}
		for _, k := range tasks[i].Inputs {
			addDep(k)
		}
		for _, k := range tasks[i].Outputs {
			addDep(k)
		}
		for _, k := range tasks[i].Outputs {
			lastWriter[k] = n
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			for _, d := range n.deps {
				select {
				case <-d.done:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			sem <- struct{}{}
			err := n.task.Run(gctx)
			<-sem
			close(n.done)
			return err
		})
	}
	return g.Wait()
}
