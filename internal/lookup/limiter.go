package lookup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll executes tasks with at most maxConcurrent in flight at any instant
// and returns their results in input order. Excess tasks queue in FIFO order
// for a slot. Tasks do not return errors: each task captures its own outcome
// (success or failure) in its result value, so one task's failure never
// affects its siblings. RunAll returns only after every task has settled.
//
// maxConcurrent below 1 is coerced to 1, so the fan-out can never deadlock.
func RunAll[T any](ctx context.Context, tasks []func(context.Context) T, maxConcurrent int) []T {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]T, len(tasks))

	// errgroup with a limit doubles as a counting semaphore: Go blocks once
	// maxConcurrent tasks are live, which also bounds goroutine growth for
	// large batches. Tasks always return nil, so the group never cancels.
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrent)

	for i, task := range tasks {
		g.Go(func() error {
			results[i] = task(ctx)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
