package search

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of sibling work in a batch.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome holds the result of the task at the same index.
type Outcome[T any] struct {
	Value T
	Err   error
}

// FanOut runs tasks with at most limit in flight and returns their outcomes in
// task order, whatever order they finish in.
//
// A task error for which isFatal returns true cancels the rest of the batch:
// running tasks see a cancelled context, queued tasks never start, and FanOut
// returns that error with no outcomes. Other task errors are kept in the
// task's Outcome and do not affect siblings.
func FanOut[T any](ctx context.Context, limit int, tasks []Task[T], isFatal func(error) bool) ([]Outcome[T], error) {
	if limit < 1 {
		limit = 1
	}
	out := make([]Outcome[T], len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, task := range tasks {
		i, task := i, task
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := task(gctx)
			out[i] = Outcome[T]{Value: v, Err: err}
			if err != nil && isFatal != nil && isFatal(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
