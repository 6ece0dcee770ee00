package async

import (
	"context"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result is the outcome of a single task.
type Result struct {
	Name string
	Err  error
}

// RunParallel executes tasks concurrently, at most limit at a time, and waits
// for all of them. A limit <= 0 runs every task at once.
//
// Results are returned in task order, not completion order.
//
// Example:
//
//	results := RunParallel(ctx, []Task{
//	    {Name: "data-hot", Func: applyHot},
//	    {Name: "data-warm", Func: applyWarm},
//	}, 4)
func RunParallel(ctx context.Context, tasks []Task, limit int) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	sem := make(chan struct{}, limit)
	done := make(chan struct{}, len(tasks))

	for i, task := range tasks {
		results[i].Name = task.Name
		go func() {
			defer func() { done <- struct{}{} }()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()
			results[i].Err = task.Func(ctx)
		}()
	}

	for range len(tasks) {
		<-done
	}

	return results
}
