package coordinator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/metalagman/foreman/internal/model"
)

// executeParallel runs tasks in dependency waves with a bounded number in
// flight. Dependencies only order execution; a failed dependency does not
// cancel its dependents, matching the sequential path where every planned
// task gets its attempts. Results come back in plan order.
func (c *Coordinator) executeParallel(ctx context.Context, tasks []model.Task) []model.TaskResult {
	results := make([]model.TaskResult, len(tasks))

	for _, wave := range dependencyWaves(tasks) {
		if err := ctx.Err(); err != nil {
			for _, idx := range wave {
				results[idx] = canceledResult(tasks[idx], err)
			}
			continue
		}

		g := new(errgroup.Group)
		g.SetLimit(c.parallelism)
		for _, idx := range wave {
			g.Go(func() error {
				results[idx] = c.processTask(ctx, tasks[idx])
				return nil
			})
		}
		_ = g.Wait() // workers never return errors
	}
	return results
}

// dependencyWaves groups task indices into execution levels: a task's level
// is one past the deepest of its dependencies. Dangling or cyclic
// dependencies cannot be honored and land in a final wave in plan order.
func dependencyWaves(tasks []model.Task) [][]int {
	levelByID := make(map[int]int, len(tasks))
	indexByID := make(map[int]int, len(tasks))
	for i, task := range tasks {
		indexByID[task.ID] = i
	}

	assigned := 0
	for pass := 0; pass < len(tasks) && assigned < len(tasks); pass++ {
		for _, task := range tasks {
			if _, done := levelByID[task.ID]; done {
				continue
			}
			level, ready := 0, true
			for _, dep := range task.DependsOn {
				if _, known := indexByID[dep]; !known || dep == task.ID {
					continue // dangling or self reference
				}
				depLevel, depDone := levelByID[dep]
				if !depDone {
					ready = false
					break
				}
				if depLevel+1 > level {
					level = depLevel + 1
				}
			}
			if ready {
				levelByID[task.ID] = level
				assigned++
			}
		}
	}

	maxLevel := 0
	for _, level := range levelByID {
		if level > maxLevel {
			maxLevel = level
		}
	}

	waves := make([][]int, maxLevel+1)
	var leftover []int
	for i, task := range tasks {
		level, ok := levelByID[task.ID]
		if !ok {
			leftover = append(leftover, i) // cycle member
			continue
		}
		waves[level] = append(waves[level], i)
	}
	if len(leftover) > 0 {
		waves = append(waves, leftover)
	}
	return waves
}
