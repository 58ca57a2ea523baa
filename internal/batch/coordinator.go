// Package batch fans independent per-item operations out across a fixed
// input set and aggregates their outcomes. One item's failure never
// aborts or rolls back another item.
package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/adewale-k/compliance-docs/internal/entity"
)

// ItemFunc runs the underlying single-item operation for one index. The
// returned key correlates the outcome with its input (item id, row id).
type ItemFunc func(ctx context.Context, index int) (key string, value any, err error)

// ProgressFunc is the optional streaming side channel: invoked once per
// item reaching terminal state with the running completion count.
type ProgressFunc func(completed, total int)

type Coordinator struct {
	concurrency int
	logger      *slog.Logger
	onItemDone  ProgressFunc
}

type Option func(*Coordinator)

func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(c *Coordinator) { c.onItemDone = fn }
}

func NewCoordinator(logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{concurrency: 4, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

type slot struct {
	key   string
	value any
	err   error
}

// Run executes fn for each index in [0,total) under the concurrency
// bound and returns exactly one BatchResult once every item is terminal.
// It never returns early: per-item errors land in Failed slots. Each
// index writes its own slot, so concurrent completion cannot
// double-count.
func (c *Coordinator) Run(ctx context.Context, total int, fn ItemFunc) entity.BatchResult {
	result := entity.BatchResult{Total: total}
	if total == 0 {
		return result
	}

	slots := make([]slot, total)
	sem := make(chan struct{}, c.concurrency)

	var wg sync.WaitGroup
	var done int
	var doneMu sync.Mutex

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				// batch cancelled before this item started
				slots[idx] = slot{err: err}
			} else {
				key, value, err := fn(ctx, idx)
				slots[idx] = slot{key: key, value: value, err: err}
			}

			if c.onItemDone != nil {
				doneMu.Lock()
				done++
				n := done
				doneMu.Unlock()
				c.onItemDone(n, total)
			}
		}(i)
	}
	wg.Wait()

	for i, s := range slots {
		if s.err != nil {
			result.Failed = append(result.Failed, entity.BatchItemFailure{Index: i, Key: s.key, Reason: s.err.Error()})
		} else {
			result.Succeeded = append(result.Succeeded, entity.BatchItemSuccess{Index: i, Key: s.key, Value: s.value})
		}
	}

	c.logger.Info("batch.done", "total", total, "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result
}
