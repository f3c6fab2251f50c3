// Package batch runs a piece of work over many items with a cap on how many run at once.
package batch

import (
	"context"
	"sync"

	"github.com/plugtest/plugtest/key"
	"github.com/spf13/viper"
)

// DefaultLimit is the number of items processed concurrently when nothing else is configured.
const DefaultLimit = 3

// Limit returns the configured runner.concurrency, or DefaultLimit.
func Limit() int {
	if n := viper.GetInt(key.RunnerConcurrency); n > 0 {
		return n
	}
	return DefaultLimit
}

// Run processes items with at most limit concurrent calls to work and returns once every
// started call has finished. Items are taken from a FIFO queue shared by min(limit, len(items))
// runners, so each item is handed out exactly once. A limit below 1 is treated as 1.
//
// work is expected to record its own failures; Run does not inspect outcomes. Once ctx is
// done runners stop taking new items, and work already started runs to completion.
func Run[T any](ctx context.Context, items []T, limit int, work func(context.Context, T)) {
	if len(items) == 0 {
		return
	}

	if limit < 1 {
		limit = 1
	}

	queue := make(chan T, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	runners := min(limit, len(items))

	var wg sync.WaitGroup
	wg.Add(runners)
	for range runners {
		go func() {
			defer wg.Done()
			for item := range queue {
				if ctx.Err() != nil {
					return
				}
				work(ctx, item)
			}
		}()
	}

	wg.Wait()
}
