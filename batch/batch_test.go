package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overlapProbe records how many workers are inside work at the same time.
type overlapProbe struct {
	current atomic.Int32
	peak    atomic.Int32
}

func (p *overlapProbe) enter() {
	n := p.current.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (p *overlapProbe) leave() {
	p.current.Add(-1)
}

func TestConcurrencyBound(t *testing.T) {
	for _, tc := range []struct {
		name  string
		items int
		limit int
	}{
		{"fewer items than limit", 2, 3},
		{"equal", 3, 3},
		{"many items", 25, 3},
		{"single runner", 7, 1},
		{"non-positive limit", 4, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			items := make([]int, tc.items)
			for i := range items {
				items[i] = i
			}

			var (
				probe overlapProbe
				mu    sync.Mutex
				seen  = make(map[int]int)
			)

			Run(context.Background(), items, tc.limit, func(_ context.Context, item int) {
				probe.enter()
				defer probe.leave()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				seen[item]++
				mu.Unlock()
			})

			bound := max(tc.limit, 1)
			assert.LessOrEqual(t, int(probe.peak.Load()), bound)

			require.Len(t, seen, tc.items)
			for item, count := range seen {
				assert.Equalf(t, 1, count, "item %d processed %d times", item, count)
			}
		})
	}
}

func TestRunReachesLimit(t *testing.T) {
	items := make([]int, 9)
	release := make(chan struct{})
	var started atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(context.Background(), items, 3, func(_ context.Context, _ int) {
			started.Add(1)
			<-release
		})
	}()

	require.Eventually(t, func() bool { return started.Load() == 3 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(3), started.Load(), "a fourth item started while three were in flight")

	close(release)
	<-done
	assert.Equal(t, int32(9), started.Load())
}

func TestRun(t *testing.T) {
	Convey("Given an empty batch", t, func() {
		called := false
		Run(context.Background(), []string{}, 3, func(context.Context, string) { called = true })
		So(called, ShouldBeFalse)
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		var count atomic.Int32

		Run(ctx, []int{1, 2, 3, 4, 5, 6}, 1, func(_ context.Context, item int) {
			count.Add(1)
			if item == 2 {
				cancel()
			}
		})

		Convey("Then runners stop taking new items", func() {
			So(count.Load(), ShouldEqual, 2)
		})
	})

	Convey("Given a single runner", t, func() {
		var order []int
		Run(context.Background(), []int{1, 2, 3, 4}, 1, func(_ context.Context, item int) {
			order = append(order, item)
		})

		Convey("Then items are taken in queue order", func() {
			So(order, ShouldResemble, []int{1, 2, 3, 4})
		})
	})

	Convey("The configured limit falls back to three", t, func() {
		So(Limit(), ShouldEqual, DefaultLimit)
	})
}
