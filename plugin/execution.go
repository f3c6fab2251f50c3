package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Execution is a run in progress, exposing its log lines as a channel.
type Execution struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  []string
	finished bool

	logs chan string
	done chan struct{}

	output *Output
	err    error
}

// Start runs script on exec in the background. Log lines are buffered without limit, so a
// slow reader never stalls the script. Logs must be drained for its channel to close.
func Start(ctx context.Context, exec Executor, script string, params Params) *Execution {
	e := &Execution{
		logs: make(chan string),
		done: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)

	go e.forward()
	go e.run(ctx, exec, script, params)

	return e
}

func (e *Execution) run(ctx context.Context, exec Executor, script string, params Params) {
	var (
		output *Output
		err    error
	)

	defer close(e.done)
	defer func() {
		if p := recover(); p != nil {
			output, err = nil, fmt.Errorf("executor panicked: %v", p)
		}

		e.mu.Lock()
		e.output, e.err = output, err
		e.finished = true
		e.mu.Unlock()
		e.cond.Broadcast()
	}()

	output, err = exec.Execute(ctx, script, params, e.push)
}

func (e *Execution) push(line string) {
	e.mu.Lock()
	e.pending = append(e.pending, line)
	e.mu.Unlock()
	e.cond.Signal()
}

func (e *Execution) forward() {
	defer close(e.logs)

	for {
		e.mu.Lock()
		for len(e.pending) == 0 && !e.finished {
			e.cond.Wait()
		}

		if len(e.pending) == 0 {
			e.mu.Unlock()
			return
		}

		batch := e.pending
		e.pending = nil
		e.mu.Unlock()

		for _, line := range batch {
			e.logs <- line
		}
	}
}

// Logs yields log lines in emission order and is closed once the run has settled and every
// line was delivered.
func (e *Execution) Logs() <-chan string {
	return e.logs
}

// Done is closed when the run settles.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the run settles and returns its result.
func (e *Execution) Wait() (*Output, error) {
	<-e.done

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.output, e.err
}
