package tester

import (
	"sync"

	"github.com/plugtest/plugtest/key"
	"github.com/spf13/viper"
)

// DefaultLogsCap is how many lines a LogRing keeps when nothing else is configured.
const DefaultLogsCap = 200

// LogsCap returns the configured tester.logs_cap, or DefaultLogsCap.
func LogsCap() int {
	if n := viper.GetInt(key.TesterLogsCap); n > 0 {
		return n
	}
	return DefaultLogsCap
}

// LogRing keeps the newest lines of one execution's log, up to a fixed capacity.
type LogRing struct {
	mu      sync.Mutex
	buf     []string
	start   int
	size    int
	dropped int
}

// NewLogRing returns a ring holding at most capacity lines. Capacity below 1 is raised to 1.
func NewLogRing(capacity int) *LogRing {
	return &LogRing{buf: make([]string, max(capacity, 1))}
}

// Append adds a line, evicting the oldest one when full.
func (r *LogRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = line
		r.size++
		return
	}

	r.buf[r.start] = line
	r.start = (r.start + 1) % len(r.buf)
	r.dropped++
}

// Lines returns the retained lines, oldest first.
func (r *LogRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, r.size)
	for i := range r.size {
		lines[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return lines
}

// Len is the number of retained lines.
func (r *LogRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Dropped is the number of lines evicted so far.
func (r *LogRing) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
