package tester

import (
	"errors"
	"sync"
	"time"

	"github.com/plugtest/plugtest/manifest"
	"github.com/plugtest/plugtest/plugin"
	"github.com/samber/lo"
)

var (
	// ErrAlreadyRunning is returned when a test is started for a scraper that is still running.
	ErrAlreadyRunning = errors.New("scraper test is already running")
	// ErrUnknownScraper is returned for ids not present in the loaded manifest.
	ErrUnknownScraper = errors.New("unknown scraper id")
)

// UpdateKind says what changed on the board.
type UpdateKind int

const (
	UpdateReset UpdateKind = iota
	UpdateStatus
	UpdateLog
)

// Update notifies subscribers that the entry for ID changed.
type Update struct {
	Kind   UpdateKind
	ID     string
	Status Status
	Line   string
}

type entry struct {
	result  Result
	ring    *LogRing
	started time.Time
}

// Board holds one Result per scraper id. Every transition goes through its methods, which
// serialize access, so concurrent tests of different scrapers can share it.
type Board struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*entry
	logsCap int
	subs    map[int]chan Update
	nextSub int
	now     func() time.Time
}

// NewBoard returns an empty board keeping up to logsCap log lines per scraper.
func NewBoard(logsCap int) *Board {
	if logsCap < 1 {
		logsCap = DefaultLogsCap
	}
	return &Board{
		entries: make(map[string]*entry),
		logsCap: logsCap,
		subs:    make(map[int]chan Update),
		now:     time.Now,
	}
}

// Reset replaces the board's contents with one idle entry per descriptor, in order.
// Repeated ids keep their first entry.
func (b *Board) Reset(descriptors []manifest.ScraperDescriptor) {
	b.mu.Lock()
	b.order = b.order[:0]
	b.entries = make(map[string]*entry, len(descriptors))

	for _, d := range descriptors {
		if _, exists := b.entries[d.ID]; exists {
			continue
		}
		b.order = append(b.order, d.ID)
		b.entries[d.ID] = &entry{
			result: Result{ID: d.ID, Name: d.DisplayName(), Status: Idle},
			ring:   NewLogRing(b.logsCap),
		}
	}
	b.mu.Unlock()

	b.publish(Update{Kind: UpdateReset})
}

// Begin moves id to Running and returns the log callback for this run. The callback only
// ever writes to this run's buffer, even if it fires after a later run began.
func (b *Board) Begin(id string) (plugin.LogFunc, error) {
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok {
		b.mu.Unlock()
		return nil, ErrUnknownScraper
	}

	if e.result.Status == Running {
		b.mu.Unlock()
		return nil, ErrAlreadyRunning
	}

	ring := NewLogRing(b.logsCap)
	e.ring = ring
	e.started = b.now()
	e.result = Result{ID: e.result.ID, Name: e.result.Name, Status: Running}
	b.mu.Unlock()

	b.publish(Update{Kind: UpdateStatus, ID: id, Status: Running})

	return func(line string) {
		ring.Append(line)
		b.publish(Update{Kind: UpdateLog, ID: id, Line: line})
	}, nil
}

// Finish applies the terminal transition for a running id. It reports false when id is not
// running, leaving finished results untouched.
func (b *Board) Finish(id string, outcome Outcome) bool {
	b.mu.Lock()
	e, ok := b.entries[id]
	if !ok || e.result.Status != Running {
		b.mu.Unlock()
		return false
	}

	r := &e.result
	r.Status = Classify(outcome.Output, outcome.Err)
	r.TriedURL = outcome.TriedURL
	r.UsedURL = outcome.UsedURL
	r.Duration = b.now().Sub(e.started)
	r.DurationMs = r.Duration.Milliseconds()

	if outcome.Err != nil {
		r.Error = outcome.Err.Error()
	}

	if outcome.Output != nil {
		r.Streams = outcome.Output.Streams
		r.StreamsCount = len(outcome.Output.Streams)
	}

	status := r.Status
	b.mu.Unlock()

	b.publish(Update{Kind: UpdateStatus, ID: id, Status: status})
	return true
}

// Skip marks an idle scraper as deliberately not tested.
func (b *Board) Skip(id string) {
	b.mu.Lock()
	if e, ok := b.entries[id]; ok && e.result.Status == Idle {
		e.result.Skipped = true
	}
	b.mu.Unlock()

	b.publish(Update{Kind: UpdateStatus, ID: id, Status: Idle})
}

func (b *Board) snapshot(e *entry) Result {
	r := e.result
	r.Logs = e.ring.Lines()
	r.DroppedLogs = e.ring.Dropped()
	r.Streams = append(r.Streams[:0:0], r.Streams...)
	return r
}

// Get returns a copy of id's result.
func (b *Board) Get(id string) (Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok {
		return Result{}, false
	}
	return b.snapshot(e), true
}

// Snapshot returns copies of every result in manifest order.
func (b *Board) Snapshot() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	return lo.Map(b.order, func(id string, _ int) Result {
		return b.snapshot(b.entries[id])
	})
}

// Len is the number of scrapers on the board.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Subscribe returns a channel of board updates and a function that cancels the subscription.
// Updates are dropped rather than block a test when the subscriber falls behind, so readers
// should treat them as hints and read state with Snapshot.
func (b *Board) Subscribe() (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++

	ch := make(chan Update, 256)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *Board) publish(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
