// Package diagnostics carries non-fatal problems found while building view-models.
package diagnostics

import (
	"sync"
	"time"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
)

// Sink receives diagnostics. Report must not block.
type Sink interface {
	Report(source string, err *errors.AppError)
}

// Entry is one recorded diagnostic.
type Entry struct {
	Source   string    `json:"source"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Recorded time.Time `json:"recorded_at"`
}

// Collector keeps the most recent diagnostics in a fixed-size ring.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	dropped int
	log     *logger.Logger
	now     func() time.Time
}

func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = 100
	}
	return &Collector{
		entries: make([]Entry, capacity),
		log:     logger.Default().WithPrefix("diagnostics"),
		now:     time.Now,
	}
}

func (c *Collector) Report(source string, err *errors.AppError) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.full {
		c.dropped++
	}
	c.entries[c.next] = Entry{
		Source:   source,
		Code:     err.Code,
		Message:  err.Message,
		Recorded: c.now(),
	}
	c.next = (c.next + 1) % len(c.entries)
	if c.next == 0 {
		c.full = true
	}
	c.log.Warn("%s: %s", source, err.Message)
}

// Entries returns the recorded diagnostics, oldest first.
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		return append([]Entry(nil), c.entries[:c.next]...)
	}
	out := make([]Entry, 0, len(c.entries))
	out = append(out, c.entries[c.next:]...)
	return append(out, c.entries[:c.next]...)
}

// Dropped returns how many entries were overwritten.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next, c.full, c.dropped = 0, false, 0
}

// Discard drops every diagnostic.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(string, *errors.AppError) {}
