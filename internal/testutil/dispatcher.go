package testutil

import (
	"context"
	"sync"
)

// ManualDispatcher queues dispatched work until the test runs it, so tests
// can complete requests in any order.
type ManualDispatcher struct {
	mu    sync.Mutex
	names []string
	jobs  []func(context.Context) error
}

func (d *ManualDispatcher) Dispatch(name string, fn func(context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.jobs = append(d.jobs, fn)
	return nil
}

// Len returns the number of dispatched jobs, run or not.
func (d *ManualDispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func (d *ManualDispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.names...)
}

// Run executes the i-th dispatched job and returns its error.
func (d *ManualDispatcher) Run(i int) error {
	d.mu.Lock()
	fn := d.jobs[i]
	d.mu.Unlock()
	return fn(context.Background())
}

// RunAll executes every dispatched job in dispatch order.
func (d *ManualDispatcher) RunAll() {
	for i := 0; i < d.Len(); i++ {
		_ = d.Run(i)
	}
}
