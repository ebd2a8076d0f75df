package worker

import (
	"context"

	"github.com/vytor/chessdash/internal/logger"
)

// Dispatcher runs a remote operation off the caller's goroutine.
type Dispatcher interface {
	Dispatch(name string, fn func(context.Context) error) error
}

var (
	_ Dispatcher = (*Pool)(nil)
	_ Dispatcher = Inline{}
)

// FuncJob adapts a function to Job.
type FuncJob struct {
	JobName string
	Fn      func(context.Context) error
}

func (j FuncJob) Name() string { return j.JobName }

func (j FuncJob) Run(ctx context.Context) error {
	return j.Fn(ctx)
}

// Inline runs every dispatched function synchronously on the caller's
// goroutine. Used by one-shot CLI commands and tests.
type Inline struct {
	Ctx context.Context
}

func (d Inline) Dispatch(name string, fn func(context.Context) error) error {
	ctx := d.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.FromContext(ctx).WithField("job", name)
	if err := fn(logger.NewContext(ctx, log)); err != nil {
		log.Debug("inline job failed: %v", err)
	}
	return nil
}
