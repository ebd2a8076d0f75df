// Package query tracks the lifecycle of independent asynchronous queries.
//
// A Slot moves idle → pending → succeeded | failed. Every Start issues a new
// token; a completion is applied only when it carries the latest token, so
// the last-dispatched request always wins regardless of completion order.
package query

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
)

// ErrStale is returned by Run when a newer request superseded the call.
var ErrStale = stderrors.New("query: response superseded by a newer request")

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Token identifies one dispatched request. Zero is never issued.
type Token uint64

// Snapshot is a consistent copy of a slot's state. While pending, Value
// still holds the last successful result, if any.
type Snapshot[T any] struct {
	Name        string
	Status      Status
	Token       Token
	Value       T
	HasValue    bool
	Err         error
	StartedAt   time.Time
	CompletedAt time.Time
}

type snapshotError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s Snapshot[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Name        string         `json:"name"`
		Status      Status         `json:"status"`
		Token       Token          `json:"token"`
		Value       *T             `json:"value,omitempty"`
		Error       *snapshotError `json:"error,omitempty"`
		StartedAt   *time.Time     `json:"started_at,omitempty"`
		CompletedAt *time.Time     `json:"completed_at,omitempty"`
	}{
		Name:   s.Name,
		Status: s.Status,
		Token:  s.Token,
	}
	if s.HasValue {
		v := s.Value
		out.Value = &v
	}
	if s.Err != nil {
		e := &snapshotError{Code: errors.CodeOf(s.Err), Message: s.Err.Error()}
		if appErr, ok := errors.As(s.Err); ok {
			e.Message = appErr.Message
		}
		out.Error = e
	}
	if !s.StartedAt.IsZero() {
		out.StartedAt = &s.StartedAt
	}
	if !s.CompletedAt.IsZero() {
		out.CompletedAt = &s.CompletedAt
	}
	return json.Marshal(out)
}

// Slot holds the state of one query. Slots never share locks.
type Slot[T any] struct {
	mu        sync.Mutex
	name      string
	seq       Token
	state     Snapshot[T]
	onSuccess []func(T)
	now       func() time.Time
	log       *logger.Logger
}

func NewSlot[T any](name string) *Slot[T] {
	return &Slot[T]{
		name:  name,
		state: Snapshot[T]{Name: name, Status: StatusIdle},
		now:   time.Now,
		log:   logger.Default().WithPrefix("query").WithField("slot", name),
	}
}

func (s *Slot[T]) Name() string {
	return s.name
}

// OnSuccess registers fn to run whenever a success is applied. fn runs with
// the slot locked, so it must not call back into this slot.
func (s *Slot[T]) OnSuccess(fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSuccess = append(s.onSuccess, fn)
}

// Start moves the slot to pending, clears any prior error and returns the
// token the eventual completion must present.
func (s *Slot[T]) Start() Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == StatusPending {
		s.log.Debug("superseding in-flight request token=%d", s.seq)
	}
	s.seq++
	s.state.Status = StatusPending
	s.state.Token = s.seq
	s.state.Err = nil
	s.state.StartedAt = s.now()
	s.state.CompletedAt = time.Time{}
	s.log.Debug("request started token=%d", s.seq)
	return s.seq
}

// Succeed applies v if tok is the latest dispatched token and the slot is
// still pending. It reports whether the result was applied.
func (s *Slot[T]) Succeed(tok Token, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptsLocked(tok) {
		s.log.Debug("dropping stale success token=%d latest=%d", tok, s.seq)
		return false
	}
	s.state.Status = StatusSucceeded
	s.state.Value = v
	s.state.HasValue = true
	s.state.Err = nil
	s.state.CompletedAt = s.now()
	for _, fn := range s.onSuccess {
		fn(v)
	}
	s.log.Debug("request succeeded token=%d", tok)
	return true
}

// Fail records err if tok is the latest dispatched token and the slot is
// still pending. The previous value is dropped.
func (s *Slot[T]) Fail(tok Token, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptsLocked(tok) {
		s.log.Debug("dropping stale failure token=%d latest=%d: %v", tok, s.seq, err)
		return false
	}
	var zero T
	s.state.Status = StatusFailed
	s.state.Value = zero
	s.state.HasValue = false
	s.state.Err = err
	s.state.CompletedAt = s.now()
	s.log.Debug("request failed token=%d: %v", tok, err)
	return true
}

// Reset returns the slot to idle and invalidates any in-flight request.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.state = Snapshot[T]{Name: s.name, Status: StatusIdle}
}

// Current returns the latest issued token, or zero if none.
func (s *Slot[T]) Current() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// IsCurrent reports whether tok is still the live request.
func (s *Slot[T]) IsCurrent(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptsLocked(tok)
}

func (s *Slot[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Slot[T]) acceptsLocked(tok Token) bool {
	return tok != 0 && tok == s.seq && s.state.Status == StatusPending
}

// Run starts a request, calls fn and completes the slot with its outcome.
// It returns ErrStale, wrapped around fn's error if any, when a newer
// request superseded this one.
func Run[T any](ctx context.Context, s *Slot[T], fn func(context.Context) (T, error)) (T, error) {
	return Complete(ctx, s, s.Start(), fn)
}

// Complete calls fn and completes an already-started request identified by tok.
func Complete[T any](ctx context.Context, s *Slot[T], tok Token, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		if !s.Fail(tok, err) {
			var zero T
			return zero, stderrors.Join(ErrStale, err)
		}
		return v, err
	}
	if !s.Succeed(tok, v) {
		var zero T
		return zero, ErrStale
	}
	return v, nil
}
