// Package semaphore implements the Tip Semaphore (C5): a single-capacity
// mutual-exclusion primitive guarding the current tip hash, grounded on
// spec.md §4.5 and modeled per §9's design note as a single-capacity channel
// rather than a recursive/ambient-context construct.
package semaphore

import (
	"context"
	"errors"

	"github.com/epochra/epochra/pkg/core/types"
)

// ErrAlreadyFull is the value Put panics with when the slot already holds a
// value — spec.md §4.5 treats this as "violation is a bug".
var ErrAlreadyFull = errors.New("semaphore: slot already full")

// TipSemaphore holds at most one tip hash at a time.
type TipSemaphore struct {
	slot chan types.Hash
}

// New creates a TipSemaphore already filled with the given initial tip.
func New(initialTip types.Hash) *TipSemaphore {
	s := &TipSemaphore{slot: make(chan types.Hash, 1)}
	s.slot <- initialTip
	return s
}

// Take blocks until the slot is full, then removes and returns its value.
// It is a suspension point (spec.md §5) and honors ctx cancellation.
func (s *TipSemaphore) Take(ctx context.Context) (types.Hash, error) {
	select {
	case h := <-s.slot:
		return h, nil
	case <-ctx.Done():
		return types.Hash{}, ctx.Err()
	}
}

// Put fills the slot with h. The slot must be empty; putting into a full
// slot is a programmer error and panics rather than silently blocking or
// overwriting, per spec.md §4.5's "violation is a bug".
func (s *TipSemaphore) Put(h types.Hash) {
	select {
	case s.slot <- h:
	default:
		panic(ErrAlreadyFull)
	}
}

// WithBlkSemaphore acquires the tip, invokes action(ctx, oldTip), and places
// the result into the semaphore as the new tip. If action fails — an error
// return (including one caused by ctx cancellation) or a panic — the original
// tip is restored instead (spec.md §4.5, §5 "Cancellation", §8 invariant 8).
func WithBlkSemaphore(ctx context.Context, sem *TipSemaphore, action func(ctx context.Context, oldTip types.Hash) (types.Hash, error)) error {
	oldTip, err := sem.Take(ctx)
	if err != nil {
		return err
	}

	published := false
	defer func() {
		if !published {
			sem.Put(oldTip)
		}
	}()

	newTip, err := action(ctx, oldTip)
	if err != nil {
		return err
	}

	sem.Put(newTip)
	published = true
	return nil
}
