// Package slots tracks the save and copy feedback of each image in a batch.
package slots

import (
	"sync"
	"time"
)

type SaveState int

const (
	Idle SaveState = iota
	Saving
	Saved
	Error
)

func (s SaveState) String() string {
	switch s {
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

const (
	DefaultSavedReset  = 2 * time.Second
	DefaultErrorReset  = 3 * time.Second
	DefaultCopiedReset = 2 * time.Second
)

type Option func(*Board)

func WithSavedReset(d time.Duration) Option {
	return func(b *Board) { b.savedReset = d }
}

func WithErrorReset(d time.Duration) Option {
	return func(b *Board) { b.errorReset = d }
}

func WithCopiedReset(d time.Duration) Option {
	return func(b *Board) { b.copiedReset = d }
}

type slot struct {
	state  SaveState
	copied bool
	// bumped on every transition; a timer only resets the slot it was armed for
	saveGen uint64
	copyGen uint64
}

// Board holds the state of the fixed slots of one batch. It is safe for
// concurrent use.
type Board struct {
	mu    sync.Mutex
	slots []slot

	savedReset  time.Duration
	errorReset  time.Duration
	copiedReset time.Duration
}

func NewBoard(n int, opts ...Option) *Board {
	b := &Board{
		slots:       make([]slot, n),
		savedReset:  DefaultSavedReset,
		errorReset:  DefaultErrorReset,
		copiedReset: DefaultCopiedReset,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Len() int {
	return len(b.slots)
}

func (b *Board) valid(i int) bool {
	return i >= 0 && i < len(b.slots)
}

// BeginSave moves slot i to Saving. It returns false, changing nothing, when
// the slot is already saving or saved.
func (b *Board) BeginSave(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid(i) {
		return false
	}
	s := &b.slots[i]
	if s.state == Saving || s.state == Saved {
		return false
	}
	s.state = Saving
	s.saveGen++
	return true
}

// FinishSave records the outcome of a save started with BeginSave and arms
// the reset back to Idle.
func (b *Board) FinishSave(i int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid(i) || b.slots[i].state != Saving {
		return
	}

	s := &b.slots[i]
	next, after := Saved, b.savedReset
	if err != nil {
		next, after = Error, b.errorReset
	}
	s.state = next
	s.saveGen++
	gen := s.saveGen

	time.AfterFunc(after, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.slots[i].saveGen == gen && b.slots[i].state == next {
			b.slots[i].state = Idle
			b.slots[i].saveGen++
		}
	})
}

func (b *Board) State(i int) SaveState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid(i) {
		return Idle
	}
	return b.slots[i].state
}

// MarkCopied flags slot i as copied until the copied reset elapses. Copying
// again restarts the window.
func (b *Board) MarkCopied(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid(i) {
		return
	}
	s := &b.slots[i]
	s.copied = true
	s.copyGen++
	gen := s.copyGen

	time.AfterFunc(b.copiedReset, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.slots[i].copyGen == gen {
			b.slots[i].copied = false
		}
	})
}

func (b *Board) Copied(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.valid(i) {
		return false
	}
	return b.slots[i].copied
}

// Snapshot is a point-in-time copy of one slot.
type Snapshot struct {
	State  SaveState
	Copied bool
}

func (b *Board) Snapshot() []Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Snapshot, len(b.slots))
	for i, s := range b.slots {
		out[i] = Snapshot{State: s.state, Copied: s.copied}
	}
	return out
}
