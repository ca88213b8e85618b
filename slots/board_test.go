package slots

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tick    = 20 * time.Millisecond
	waitFor = time.Second
)

func fastBoard() *Board {
	return NewBoard(4, WithSavedReset(tick), WithErrorReset(2*tick), WithCopiedReset(tick))
}

func TestSaveSuccessResetsToIdle(t *testing.T) {
	b := fastBoard()

	require.True(t, b.BeginSave(0))
	assert.Equal(t, Saving, b.State(0))

	b.FinishSave(0, nil)
	assert.Equal(t, Saved, b.State(0))

	assert.Eventually(t, func() bool { return b.State(0) == Idle }, waitFor, tick/4)
}

func TestSaveErrorResetsToIdle(t *testing.T) {
	b := fastBoard()

	require.True(t, b.BeginSave(1))
	b.FinishSave(1, errors.New("boom"))
	assert.Equal(t, Error, b.State(1))

	assert.Eventually(t, func() bool { return b.State(1) == Idle }, waitFor, tick/4)
}

func TestBeginSaveIgnoredWhileBusy(t *testing.T) {
	b := NewBoard(4)

	require.True(t, b.BeginSave(2))
	assert.False(t, b.BeginSave(2))

	b.FinishSave(2, nil)
	assert.False(t, b.BeginSave(2))
	assert.Equal(t, Saved, b.State(2))

	for _, i := range []int{0, 1, 3} {
		assert.Equal(t, Idle, b.State(i))
	}
}

func TestRetryFromError(t *testing.T) {
	b := NewBoard(4)

	require.True(t, b.BeginSave(0))
	b.FinishSave(0, errors.New("boom"))

	require.True(t, b.BeginSave(0))
	assert.Equal(t, Saving, b.State(0))
}

func TestStaleTimerDoesNotClobberRetry(t *testing.T) {
	b := NewBoard(4, WithErrorReset(tick), WithSavedReset(time.Hour))

	require.True(t, b.BeginSave(0))
	b.FinishSave(0, errors.New("boom"))
	require.True(t, b.BeginSave(0))

	time.Sleep(3 * tick)
	assert.Equal(t, Saving, b.State(0))

	b.FinishSave(0, nil)
	assert.Equal(t, Saved, b.State(0))
}

func TestConcurrentBeginSaveSingleWinner(t *testing.T) {
	b := NewBoard(4)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.BeginSave(3) {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
}

func TestCopiedFlag(t *testing.T) {
	b := fastBoard()

	b.MarkCopied(1)
	assert.True(t, b.Copied(1))
	assert.False(t, b.Copied(0))

	assert.Eventually(t, func() bool { return !b.Copied(1) }, waitFor, tick/4)
}

func TestOutOfRange(t *testing.T) {
	b := NewBoard(4)

	assert.False(t, b.BeginSave(-1))
	assert.False(t, b.BeginSave(4))
	b.FinishSave(9, nil)
	b.MarkCopied(9)
	assert.Equal(t, Idle, b.State(9))
	assert.False(t, b.Copied(9))
}

func TestSnapshot(t *testing.T) {
	b := NewBoard(4)
	b.BeginSave(0)
	b.MarkCopied(2)

	snap := b.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, Snapshot{State: Saving}, snap[0])
	assert.Equal(t, Snapshot{Copied: true}, snap[2])
	assert.Equal(t, "saving", snap[0].State.String())
}
