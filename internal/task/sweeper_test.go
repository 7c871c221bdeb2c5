package task

import (
	"testing"
	"time"

	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeper_Defaults(t *testing.T) {
	t.Parallel()

	s := NewSweeper(NewStore(), SweeperConfig{}, discardLogger())
	assert.Equal(t, DefaultSweeperConfig(), s.config)
}

func TestSweeper_SweepOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now

	store := NewStore()
	store.now = func() time.Time { return clock }

	clock = now.Add(-2 * time.Hour)
	expired := store.Create(domain.ModeWhite, makeFiles(1))
	store.SetError(expired, "boom")

	clock = now.Add(-30 * time.Minute)
	fresh := store.Create(domain.ModeWhite, makeFiles(1))
	store.SetResult(fresh, []byte("zip"))
	store.UpdateStatus(fresh, TaskStatusCompleted, WithProgress(100))

	clock = now.Add(-5 * time.Hour)
	pending := store.Create(domain.ModeWhite, makeFiles(1))

	clock = now
	sweeper := NewSweeper(store, SweeperConfig{Retention: time.Hour, Interval: time.Hour}, discardLogger())
	sweeper.now = func() time.Time { return now }

	assert.Equal(t, 1, sweeper.SweepOnce())

	_, err := store.Get(expired)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.Get(fresh)
	assert.NoError(t, err)
	_, err = store.Get(pending)
	assert.NoError(t, err)

	assert.Zero(t, sweeper.SweepOnce(), "sweeping again removes nothing")
}

func TestSweeper_Loop(t *testing.T) {
	t.Parallel()

	store := NewStore()
	id := store.Create(domain.ModeWhite, makeFiles(1))
	store.SetError(id, "boom")

	sweeper := NewSweeper(store, SweeperConfig{
		Retention: time.Millisecond,
		Interval:  10 * time.Millisecond,
	}, discardLogger())
	sweeper.now = func() time.Time { return time.Now().Add(time.Minute) }

	sweeper.Start()
	sweeper.Start()
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		return store.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	assert.NotPanics(t, sweeper.Stop)
}
