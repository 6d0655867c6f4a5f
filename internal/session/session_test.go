package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaushik-93/Engram-sub000/internal/domain"
	"github.com/Kaushik-93/Engram-sub000/internal/recall"
	"github.com/Kaushik-93/Engram-sub000/internal/storage"
)

// fakeRecaller records ratings instead of persisting them.
type fakeRecaller struct {
	due     []storage.DueItem
	dueErr  error
	rateErr error
	rated   map[string]float64
}

func (f *fakeRecaller) Due(sourceID int64) ([]storage.DueItem, error) {
	return f.due, f.dueErr
}

func (f *fakeRecaller) Rate(itemID string, score float64) (*recall.RatingResult, error) {
	if f.rateErr != nil {
		return nil, f.rateErr
	}
	if f.rated == nil {
		f.rated = make(map[string]float64)
	}
	f.rated[itemID] = score
	return &recall.RatingResult{NextDueAt: time.Now().Add(time.Hour), IntervalMinutes: 60}, nil
}

func dueItems(ids ...string) []storage.DueItem {
	items := make([]storage.DueItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, storage.DueItem{Item: domain.Item{ID: id}})
	}
	return items
}

func TestSessionRatesThroughToComplete(t *testing.T) {
	fake := &fakeRecaller{due: dueItems("a", "b")}
	s, err := Start(fake, 0)
	require.NoError(t, err)
	assert.Equal(t, Presenting, s.Phase())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", current.ID)

	_, err = s.Rate(0.9)
	require.NoError(t, err)
	assert.Equal(t, Presenting, s.Phase())

	current, ok = s.Current()
	require.True(t, ok)
	assert.Equal(t, "b", current.ID)

	_, err = s.Rate(0.4)
	require.NoError(t, err)
	assert.Equal(t, Complete, s.Phase())
	assert.Equal(t, map[string]float64{"a": 0.9, "b": 0.4}, fake.rated)

	done, total := s.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
}

func TestSessionWithNothingDueStartsComplete(t *testing.T) {
	s, err := Start(&fakeRecaller{}, 0)
	require.NoError(t, err)
	assert.Equal(t, Complete, s.Phase())

	_, ok := s.Current()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Skip(), ErrNotPresenting)
	_, err = s.Rate(0.5)
	assert.ErrorIs(t, err, ErrNotPresenting)
}

func TestSessionStartPropagatesDueError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Start(&fakeRecaller{dueErr: boom}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestSkipDoesNotRate(t *testing.T) {
	fake := &fakeRecaller{due: dueItems("a", "b")}
	s, err := Start(fake, 0)
	require.NoError(t, err)

	require.NoError(t, s.Skip())
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "b", current.ID)
	assert.Empty(t, fake.rated)

	require.NoError(t, s.Skip())
	assert.Equal(t, Complete, s.Phase())
	assert.Empty(t, fake.rated)
}

func TestRateErrorDoesNotAdvance(t *testing.T) {
	fake := &fakeRecaller{due: dueItems("a", "b"), rateErr: recall.ErrNotFound}
	s, err := Start(fake, 0)
	require.NoError(t, err)

	_, err = s.Rate(0.9)
	assert.ErrorIs(t, err, recall.ErrNotFound)

	// Still presenting the same item; the client decides whether to retry
	// or skip.
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", current.ID)
}

func TestAbandonMidSession(t *testing.T) {
	fake := &fakeRecaller{due: dueItems("a", "b", "c")}
	s, err := Start(fake, 0)
	require.NoError(t, err)

	_, err = s.Rate(0.9)
	require.NoError(t, err)
	s.Abandon()

	assert.Equal(t, Idle, s.Phase())
	// The rating already applied stays applied.
	assert.Equal(t, map[string]float64{"a": 0.9}, fake.rated)

	_, err = s.Rate(0.5)
	assert.ErrorIs(t, err, ErrNotPresenting)
}
