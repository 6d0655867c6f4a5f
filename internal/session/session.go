// Package session drives a client through one run of due items:
// fetch the due page, present items one at a time, apply ratings, advance.
package session

import (
	"errors"

	"github.com/Kaushik-93/Engram-sub000/internal/recall"
	"github.com/Kaushik-93/Engram-sub000/internal/storage"
)

var (
	// ErrNotPresenting is returned when Rate or Skip is called outside the
	// presenting phase.
	ErrNotPresenting = errors.New("session: no item is being presented")
)

// Phase is the session's position in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Generating
	Presenting
	Complete
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Presenting:
		return "presenting"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Recaller is the slice of the recall service a session needs.
type Recaller interface {
	Due(sourceID int64) ([]storage.DueItem, error)
	Rate(itemID string, score float64) (*recall.RatingResult, error)
}

// Session walks an ordered run of due items. It is not safe for concurrent
// use; one session belongs to one reviewing client.
type Session struct {
	svc     Recaller
	items   []storage.DueItem
	index   int
	phase   Phase
	rated   int
	skipped int
}

// Start fetches the due items for sourceID (0 for all sources) and opens a
// session over them. A session with nothing due starts complete.
func Start(svc Recaller, sourceID int64) (*Session, error) {
	s := &Session{svc: svc, phase: Generating}
	items, err := svc.Due(sourceID)
	if err != nil {
		s.phase = Idle
		return nil, err
	}
	s.items = items
	if len(items) == 0 {
		s.phase = Complete
	} else {
		s.phase = Presenting
	}
	return s, nil
}

// Phase reports the session's current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Current returns the item being presented, or false outside the
// presenting phase.
func (s *Session) Current() (storage.DueItem, bool) {
	if s.phase != Presenting {
		return storage.DueItem{}, false
	}
	return s.items[s.index], true
}

// Rate applies a rating to the current item and advances to the next one.
// The rating is persisted even if it is the session's last; abandoning a
// session later never unwinds it.
func (s *Session) Rate(score float64) (*recall.RatingResult, error) {
	if s.phase != Presenting {
		return nil, ErrNotPresenting
	}
	result, err := s.svc.Rate(s.items[s.index].ID, score)
	if err != nil {
		return nil, err
	}
	s.rated++
	s.advance()
	return result, nil
}

// Skip advances past the current item without rating it. The item keeps
// its schedule, so it stays due and resurfaces in the next session.
func (s *Session) Skip() error {
	if s.phase != Presenting {
		return ErrNotPresenting
	}
	s.skipped++
	s.advance()
	return nil
}

// Abandon ends the session early. Items already rated keep their new
// schedule; the rest remain due and untouched.
func (s *Session) Abandon() {
	s.phase = Idle
}

// Progress reports how many items have been dealt with out of the total.
func (s *Session) Progress() (done, total int) {
	return s.rated + s.skipped, len(s.items)
}

func (s *Session) advance() {
	s.index++
	if s.index == len(s.items) {
		s.phase = Complete
	}
}
