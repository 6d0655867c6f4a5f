package domain

import "time"

// Concept is a single piece of study content parsed from a source file:
// the text to be recalled, plus an optional clue shown as the prompt.
type Concept struct {
	Text string
	Clue string
	Hash string
}

// Item is a reviewable concept in the recall queue, together with its
// scheduling state.
//
// Invariants: IntervalMinutes >= 0 and Stability >= 1.0. NextDueAt is the
// promotion time for an item that has never been rated, and
// LastRecalledAt + IntervalMinutes minutes afterwards.
type Item struct {
	ID              string
	SourceID        int64
	ContentHash     string
	Concept         string
	Clue            string
	IntervalMinutes int
	Stability       float64
	LastRecalledAt  *time.Time
	NextDueAt       time.Time

	// Version counts state updates. Rating application is conditional on
	// the version it read, so two concurrent ratings of one item cannot
	// silently overwrite each other.
	Version int64
}

// ReviewLogEntry records a single rating event for an item.
// Entries are append-only; ordering is by RecalledAt.
type ReviewLogEntry struct {
	ItemID     string
	Score      float64
	RecalledAt time.Time
}
