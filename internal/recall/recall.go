package recall

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kaushik-93/Engram-sub000/internal/domain"
	"github.com/Kaushik-93/Engram-sub000/internal/schedule"
	"github.com/Kaushik-93/Engram-sub000/internal/storage"
)

var (
	// ErrNotFound is returned when a rating targets an unknown item.
	ErrNotFound = errors.New("recall: item not found")
	// ErrConflict is returned when an item's state keeps changing under a
	// rating faster than it can be retried.
	ErrConflict = errors.New("recall: item state changed concurrently")
)

// DuePageSize caps the number of items a single due query returns.
const DuePageSize = 20

// Concurrent ratings of one item retry against the fresh state; three
// attempts covers any realistic race on a single-user review queue.
const maxRateAttempts = 3

// store is the slice of the storage layer rating application needs.
type store interface {
	FindItemByID(id string) (*domain.Item, error)
	UpdateItemState(item *domain.Item) (bool, error)
	AppendReviewLog(entry domain.ReviewLogEntry) error
	DueItems(sourceID int64, now time.Time, limit int) ([]storage.DueItem, error)
	ReviewLogForItem(itemID string) ([]domain.ReviewLogEntry, error)
}

// Service applies ratings to items and serves the due-item query.
type Service struct {
	db     store
	params *schedule.Params
	now    func() time.Time
}

// NewService creates a Service over db using the given scheduling params.
func NewService(db *storage.DB, params *schedule.Params) *Service {
	return &Service{db: db, params: params, now: time.Now}
}

// RatingResult is what a caller needs to present after a rating: when the
// item comes back and how long the new interval is.
type RatingResult struct {
	NextDueAt       time.Time
	IntervalMinutes int
}

// Rate applies a rating to the item: fetch state, run the scheduling policy,
// persist conditionally on the fetched version, append a review log entry.
//
// The item-state write failing aborts and surfaces the error; the log append
// failing is logged and does not, since the schedule update is the one the
// user observes. A version conflict re-runs the whole cycle against fresh
// state so neither of two concurrent ratings is silently dropped.
func (s *Service) Rate(itemID string, score float64) (*RatingResult, error) {
	now := s.now()

	for attempt := 0; attempt < maxRateAttempts; attempt++ {
		item, err := s.db.FindItemByID(itemID)
		if err != nil {
			return nil, fmt.Errorf("fetching item %s: %w", itemID, err)
		}
		if item == nil {
			return nil, ErrNotFound
		}

		result, err := s.params.Next(schedule.State{
			IntervalMinutes: item.IntervalMinutes,
			Stability:       item.Stability,
		}, score, now)
		if err != nil {
			return nil, err
		}

		item.IntervalMinutes = result.IntervalMinutes
		item.Stability = result.Stability
		item.NextDueAt = result.NextDueAt
		item.LastRecalledAt = &now

		applied, err := s.db.UpdateItemState(item)
		if err != nil {
			return nil, fmt.Errorf("updating item %s: %w", itemID, err)
		}
		if !applied {
			continue
		}

		if err := s.db.AppendReviewLog(domain.ReviewLogEntry{
			ItemID:     itemID,
			Score:      score,
			RecalledAt: now,
		}); err != nil {
			slog.Warn("failed to append review log", "item_id", itemID, "error", err)
		}

		return &RatingResult{
			NextDueAt:       result.NextDueAt,
			IntervalMinutes: result.IntervalMinutes,
		}, nil
	}

	return nil, fmt.Errorf("%w: item %s", ErrConflict, itemID)
}

// Due lists items ready for review, soonest-due first. A sourceID of 0
// means all sources.
func (s *Service) Due(sourceID int64) ([]storage.DueItem, error) {
	return s.db.DueItems(sourceID, s.now(), DuePageSize)
}

// History returns an item's review log entries, oldest first.
func (s *Service) History(itemID string) ([]domain.ReviewLogEntry, error) {
	item, err := s.db.FindItemByID(itemID)
	if err != nil {
		return nil, fmt.Errorf("fetching item %s: %w", itemID, err)
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return s.db.ReviewLogForItem(itemID)
}
