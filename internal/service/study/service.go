package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

// AddResult reports the outcome of adding one verse to a learner's deck.
type AddResult struct {
	// Card is the new card, or the untouched existing one when Added is false.
	Card  *domain.StudyCard `json:"card"`
	Added bool              `json:"added"`
}

// ChapterAddResult reports how many verses of a chapter were added to a deck.
type ChapterAddResult = store.ChapterAddResult

// StudyService schedules reviews of a learner's verses and tracks their
// study sessions.
type StudyService interface {
	// SelectDue returns up to limit cards whose next review date is on or
	// before the learner's today, most overdue first, joined with the verse
	// text needed to present them.
	//
	// Returns:
	//   - (items, nil): possibly empty, never nil
	//   - (nil, ErrInvalidLimit): limit is not positive or above the configured maximum
	//   - (nil, error): any storage failure
	SelectDue(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.DueItem, error)

	// Rate applies a difficulty rating to the learner's card for verseID and
	// persists the new schedule.
	//
	// The card row is read and written in one transaction under a row lock.
	// When sessionID is set the session must belong to the learner, and the
	// review is counted in its tally after the schedule is committed.
	//
	// Returns:
	//   - (card, nil): the updated card
	//   - (nil, ErrInvalidRating): rating is not again, hard, good or easy
	//   - (nil, ErrCardNotFound): the verse is not in the learner's deck
	//   - (nil, ErrSessionNotFound): the session does not exist or expired
	//   - (nil, ErrSessionNotOwned): the session belongs to another learner
	Rate(
		ctx context.Context,
		userID, verseID uuid.UUID,
		rating domain.Rating,
		sessionID *uuid.UUID,
	) (*domain.StudyCard, error)

	// AddToDeck adds one verse to the learner's deck, due today.
	// Adding a verse already in the deck is not an error: the existing card is
	// returned unchanged with Added set to false.
	AddToDeck(ctx context.Context, userID, verseID uuid.UUID) (*AddResult, error)

	// AddChapterToDeck adds every verse of a chapter to the learner's deck.
	// Verses already in the deck are skipped and counted as already present.
	// Returns ErrChapterEmpty when the chapter has no verses.
	AddChapterToDeck(ctx context.Context, userID, chapterID uuid.UUID) (ChapterAddResult, error)

	// StartSession opens a new, empty session tally for the learner.
	StartSession(ctx context.Context, userID uuid.UUID) (*domain.SessionTally, error)

	// RecordReview counts one review in the session tally.
	RecordReview(ctx context.Context, userID, sessionID uuid.UUID, wasCorrect bool) error

	// FinalizeSession closes the session and persists its summary dated today.
	// A nil durationMinutes is derived from the session start time.
	// The tally is removed even when persisting the summary fails.
	FinalizeSession(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		durationMinutes *int,
	) (*domain.SessionSummary, error)

	// DailyStats sums every session summary of the learner dated today.
	DailyStats(ctx context.Context, userID uuid.UUID) (domain.DailyStats, error)

	// Progress returns the learner's study overview.
	Progress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error)
}

// Common error types for StudyService
var (
	// ErrInvalidRating indicates a rating outside again, hard, good and easy.
	ErrInvalidRating = domain.ErrInvalidRating

	// ErrInvalidLimit indicates a due selection limit out of range.
	ErrInvalidLimit = errors.New("invalid due item limit")

	// ErrInvalidDuration indicates a negative session duration.
	ErrInvalidDuration = errors.New("session duration cannot be negative")

	// ErrCardNotFound indicates the verse is not in the learner's deck.
	ErrCardNotFound = errors.New("study card not found")

	// ErrVerseNotFound indicates the verse does not exist.
	ErrVerseNotFound = errors.New("verse not found")

	// ErrChapterEmpty indicates the chapter does not exist or has no verses.
	ErrChapterEmpty = errors.New("chapter has no verses")

	// ErrSessionNotFound indicates the session does not exist, expired or was finalized.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrSessionNotOwned indicates the session belongs to another learner.
	ErrSessionNotOwned = errors.New("unauthorized access: study session not owned by user")
)

// Operation names carried by ServiceError
const (
	OpSelectDue        = "select_due"
	OpRate             = "rate"
	OpAddToDeck        = "add_to_deck"
	OpAddChapterToDeck = "add_chapter_to_deck"
	OpStartSession     = "start_session"
	OpRecordReview     = "record_review"
	OpFinalizeSession  = "finalize_session"
	OpDailyStats       = "daily_stats"
	OpProgress         = "progress"
)

// ServiceError wraps unexpected errors from the study service with the
// failed operation. Expected conditions are returned as the sentinels above.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "rate", "finalize_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
