package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// ChapterAddResult reports the outcome of adding every verse of a chapter.
type ChapterAddResult struct {
	// Added is the number of new study cards created.
	Added int `json:"added"`
	// AlreadyPresent is the number of verses that were already in the deck.
	AlreadyPresent int `json:"already_present"`
}

// StudyCardStore defines the interface for study card persistence.
//
// All date parameters are calendar dates (midnight UTC) computed by the
// caller in the learner's study timezone; implementations never derive
// "today" from the database clock.
type StudyCardStore interface {
	// Create saves a new study card.
	// Returns ErrStudyCardExists if the learner already has a card for the verse;
	// the existing card is left untouched.
	// Returns ErrVerseNotFound if the verse does not exist.
	Create(ctx context.Context, card *domain.StudyCard) error

	// Get retrieves the learner's card for a verse.
	// Returns ErrStudyCardNotFound if the verse is not in the learner's deck.
	// NOTE: This method does NOT lock the row.
	Get(ctx context.Context, userID, verseID uuid.UUID) (*domain.StudyCard, error)

	// GetForUpdate retrieves the card with a row-level lock using SELECT FOR UPDATE.
	// It must run inside a transaction; the lock serializes concurrent ratings
	// of the same card so no update is lost.
	// Returns ErrStudyCardNotFound if the verse is not in the learner's deck.
	GetForUpdate(ctx context.Context, userID, verseID uuid.UUID) (*domain.StudyCard, error)

	// Update writes the scheduling state of an existing card.
	// Returns ErrStudyCardNotFound if the card does not exist.
	Update(ctx context.Context, card *domain.StudyCard) error

	// ListDue returns at most limit cards with next_review_date <= today,
	// most overdue first, joined with the verse text needed to present them.
	// An empty deck yields an empty slice.
	ListDue(ctx context.Context, userID uuid.UUID, today time.Time, limit int) ([]*domain.DueItem, error)

	// CountCards returns the number of cards in the learner's deck.
	CountCards(ctx context.Context, userID uuid.UUID) (int, error)

	// CountDue returns the number of cards due on or before today.
	CountDue(ctx context.Context, userID uuid.UUID, today time.Time) (int, error)

	// CountReviewedSince returns the number of cards last reviewed at or after since.
	CountReviewedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// AddChapter creates a card, due today, for every verse of the chapter the
	// learner does not already study. Existing cards are left untouched.
	// A chapter without verses yields a zero result.
	AddChapter(ctx context.Context, userID, chapterID uuid.UUID, today, now time.Time) (ChapterAddResult, error)

	// WithTx returns a new StudyCardStore instance that uses the provided transaction.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       card, err := cards.WithTx(tx).GetForUpdate(ctx, userID, verseID)
	//       ...
	//   })
	WithTx(tx *sql.Tx) StudyCardStore
}
