package study

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

// StudyCardRepository defines the card storage the service needs, plus
// access to the database for transactions.
type StudyCardRepository interface {
	Create(ctx context.Context, card *domain.StudyCard) error
	Get(ctx context.Context, userID, verseID uuid.UUID) (*domain.StudyCard, error)
	GetForUpdate(ctx context.Context, userID, verseID uuid.UUID) (*domain.StudyCard, error)
	Update(ctx context.Context, card *domain.StudyCard) error
	ListDue(ctx context.Context, userID uuid.UUID, today time.Time, limit int) ([]*domain.DueItem, error)
	CountCards(ctx context.Context, userID uuid.UUID) (int, error)
	CountDue(ctx context.Context, userID uuid.UUID, today time.Time) (int, error)
	CountReviewedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	AddChapter(ctx context.Context, userID, chapterID uuid.UUID, today, now time.Time) (store.ChapterAddResult, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) StudyCardRepository

	// DB returns the underlying database connection.
	DB() *sql.DB
}

// NewStudyCardRepositoryAdapter creates a new adapter that allows a
// store.StudyCardStore to be used where a StudyCardRepository is expected.
func NewStudyCardRepositoryAdapter(cardStore store.StudyCardStore, db *sql.DB) StudyCardRepository {
	return &studyCardRepositoryAdapter{
		StudyCardStore: cardStore,
		db:             db,
	}
}

// studyCardRepositoryAdapter adapts a store.StudyCardStore to the StudyCardRepository interface
type studyCardRepositoryAdapter struct {
	store.StudyCardStore
	db *sql.DB
}

// WithTx implements StudyCardRepository.WithTx
func (a *studyCardRepositoryAdapter) WithTx(tx *sql.Tx) StudyCardRepository {
	return &studyCardRepositoryAdapter{
		StudyCardStore: a.StudyCardStore.WithTx(tx),
		db:             a.db,
	}
}

// DB implements StudyCardRepository.DB
func (a *studyCardRepositoryAdapter) DB() *sql.DB {
	return a.db
}
