package study_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockStudyCardRepository is a mock implementation of the StudyCardRepository interface
type MockStudyCardRepository struct {
	mock.Mock
	db *sql.DB
}

func (m *MockStudyCardRepository) Create(ctx context.Context, card *domain.StudyCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockStudyCardRepository) Get(ctx context.Context, userID, verseID uuid.UUID) (*domain.StudyCard, error) {
	args := m.Called(ctx, userID, verseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudyCard), args.Error(1)
}

func (m *MockStudyCardRepository) GetForUpdate(
	ctx context.Context,
	userID, verseID uuid.UUID,
) (*domain.StudyCard, error) {
	args := m.Called(ctx, userID, verseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudyCard), args.Error(1)
}

func (m *MockStudyCardRepository) Update(ctx context.Context, card *domain.StudyCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockStudyCardRepository) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	today time.Time,
	limit int,
) ([]*domain.DueItem, error) {
	args := m.Called(ctx, userID, today, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DueItem), args.Error(1)
}

func (m *MockStudyCardRepository) CountCards(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStudyCardRepository) CountDue(ctx context.Context, userID uuid.UUID, today time.Time) (int, error) {
	args := m.Called(ctx, userID, today)
	return args.Int(0), args.Error(1)
}

func (m *MockStudyCardRepository) CountReviewedSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockStudyCardRepository) AddChapter(
	ctx context.Context,
	userID, chapterID uuid.UUID,
	today, now time.Time,
) (store.ChapterAddResult, error) {
	args := m.Called(ctx, userID, chapterID, today, now)
	return args.Get(0).(store.ChapterAddResult), args.Error(1)
}

// WithTx returns the same mock so expectations set on it apply inside transactions.
func (m *MockStudyCardRepository) WithTx(*sql.Tx) study.StudyCardRepository {
	return m
}

func (m *MockStudyCardRepository) DB() *sql.DB {
	return m.db
}

// MockSessionStore is a mock implementation of the store.SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, summary *domain.SessionSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSessionStore) DailyStats(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
) (domain.DailyStats, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(domain.DailyStats), args.Error(1)
}

func (m *MockSessionStore) SessionDates(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]time.Time, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockSessionStore) WithTx(*sql.Tx) store.SessionStore {
	return m
}

// MockTallyStore is a mock implementation of the store.SessionTallyStore interface
type MockTallyStore struct {
	mock.Mock
}

func (m *MockTallyStore) Create(ctx context.Context, tally *domain.SessionTally) error {
	args := m.Called(ctx, tally)
	return args.Error(0)
}

func (m *MockTallyStore) Get(ctx context.Context, sessionID uuid.UUID) (*domain.SessionTally, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionTally), args.Error(1)
}

func (m *MockTallyStore) Increment(ctx context.Context, sessionID uuid.UUID, wasCorrect bool) error {
	args := m.Called(ctx, sessionID, wasCorrect)
	return args.Error(0)
}

func (m *MockTallyStore) Take(ctx context.Context, sessionID uuid.UUID) (*domain.SessionTally, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionTally), args.Error(1)
}
