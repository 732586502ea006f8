package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Default scheduling state for a newly added study card.
const (
	DefaultEaseFactor   = 2.5
	DefaultIntervalDays = 1
	MinEaseFactor       = 1.3
)

// Validation errors for StudyCard
var (
	ErrEmptyCardID         = errors.New("study card ID cannot be empty")
	ErrEmptyCardUserID     = errors.New("study card user ID cannot be empty")
	ErrEmptyCardVerseID    = errors.New("study card verse ID cannot be empty")
	ErrInvalidInterval     = errors.New("interval must be at least 1 day")
	ErrInvalidEaseFactor   = errors.New("ease factor must be at least 1.3")
	ErrInvalidRepetitions  = errors.New("repetitions cannot be negative")
	ErrEmptyNextReviewDate = errors.New("next review date cannot be empty")
)

// StudyCard is the review record for one (learner, verse) pair.
// It holds the current spaced repetition scheduling state.
type StudyCard struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	VerseID        uuid.UUID  `json:"verse_id"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"review_interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate time.Time  `json:"next_review_date"` // calendar date, midnight UTC
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewStudyCard creates a card for a verse the learner just added to their deck.
// The card is due on today's date; now stamps its creation.
func NewStudyCard(userID, verseID uuid.UUID, today, now time.Time) (*StudyCard, error) {
	now = now.UTC()
	card := &StudyCard{
		ID:             uuid.New(),
		UserID:         userID,
		VerseID:        verseID,
		EaseFactor:     DefaultEaseFactor,
		IntervalDays:   DefaultIntervalDays,
		Repetitions:    0,
		NextReviewDate: CalendarDate(today),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the scheduling invariants of the card.
func (c *StudyCard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCardID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyCardUserID
	}

	if c.VerseID == uuid.Nil {
		return ErrEmptyCardVerseID
	}

	if c.IntervalDays < 1 {
		return ErrInvalidInterval
	}

	if c.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if c.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	if c.NextReviewDate.IsZero() {
		return ErrEmptyNextReviewDate
	}

	return nil
}

// IsDue reports whether the card should be reviewed on the given day.
func (c *StudyCard) IsDue(today time.Time) bool {
	return !CalendarDate(today).Before(CalendarDate(c.NextReviewDate))
}

// DueItem is a due study card joined with the verse text needed to present it.
type DueItem struct {
	CardID             uuid.UUID `json:"card_id"`
	VerseID            uuid.UUID `json:"verse_id"`
	VerseNumber        int       `json:"verse_number"`
	SanskritText       string    `json:"sanskrit_text"`
	Transliteration    string    `json:"transliteration"`
	EnglishTranslation string    `json:"english_translation"`
	ChapterNumber      int       `json:"chapter_number"`
	ChapterTitle       string    `json:"chapter_title"`
	ScriptureName      string    `json:"scripture_name"`
	EaseFactor         float64   `json:"ease_factor"`
	IntervalDays       int       `json:"review_interval"`
	Repetitions        int       `json:"repetitions"`
	NextReviewDate     time.Time `json:"next_review_date"`
}
