package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewStudyCard(t *testing.T) {
	userID := uuid.New()
	verseID := uuid.New()
	today := time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC)

	now := time.Date(2024, 3, 11, 0, 15, 0, 0, time.FixedZone("IST", 5*3600+30*60))

	card, err := NewStudyCard(userID, verseID, today, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected a generated card ID")
	}

	if card.EaseFactor != 2.5 {
		t.Errorf("Expected ease factor 2.5, got %f", card.EaseFactor)
	}

	if card.IntervalDays != 1 {
		t.Errorf("Expected interval 1, got %d", card.IntervalDays)
	}

	if card.Repetitions != 0 {
		t.Errorf("Expected repetitions 0, got %d", card.Repetitions)
	}

	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if !card.NextReviewDate.Equal(want) {
		t.Errorf("Expected next review date %v, got %v", want, card.NextReviewDate)
	}

	if !card.CreatedAt.Equal(now) || card.CreatedAt.Location() != time.UTC {
		t.Errorf("Expected created at %v in UTC, got %v", now, card.CreatedAt)
	}

	if !card.UpdatedAt.Equal(card.CreatedAt) {
		t.Errorf("Expected updated at to match created at, got %v", card.UpdatedAt)
	}

	if card.LastReviewedAt != nil {
		t.Errorf("Expected no last review, got %v", card.LastReviewedAt)
	}

	if !card.IsDue(today) {
		t.Error("Expected a new card to be due today")
	}

	if _, err := NewStudyCard(uuid.Nil, verseID, today, now); err != ErrEmptyCardUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyCardUserID, err)
	}

	if _, err := NewStudyCard(userID, uuid.Nil, today, now); err != ErrEmptyCardVerseID {
		t.Errorf("Expected error %v, got %v", ErrEmptyCardVerseID, err)
	}
}

func TestStudyCardValidate(t *testing.T) {
	valid := func() StudyCard {
		return StudyCard{
			ID:             uuid.New(),
			UserID:         uuid.New(),
			VerseID:        uuid.New(),
			EaseFactor:     2.5,
			IntervalDays:   1,
			NextReviewDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	tests := []struct {
		name   string
		mutate func(c *StudyCard)
		want   error
	}{
		{"valid", func(c *StudyCard) {}, nil},
		{"empty id", func(c *StudyCard) { c.ID = uuid.Nil }, ErrEmptyCardID},
		{"zero interval", func(c *StudyCard) { c.IntervalDays = 0 }, ErrInvalidInterval},
		{"ease below floor", func(c *StudyCard) { c.EaseFactor = 1.29 }, ErrInvalidEaseFactor},
		{"ease at floor", func(c *StudyCard) { c.EaseFactor = 1.3 }, nil},
		{"negative repetitions", func(c *StudyCard) { c.Repetitions = -1 }, ErrInvalidRepetitions},
		{"missing next review", func(c *StudyCard) { c.NextReviewDate = time.Time{} }, ErrEmptyNextReviewDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := valid()
			tc.mutate(&card)
			if err := card.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Expected error %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStudyCardIsDue(t *testing.T) {
	today := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		next time.Time
		want bool
	}{
		{"due today", time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), true},
		{"overdue", time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"due tomorrow", time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := StudyCard{NextReviewDate: tc.next}
			if got := card.IsDue(today); got != tc.want {
				t.Errorf("IsDue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCalendarDateIgnoresTimeOfDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	lateEvening := time.Date(2024, 7, 1, 23, 30, 0, 0, ist)

	got := CalendarDate(lateEvening)
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CalendarDate() = %v, want %v", got, want)
	}

	if d := DaysBetween(want, AddDays(want, 25)); d != 25 {
		t.Errorf("DaysBetween() = %d, want 25", d)
	}
}

func TestParseRating(t *testing.T) {
	for _, r := range Ratings {
		got, err := ParseRating(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRating(%q) = %q, %v", r, got, err)
		}
	}

	for _, bad := range []string{"", "Good", "perfect", "0"} {
		if _, err := ParseRating(bad); err != ErrInvalidRating {
			t.Errorf("ParseRating(%q) error = %v, want %v", bad, err, ErrInvalidRating)
		}
	}
}

func TestRatingIsCorrect(t *testing.T) {
	want := map[Rating]bool{
		RatingAgain: false,
		RatingHard:  false,
		RatingGood:  true,
		RatingEasy:  true,
	}
	for r, expected := range want {
		if r.IsCorrect() != expected {
			t.Errorf("%s.IsCorrect() = %v, want %v", r, r.IsCorrect(), expected)
		}
	}
}
