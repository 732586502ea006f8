package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Validation errors for study sessions
var (
	ErrEmptySessionID       = errors.New("session ID cannot be empty")
	ErrEmptySessionUserID   = errors.New("session user ID cannot be empty")
	ErrNegativeSessionCount = errors.New("session counts cannot be negative")
	ErrCorrectExceedsTotal  = errors.New("correct count cannot exceed studied count")
	ErrNegativeDuration     = errors.New("session duration cannot be negative")
)

// SessionSummary is one persisted row per finalized study session.
// Several summaries can exist for the same learner and day; daily totals
// are their sum.
type SessionSummary struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	CardsStudied    int       `json:"cards_studied"`
	CardsCorrect    int       `json:"cards_correct"`
	DurationMinutes int       `json:"session_duration_minutes"`
	SessionDate     time.Time `json:"session_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the summary counts.
func (s *SessionSummary) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}
	if s.UserID == uuid.Nil {
		return ErrEmptySessionUserID
	}
	if s.CardsStudied < 0 || s.CardsCorrect < 0 {
		return ErrNegativeSessionCount
	}
	if s.CardsCorrect > s.CardsStudied {
		return ErrCorrectExceedsTotal
	}
	if s.DurationMinutes < 0 {
		return ErrNegativeDuration
	}
	return nil
}

// SessionTally accumulates the reviews of one in-progress study session.
// Each browser tab or device gets its own tally, so concurrent sessions never
// share counters; they only meet as separate summary rows.
type SessionTally struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Studied   int       `json:"studied"`
	Correct   int       `json:"correct"`
	StartedAt time.Time `json:"started_at"`
}

// NewSessionTally starts an empty tally for the learner.
func NewSessionTally(userID uuid.UUID, now time.Time) (*SessionTally, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptySessionUserID
	}
	return &SessionTally{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: now.UTC(),
	}, nil
}

// Record counts one review.
func (t *SessionTally) Record(wasCorrect bool) {
	t.Studied++
	if wasCorrect {
		t.Correct++
	}
}

// ElapsedMinutes returns the session length rounded to the nearest minute.
func (t *SessionTally) ElapsedMinutes(now time.Time) int {
	elapsed := now.Sub(t.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return int(math.Round(elapsed.Minutes()))
}

// Summarize turns the tally into a summary row for the given day.
func (t *SessionTally) Summarize(durationMinutes int, day time.Time, now time.Time) (*SessionSummary, error) {
	summary := &SessionSummary{
		ID:              uuid.New(),
		UserID:          t.UserID,
		CardsStudied:    t.Studied,
		CardsCorrect:    t.Correct,
		DurationMinutes: durationMinutes,
		SessionDate:     CalendarDate(day),
		CreatedAt:       now.UTC(),
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return summary, nil
}

// DailyStats is the sum of all of a learner's session summaries for one day.
type DailyStats struct {
	Date          time.Time `json:"date"`
	CardsStudied  int       `json:"cards_studied"`
	CardsCorrect  int       `json:"cards_correct"`
	Minutes       int       `json:"minutes"`
	SessionsCount int       `json:"sessions"`
}

// AccuracyPercent returns correct/studied as a whole percentage, 0 when
// nothing was studied.
func (d DailyStats) AccuracyPercent() int {
	if d.CardsStudied == 0 {
		return 0
	}
	return int(math.Round(float64(d.CardsCorrect) / float64(d.CardsStudied) * 100))
}

// Progress is the study overview shown on the study page and the dashboard.
type Progress struct {
	TotalCards       int        `json:"total_cards"`
	DueCards         int        `json:"due_cards"`
	Today            DailyStats `json:"today"`
	AccuracyPercent  int        `json:"accuracy_percent"`
	ReviewedThisWeek int        `json:"reviewed_this_week"`
	StreakDays       int        `json:"streak_days"`
}

// StreakDays counts consecutive study days ending today. A streak that ended
// yesterday is still alive until today is over, so it is counted from
// yesterday when there is no session yet today. sessionDates must be sorted
// newest first and contain each date once.
func StreakDays(sessionDates []time.Time, today time.Time) int {
	if len(sessionDates) == 0 {
		return 0
	}

	expected := CalendarDate(today)
	first := CalendarDate(sessionDates[0])
	if first.Before(expected) {
		expected = AddDays(expected, -1)
	}

	streak := 0
	for _, d := range sessionDates {
		day := CalendarDate(d)
		if day.After(expected) {
			continue
		}
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = AddDays(expected, -1)
	}
	return streak
}
