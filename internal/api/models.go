package api

import (
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// RateRequest defines the payload for rating a verse review.
type RateRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again hard good easy"`

	// SessionID optionally counts the review in an open study session.
	SessionID *string `json:"session_id,omitempty" validate:"omitempty,uuid"`
}

// RecordReviewRequest defines the payload for counting a review in a session
// without rescheduling a card.
type RecordReviewRequest struct {
	WasCorrect *bool `json:"was_correct" validate:"required"`
}

// FinalizeSessionRequest defines the optional payload for finalizing a session.
// A missing duration is derived from the session start time.
type FinalizeSessionRequest struct {
	DurationMinutes *int `json:"duration_minutes,omitempty"`
}

// DueItemsResponse lists the cards due for review.
type DueItemsResponse struct {
	Items []*domain.DueItem `json:"items"`
	Count int               `json:"count"`
}

// AddToDeckResponse reports the outcome of adding a verse.
type AddToDeckResponse struct {
	Card  *domain.StudyCard `json:"card"`
	Added bool              `json:"added"`
}

// DailyStatsResponse is the learner's study activity for today.
type DailyStatsResponse struct {
	Date            string `json:"date"`
	CardsStudied    int    `json:"cards_studied"`
	CardsCorrect    int    `json:"cards_correct"`
	Minutes         int    `json:"minutes"`
	Sessions        int    `json:"sessions"`
	AccuracyPercent int    `json:"accuracy_percent"`
}

// SessionResponse describes an open study session.
type SessionResponse struct {
	ID        string    `json:"id"`
	Studied   int       `json:"studied"`
	Correct   int       `json:"correct"`
	StartedAt time.Time `json:"started_at"`
}

func dailyStatsToResponse(stats domain.DailyStats) DailyStatsResponse {
	return DailyStatsResponse{
		Date:            stats.Date.Format(time.DateOnly),
		CardsStudied:    stats.CardsStudied,
		CardsCorrect:    stats.CardsCorrect,
		Minutes:         stats.Minutes,
		Sessions:        stats.SessionsCount,
		AccuracyPercent: stats.AccuracyPercent(),
	}
}

func sessionToResponse(tally *domain.SessionTally) SessionResponse {
	return SessionResponse{
		ID:        tally.ID.String(),
		Studied:   tally.Studied,
		Correct:   tally.Correct,
		StartedAt: tally.StartedAt,
	}
}
