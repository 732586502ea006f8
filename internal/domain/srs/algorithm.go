package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// State is the part of a study card the scheduler reads and writes.
type State struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
}

// StateOf extracts the scheduling state from a card.
func StateOf(card *domain.StudyCard) State {
	return State{
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
		Repetitions:  card.Repetitions,
	}
}

// Schedule computes the next scheduling state for a rating.
//
// It is a pure function over a valid state (ease >= params.MinEaseFactor,
// interval >= 1, repetitions >= 0) and a valid rating. Callers reject
// invalid ratings first; an unknown rating leaves the state unchanged.
//
// Algorithm behavior:
//   - "Again": repetitions reset to 0, interval back to params.AgainInterval, ease -0.20
//   - "Hard":  repetitions +1, interval * 1.2 (at least 1 day), ease -0.15
//   - "Good":  repetitions +1, params.FirstGoodInterval on the first repetition,
//     otherwise interval * ease; ease unchanged
//   - "Easy":  repetitions +1, interval * ease * 1.3, ease +0.15
//
// "Easy" is never sooner than "Good" once a card has been recalled at least
// once. On a new or lapsed card "Good" jumps to params.FirstGoodInterval,
// which can be later than "Easy".
//
// Intervals always round up to whole days. Ease decreases stop at the floor
// and the result is rounded to params.EaseFactorPrecision decimals.
func Schedule(state State, rating domain.Rating, params *Params) State {
	next := state

	switch rating {
	case domain.RatingAgain:
		next.Repetitions = 0
		next.IntervalDays = params.AgainInterval

	case domain.RatingHard:
		next.Repetitions = state.Repetitions + 1
		next.IntervalDays = ceilDays(float64(state.IntervalDays) * params.HardIntervalModifier)

	case domain.RatingGood:
		next.Repetitions = state.Repetitions + 1
		next.IntervalDays = goodInterval(state, next.Repetitions, params)

	case domain.RatingEasy:
		next.Repetitions = state.Repetitions + 1
		next.IntervalDays = ceilDays(float64(state.IntervalDays) * state.EaseFactor * params.EasyIntervalModifier)

	default:
		return state
	}

	next.EaseFactor = calculateNewEaseFactor(state.EaseFactor, rating, params)
	return next
}

// goodInterval is the interval a "Good" rating produces.
func goodInterval(state State, repetitions int, params *Params) int {
	if repetitions == 1 {
		return params.FirstGoodInterval
	}
	return ceilDays(float64(state.IntervalDays) * state.EaseFactor)
}

// calculateNewEaseFactor applies the rating's adjustment, clamps the result
// to the configured limits and rounds it to the stored precision.
func calculateNewEaseFactor(currentEF float64, rating domain.Rating, params *Params) float64 {
	newEF := roundTo(currentEF+params.EaseFactorAdjustment[rating], params.EaseFactorPrecision)

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if params.MaxEaseFactor > 0 && newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// ceilDays rounds a fractional interval up to whole days, never below one.
// The product is snapped to 1e-6 first: ease factors carry two decimals, so
// any residue beyond that is float representation error (10 * 2.3 must be 23).
func ceilDays(days float64) int {
	snapped := math.Round(days*1e6) / 1e6
	return max(1, int(math.Ceil(snapped)))
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// calculateNextCard creates a new StudyCard with the updated schedule.
//
// The original card is not modified. The next review date is derived from
// the new interval counted from today's calendar date; the card's
// LastReviewedAt and UpdatedAt become now.
func calculateNextCard(
	card *domain.StudyCard,
	rating domain.Rating,
	now time.Time,
	today time.Time,
	params *Params,
) *domain.StudyCard {
	next := Schedule(StateOf(card), rating, params)
	reviewedAt := now.UTC()

	return &domain.StudyCard{
		ID:             card.ID,
		UserID:         card.UserID,
		VerseID:        card.VerseID,
		EaseFactor:     next.EaseFactor,
		IntervalDays:   next.IntervalDays,
		Repetitions:    next.Repetitions,
		NextReviewDate: domain.AddDays(today, next.IntervalDays),
		LastReviewedAt: &reviewedAt,
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      reviewedAt,
	}
}
