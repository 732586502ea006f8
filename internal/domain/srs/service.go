package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Common errors
var (
	ErrNilCard        = errors.New("study card cannot be nil")
	ErrInvalidRating  = domain.ErrInvalidRating
	ErrInvalidToday   = errors.New("today must be a calendar date")
	ErrCardStateBroke = errors.New("study card scheduling state is invalid")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// CalculateNextReview computes the new schedule for a card after a rating.
	// today is the learner's calendar date; now is the review instant.
	CalculateNextReview(
		card *domain.StudyCard,
		rating domain.Rating,
		now time.Time,
		today time.Time,
	) (*domain.StudyCard, error)

	// Params returns a copy of the parameters the service schedules with.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface for calculating an updated card
func (s *defaultService) CalculateNextReview(
	card *domain.StudyCard,
	rating domain.Rating,
	now time.Time,
	today time.Time,
) (*domain.StudyCard, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if !rating.Valid() {
		return nil, ErrInvalidRating
	}

	if !today.Equal(domain.CalendarDate(today)) {
		return nil, ErrInvalidToday
	}

	if card.IntervalDays < 1 || card.Repetitions < 0 || card.EaseFactor < s.params.MinEaseFactor {
		return nil, ErrCardStateBroke
	}

	return calculateNextCard(card, rating, now, today, s.params), nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	cp := *s.params
	cp.EaseFactorAdjustment = make(map[domain.Rating]float64, len(s.params.EaseFactorAdjustment))
	for k, v := range s.params.EaseFactorAdjustment {
		cp.EaseFactorAdjustment[k] = v
	}
	return cp
}
