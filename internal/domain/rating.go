package domain

// Rating is the learner's self-reported recall quality for one review.
// The four tiers are ordered from weakest to strongest.
type Rating string

// Possible rating values
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// Ratings lists every rating tier from weakest to strongest.
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// ParseRating converts a string into a Rating.
// Returns ErrInvalidRating for anything outside the closed set.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.Valid() {
		return "", ErrInvalidRating
	}
	return r, nil
}

// Valid reports whether r is one of the four rating tiers.
func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// IsCorrect reports whether the rating counts as a correct answer for
// accuracy statistics. Only good and easy count; hard is recorded as
// incorrect even though the verse was remembered.
func (r Rating) IsCorrect() bool {
	return r == RatingGood || r == RatingEasy
}
