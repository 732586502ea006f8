package srs

import (
	"github.com/phrazzld/scry-study/internal/domain"
)

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Core limits. A MaxEaseFactor of zero means the ease factor is unbounded.
	MinEaseFactor float64
	MaxEaseFactor float64

	// Adjustments for different ratings
	EaseFactorAdjustment map[domain.Rating]float64

	// Interval multipliers applied on top of the current interval
	HardIntervalModifier float64
	EasyIntervalModifier float64

	// Special case handling
	AgainInterval     int
	FirstGoodInterval int

	// Number of decimal places kept on the stored ease factor
	EaseFactorPrecision int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Ease factor adjustments
	AgainEaseFactorAdjustment float64
	HardEaseFactorAdjustment  float64
	GoodEaseFactorAdjustment  float64
	EasyEaseFactorAdjustment  float64

	// Interval modifiers
	HardIntervalModifier float64
	EasyIntervalModifier float64

	// Special intervals
	AgainInterval     int
	FirstGoodInterval int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,
		MaxEaseFactor: 0,

		// Default ease factor adjustments
		EaseFactorAdjustment: map[domain.Rating]float64{
			domain.RatingAgain: -0.20,
			domain.RatingHard:  -0.15,
			domain.RatingGood:  0.0,
			domain.RatingEasy:  0.15,
		},

		HardIntervalModifier: 1.2, // Slight increase, ignores ease
		EasyIntervalModifier: 1.3, // On top of the ease factor

		// A failed verse comes back tomorrow; the first good recall waits four days
		AgainInterval:     1,
		FirstGoodInterval: 4,

		EaseFactorPrecision: 2,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Override core limits if provided
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	// Override ease factor adjustments if provided
	if config.AgainEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.RatingAgain] = config.AgainEaseFactorAdjustment
	}
	if config.HardEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.RatingHard] = config.HardEaseFactorAdjustment
	}
	if config.GoodEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.RatingGood] = config.GoodEaseFactorAdjustment
	}
	if config.EasyEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.RatingEasy] = config.EasyEaseFactorAdjustment
	}

	// Override interval modifiers if provided
	if config.HardIntervalModifier > 0 {
		params.HardIntervalModifier = config.HardIntervalModifier
	}
	if config.EasyIntervalModifier > 0 {
		params.EasyIntervalModifier = config.EasyIntervalModifier
	}

	// Override special intervals if provided
	if config.AgainInterval > 0 {
		params.AgainInterval = config.AgainInterval
	}
	if config.FirstGoodInterval > 0 {
		params.FirstGoodInterval = config.FirstGoodInterval
	}

	return params
}
