// Package density provides emission densities for hmmlib.  Each density
// holds a reference to the observed sequence and is refit from the
// posterior state probabilities at every iteration.
package density

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// Lower bound for means of count densities
	minMean = 1e-8

	// Lower bound for standard deviations
	sdmin = 1e-8
)

var (
	// ErrZeroWeight is returned by Update when the weights sum to zero.
	// The parameters are not changed.
	ErrZeroWeight = errors.New("density: weights sum to zero")

	// ErrParameter is returned when a parameter is out of range.
	ErrParameter = errors.New("density: parameter out of range")

	// ErrLength is returned when the weights and observations have
	// different lengths.
	ErrLength = errors.New("density: weights and observations differ in length")
)

// lgamma returns the log of the gamma function for a positive argument.
func lgamma(x float64) float64 {
	u, _ := math.Lgamma(x)
	return u
}

// weightedMoments returns the weighted mean and variance of obs.
func weightedMoments(obs, weights []float64) (mean, variance float64, err error) {

	if len(weights) != len(obs) {
		return 0, 0, ErrLength
	}
	if floats.Sum(weights) <= 0 {
		return 0, 0, ErrZeroWeight
	}

	mean = stat.Mean(obs, weights)
	variance = stat.MomentAbout(2, obs, mean, weights)

	return mean, variance, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
