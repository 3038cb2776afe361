package density

import (
	"fmt"
	"math"
)

// NegativeBinomial is an overdispersed count density, the number of
// failures before Size successes with success probability Prob.
// Observations are rounded to the nearest integer.
type NegativeBinomial struct {
	obs  []float64
	size float64
	prob float64
}

// NewNegativeBinomial returns a negative binomial density over obs.
func NewNegativeBinomial(obs []float64, size, prob float64) (*NegativeBinomial, error) {
	if !finite(size) || size <= 0 {
		return nil, fmt.Errorf("negative binomial size=%v: %w", size, ErrParameter)
	}
	if !(prob > 0 && prob < 1) {
		return nil, fmt.Errorf("negative binomial prob=%v: %w", prob, ErrParameter)
	}
	return &NegativeBinomial{
		obs:  obs,
		size: size,
		prob: prob,
	}, nil
}

func (nb *NegativeBinomial) Evaluate(dst []float64) {

	// Terms that do not depend on the observation
	c := nb.size*math.Log(nb.prob) - lgamma(nb.size)
	lq := math.Log1p(-nb.prob)

	for t, y := range nb.obs {
		k := math.Round(y)
		if k < 0 {
			dst[t] = 0
			continue
		}
		dst[t] = math.Exp(c + lgamma(k+nb.size) - lgamma(k+1) + k*lq)
	}
}

// Update matches the mean and variance to their weighted sample values.
// The distribution cannot represent a variance at or below the mean, and
// in that case the parameters are left unchanged.
func (nb *NegativeBinomial) Update(weights []float64) error {

	mean, variance, err := weightedMoments(nb.obs, weights)
	if err != nil {
		return err
	}
	if mean < minMean || variance <= mean {
		return nil
	}

	prob := mean / variance
	size := mean * mean / (variance - mean)
	if !finite(size) || !(prob > 0 && prob < 1) {
		return fmt.Errorf("negative binomial update size=%v, prob=%v: %w", size, prob, ErrParameter)
	}

	nb.size = size
	nb.prob = prob

	return nil
}

func (nb *NegativeBinomial) Mean() float64 {
	return nb.size * (1 - nb.prob) / nb.prob
}

func (nb *NegativeBinomial) Variance() float64 {
	return nb.size * (1 - nb.prob) / (nb.prob * nb.prob)
}

func (nb *NegativeBinomial) Size() float64 {
	return nb.size
}

func (nb *NegativeBinomial) Prob() float64 {
	return nb.prob
}
