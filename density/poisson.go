package density

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Poisson is a count emission density.  Observations are rounded to the
// nearest integer before evaluation; negative observations have density
// zero.
type Poisson struct {
	obs  []float64
	dist distuv.Poisson
}

// NewPoisson returns a Poisson density over obs with mean lambda.
func NewPoisson(obs []float64, lambda float64) (*Poisson, error) {
	if !finite(lambda) || lambda <= 0 {
		return nil, fmt.Errorf("poisson lambda=%v: %w", lambda, ErrParameter)
	}
	return &Poisson{
		obs:  obs,
		dist: distuv.Poisson{Lambda: lambda},
	}, nil
}

func (p *Poisson) Evaluate(dst []float64) {
	for t, y := range p.obs {
		dst[t] = p.dist.Prob(math.Round(y))
	}
}

// Update sets the mean to the weighted sample mean, truncated below
// at 1e-8.
func (p *Poisson) Update(weights []float64) error {

	mean, _, err := weightedMoments(p.obs, weights)
	if err != nil {
		return err
	}

	if mean < minMean {
		mean = minMean
	}
	if !finite(mean) {
		return fmt.Errorf("poisson update lambda=%v: %w", mean, ErrParameter)
	}
	p.dist.Lambda = mean

	return nil
}

func (p *Poisson) Mean() float64 {
	return p.dist.Lambda
}

func (p *Poisson) Variance() float64 {
	return p.dist.Lambda
}
