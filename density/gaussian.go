package density

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is a normal emission density.
type Gaussian struct {
	obs  []float64
	dist distuv.Normal
}

// NewGaussian returns a normal density over obs with the given mean and
// standard deviation.
func NewGaussian(obs []float64, mean, sd float64) (*Gaussian, error) {
	if !finite(mean) || !finite(sd) || sd <= 0 {
		return nil, fmt.Errorf("gaussian mean=%v, sd=%v: %w", mean, sd, ErrParameter)
	}
	return &Gaussian{
		obs:  obs,
		dist: distuv.Normal{Mu: mean, Sigma: sd},
	}, nil
}

// Evaluate writes the density of each observation into dst.
func (g *Gaussian) Evaluate(dst []float64) {
	for t, y := range g.obs {
		dst[t] = g.dist.Prob(y)
	}
}

// Update sets the mean and standard deviation to their weighted sample
// values.  The standard deviation is truncated below at 1e-8.
func (g *Gaussian) Update(weights []float64) error {

	mean, variance, err := weightedMoments(g.obs, weights)
	if err != nil {
		return err
	}

	sd := math.Sqrt(variance)
	if sd < sdmin {
		sd = sdmin
	}
	if !finite(mean) || !finite(sd) {
		return fmt.Errorf("gaussian update mean=%v, sd=%v: %w", mean, sd, ErrParameter)
	}

	g.dist.Mu = mean
	g.dist.Sigma = sd

	return nil
}

func (g *Gaussian) Mean() float64 {
	return g.dist.Mu
}

func (g *Gaussian) SD() float64 {
	return g.dist.Sigma
}

func (g *Gaussian) Variance() float64 {
	return g.dist.Sigma * g.dist.Sigma
}
