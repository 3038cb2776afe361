// Package hmmsim simulates state and observation sequences from a hidden
// Markov model, and reads and writes simulated datasets.
package hmmsim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrProbability is returned when a probability vector is invalid.
	ErrProbability = errors.New("hmmsim: not a probability vector")

	// ErrDimension is returned for inconsistent sizes.
	ErrDimension = errors.New("hmmsim: dimension mismatch")
)

// Generate a discrete random variable from the given probability vector,
// which must sum to 1.
func genDiscrete(pr []float64, rng *rand.Rand) int {

	u := rng.Float64()
	p := 0.0
	for j := range pr {
		p += pr[j]
		if u < p {
			return j
		}
	}

	// Rounding can leave u just above the cumulative sum
	return len(pr) - 1
}

func checkProb(pr []float64) error {
	for _, v := range pr {
		if v < 0 || math.IsNaN(v) {
			return ErrProbability
		}
	}
	if math.Abs(floats.Sum(pr)-1) > 1e-8 {
		return ErrProbability
	}
	return nil
}

// GenStates generates a random state sequence of length ntime from the
// Markov chain with the given row-major transition matrix and initial
// distribution.
func GenStates(trans, init []float64, ntime int, rng *rand.Rand) ([]int, error) {

	nstate := len(init)
	if nstate == 0 || len(trans) != nstate*nstate || ntime < 1 {
		return nil, fmt.Errorf("%d states, transition length %d, ntime %d: %w",
			nstate, len(trans), ntime, ErrDimension)
	}
	if err := checkProb(init); err != nil {
		return nil, fmt.Errorf("initial distribution: %w", err)
	}
	for i := 0; i < nstate; i++ {
		if err := checkProb(trans[i*nstate : (i+1)*nstate]); err != nil {
			return nil, fmt.Errorf("transition row %d: %w", i, err)
		}
	}

	state := make([]int, ntime)
	state[0] = genDiscrete(init, rng)
	for t := 1; t < ntime; t++ {
		st := state[t-1]
		state[t] = genDiscrete(trans[st*nstate:(st+1)*nstate], rng)
	}

	return state, nil
}

// GenObs generates an observation for each time point from the
// distribution of the state occupied at that time.
func GenObs(state []int, dists []distuv.Rander) ([]float64, error) {

	obs := make([]float64, len(state))
	for t, st := range state {
		if st < 0 || st >= len(dists) {
			return nil, fmt.Errorf("state %d at t=%d with %d distributions: %w", st, t, len(dists), ErrDimension)
		}
		obs[t] = dists[st].Rand()
	}

	return obs, nil
}

// Tweedie generates compound Poisson-gamma values with mean Mean and
// variance Dispersion * Mean^Power, 1 < Power < 2.
type Tweedie struct {
	Mean       float64
	Power      float64
	Dispersion float64
	Src        rand.Source
}

// Rand returns a Poisson sum of gamma variables.
func (tw Tweedie) Rand() float64 {

	p := tw.Power
	lam := math.Pow(tw.Mean, 2-p) / ((2 - p) * tw.Dispersion)
	alp := (2 - p) / (p - 1)
	bet := math.Pow(tw.Mean, 1-p) / ((p - 1) * tw.Dispersion)

	n := distuv.Poisson{Lambda: lam, Src: tw.Src}.Rand()
	g := distuv.Gamma{Alpha: alp, Beta: bet, Src: tw.Src}

	var z float64
	for k := 0; k < int(n); k++ {
		z += g.Rand()
	}

	return z
}

// NegativeBinomial generates counts as a gamma mixture of Poisson
// variables, with Size successes and success probability Prob.
type NegativeBinomial struct {
	Size float64
	Prob float64
	Src  rand.Source
}

func (nb NegativeBinomial) Rand() float64 {
	lam := distuv.Gamma{Alpha: nb.Size, Beta: nb.Prob / (1 - nb.Prob), Src: nb.Src}.Rand()
	if lam <= 0 {
		return 0
	}
	return distuv.Poisson{Lambda: lam, Src: nb.Src}.Rand()
}

// CompareStates returns the number of positions where the state
// sequences x and y disagree, and the number of positions compared.
func CompareStates(x, y []int) (int, int, error) {

	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("lengths %d and %d: %w", len(x), len(y), ErrDimension)
	}

	var e int
	for t := range x {
		if x[t] != y[t] {
			e++
		}
	}

	return e, len(x), nil
}
