package hmmlib

import (
	"gonum.org/v1/gonum/mat"
)

// Density is the emission distribution of one state.  Implementations
// hold a reference to the observed sequence.
type Density interface {

	// Evaluate writes the density of every observation into dst, which
	// has one element per time point.
	Evaluate(dst []float64)

	// Update refits the parameters using weights, the posterior
	// probability of the state at each time point.
	Update(weights []float64) error

	Mean() float64
	Variance() float64
}

// densityCache holds b_i(t) for the current iteration.
type densityCache struct {
	layout Layout

	// NState x NTime
	byState *mat.Dense

	// NTime x NState copy of byState, only allocated for TimeMajor
	byTime *mat.Dense
}

func newDensityCache(nstate, ntime int, layout Layout) densityCache {
	dc := densityCache{
		layout:  layout,
		byState: mat.NewDense(nstate, ntime, nil),
	}
	if layout == TimeMajor {
		dc.byTime = mat.NewDense(ntime, nstate, nil)
	}
	return dc
}

// row returns the storage for the densities of state i.
func (dc *densityCache) row(i int) []float64 {
	return dc.byState.RawRowView(i)
}

// sync refreshes the time-major mirror after the rows have been written.
func (dc *densityCache) sync() {
	if dc.byTime != nil {
		dc.byTime.Copy(dc.byState.T())
	}
}

// column writes b_i(t) for all states i into dst.
func (dc *densityCache) column(t int, dst []float64) {
	if dc.layout == TimeMajor {
		copy(dst, dc.byTime.RawRowView(t))
		return
	}
	mat.Col(dst, t, dc.byState)
}

// at returns b_i(t).
func (dc *densityCache) at(i, t int) float64 {
	if dc.layout == TimeMajor {
		return dc.byTime.At(t, i)
	}
	return dc.byState.At(i, t)
}

// calcDensities evaluates every state's density over the sequence.
func (hmm *ScaleHMM) calcDensities() {
	hmm.forEachState(func(i int) {
		hmm.densities[i].Evaluate(hmm.dens.row(i))
	})
	hmm.dens.sync()
}
