package hmmlib

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Viterbi returns the most probable state sequence under the current
// parameters.  The densities are evaluated afresh, so Viterbi can be
// called before or after BaumWelch.
func (hmm *ScaleHMM) Viterbi() ([]int, error) {

	if !hmm.transSet || !hmm.initSet {
		return nil, ErrNotInitialized
	}

	hmm.calcDensities()

	lpr := make([]float64, hmm.NTime*hmm.NState)
	lpt := make([]int, hmm.NTime*hmm.NState)
	hmm.reconstructionProbs(lpr, lpt)

	path := make([]int, hmm.NTime)
	hmm.traceback(lpr, lpt, path)

	return path, nil
}

// reconstructionProbs fills lpr with the log probability of the best path
// ending in each state at each time, and lpt with the best previous state.
func (hmm *ScaleHMM) reconstructionProbs(lpr []float64, lpt []int) {

	n := hmm.NState
	wk := make([]float64, n)

	for st := 0; st < n; st++ {
		lpr[st] = math.Log(hmm.dens.at(st, 0)) + math.Log(hmm.init[st])
	}

	for t := 1; t < hmm.NTime; t++ {

		j0 := (t - 1) * n
		j1 := t * n

		// From st1 to st2
		for st2 := 0; st2 < n; st2++ {
			for st1 := 0; st1 < n; st1++ {
				wk[st1] = lpr[j0+st1] + math.Log(hmm.trans.At(st1, st2))
			}

			// The best previous state
			jj := floats.MaxIdx(wk)
			lpt[j1+st2] = jj
			lpr[j1+st2] = wk[jj] + math.Log(hmm.dens.at(st2, t))
		}
	}
}

func (hmm *ScaleHMM) traceback(lpr []float64, lpt []int, y []int) {

	n := hmm.NState
	last := hmm.NTime - 1

	y[last] = floats.MaxIdx(lpr[last*n : (last+1)*n])
	for t := last - 1; t >= 0; t-- {
		y[t] = lpt[(t+1)*n+y[t+1]]
	}
}

// CallStates returns, for each time point, the state with the largest
// posterior probability from the most recent iteration.
func (hmm *ScaleHMM) CallStates() []int {

	states := make([]int, hmm.NTime)
	col := make([]float64, hmm.NState)
	for t := range states {
		for st := range col {
			col[st] = hmm.gamma.At(st, t)
		}
		states[t] = floats.MaxIdx(col)
	}

	return states
}
