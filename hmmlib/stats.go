package hmmlib

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// calcLogLike sets logP to the sum of the log scale factors, which is the
// log-likelihood of the sequence under the current parameters.
func (hmm *ScaleHMM) calcLogLike() {
	var lp float64
	for _, c := range hmm.scale {
		lp += math.Log(c)
	}
	hmm.logP = lp
}

// calcSumGamma calculates the posterior state probabilities and their
// sums over all but the final time point.
func (hmm *ScaleHMM) calcSumGamma() {

	hmm.forEachState(func(st int) {
		g := hmm.gamma.RawRowView(st)
		for t := range g {
			g[t] = hmm.alpha.At(t, st) * hmm.beta.At(t, st) * hmm.scale[t]
		}

		// Transitions out of the last time point do not exist
		hmm.sumGamma[st] = floats.Sum(g[:hmm.NTime-1])
	})
}

// calcSumXi accumulates the expected number of transitions between each
// pair of states.
func (hmm *ScaleHMM) calcSumXi() {

	n := hmm.NState

	hmm.forEachState(func(st1 int) {
		xi := hmm.sumXi.RawRowView(st1)
		zero(xi)
		row := hmm.trans.RawRowView(st1)

		for t := 0; t < hmm.NTime-1; t++ {
			a := hmm.alpha.At(t, st1)
			next := hmm.beta.RawRowView(t + 1)
			for st2 := 0; st2 < n; st2++ {
				xi[st2] += a * row[st2] * hmm.dens.at(st2, t+1) * next[st2]
			}
		}
	})
}

// calcDiagnostics compares the posteriors with those from the previous
// iteration.  stateFlips counts the time points at which the hard
// assignment to the reference state changed, and postDist is the L1
// distance between the two posterior matrices.  The values are reported
// but play no part in the stopping rule.
func (hmm *ScaleHMM) calcDiagnostics() {

	ref := hmm.cfg.ReferenceState
	cur := hmm.gamma.RawRowView(ref)
	old := hmm.gammaOld.RawRowView(ref)

	var flips int
	for t := range cur {
		if (cur[t] > flipThreshold) != (old[t] > flipThreshold) {
			flips++
		}
	}
	hmm.stateFlips = flips

	var dist float64
	for st := 0; st < hmm.NState; st++ {
		dist += floats.Distance(hmm.gamma.RawRowView(st), hmm.gammaOld.RawRowView(st), 1)
	}
	hmm.postDist = dist

	hmm.gammaOld.Copy(hmm.gamma)
}

// Zero the elements of x
func zero(x []float64) {
	for j := range x {
		x[j] = 0
	}
}
