package hmmlib

import (
	"gonum.org/v1/gonum/floats"
)

// forward calculates the scaled forward variables and the scale factors.
// Each row of alpha sums to 1, and scale[t] is the sum of the unscaled
// forward variables at time t.
func (hmm *ScaleHMM) forward() error {

	n := hmm.NState
	bt := hmm.bwk
	a := hmm.awk

	// Initial time point
	hmm.dens.column(0, bt)
	floats.MulTo(a, hmm.init, bt)
	hmm.scale[0] = floats.Sum(a)
	if err := hmm.rescale(hmm.alpha.RawRowView(0), a, hmm.scale[0], "forward", 0); err != nil {
		return err
	}

	for t := 1; t < hmm.NTime; t++ {

		prev := hmm.alpha.RawRowView(t - 1)
		hmm.dens.column(t, bt)

		// Transition is from st2 at time t-1 to st1 at time t.
		for st1 := 0; st1 < n; st1++ {
			var u float64
			for st2 := 0; st2 < n; st2++ {
				u += prev[st2] * hmm.trans.At(st2, st1)
			}
			a[st1] = u * bt[st1]
		}

		hmm.scale[t] = floats.Sum(a)
		if err := hmm.rescale(hmm.alpha.RawRowView(t), a, hmm.scale[t], "forward", t); err != nil {
			return err
		}
	}

	return nil
}

// backward calculates the backward variables, scaled by the forward
// scale factors.
func (hmm *ScaleHMM) backward() error {

	n := hmm.NState
	bt := hmm.bwk
	b := hmm.awk

	last := hmm.NTime - 1
	for st := range b {
		b[st] = 1
	}
	if err := hmm.rescale(hmm.beta.RawRowView(last), b, hmm.scale[last], "backward", last); err != nil {
		return err
	}

	for t := last - 1; t >= 0; t-- {

		next := hmm.beta.RawRowView(t + 1)
		hmm.dens.column(t+1, bt)

		// From st1 at t to st2 at t+1
		for st1 := 0; st1 < n; st1++ {
			row := hmm.trans.RawRowView(st1)
			var u float64
			for st2 := 0; st2 < n; st2++ {
				u += row[st2] * bt[st2] * next[st2]
			}
			b[st1] = u
		}

		if err := hmm.rescale(hmm.beta.RawRowView(t), b, hmm.scale[t], "backward", t); err != nil {
			return err
		}
	}

	return nil
}

// rescale sets dst = src / c and checks that the result is finite.
func (hmm *ScaleHMM) rescale(dst, src []float64, c float64, phase string, t int) error {
	for st, v := range src {
		dst[st] = v / c
		if !finite(dst[st]) {
			hmm.msglogger.Printf("%s: non-finite value at t=%d, state=%d, scale=%v, density=%v",
				phase, t, st, c, hmm.dens.at(st, t))
			return &DivergenceError{
				Iteration: hmm.iter,
				Phase:     phase,
				Time:      t,
				State:     st,
				Target:    -1,
				Value:     dst[st],
			}
		}
	}
	return nil
}
