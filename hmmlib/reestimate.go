package hmmlib

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/zoobzio/capitan"
	"gonum.org/v1/gonum/floats"
)

// reestimate carries out the M-step.  The transition matrix and initial
// distribution are only replaced if every new value is finite and all of
// the density updates succeed.
func (hmm *ScaleHMM) reestimate(ctx context.Context) error {

	n := hmm.NState

	for st := 0; st < n; st++ {
		hmm.initWk[st] = hmm.gamma.At(st, 0)
	}

	hmm.transWk.Copy(hmm.trans)
	for st1 := 0; st1 < n; st1++ {

		if hmm.sumGamma[st1] == 0 {
			hmm.Warnings.DegenerateState++
			hmm.msglogger.Printf("Not reestimating A[%d][x] because sumgamma[%d] = 0", st1, st1)
			capitan.Emit(ctx, StateDegenerate,
				FieldRunID.Field(hmm.runID),
				FieldIteration.Field(hmm.iter),
				FieldState.Field(st1),
			)
			continue
		}

		row := hmm.transWk.RawRowView(st1)
		xi := hmm.sumXi.RawRowView(st1)
		for st2 := 0; st2 < n; st2++ {
			row[st2] = xi[st2] / hmm.sumGamma[st1]
			if !finite(row[st2]) {
				hmm.msglogger.Printf("A[%d][%d] = %v, sumxi = %v, sumgamma = %v",
					st1, st2, row[st2], xi[st2], hmm.sumGamma[st1])
				return &DivergenceError{
					Iteration: hmm.iter,
					Phase:     "reestimate",
					Time:      -1,
					State:     st1,
					Target:    st2,
					Value:     row[st2],
				}
			}
		}
	}

	if err := hmm.updateDensities(); err != nil {
		return err
	}

	hmm.trans.Copy(hmm.transWk)
	copy(hmm.init, hmm.initWk)

	return nil
}

// updateDensities refits each state's density from its posterior
// probabilities.  States with no posterior mass keep their parameters.
func (hmm *ScaleHMM) updateDensities() error {

	var mu sync.Mutex
	var result error

	hmm.forEachState(func(st int) {
		w := hmm.gamma.RawRowView(st)
		if floats.Sum(w) == 0 {
			return
		}
		if err := hmm.densities[st].Update(w); err != nil {
			mu.Lock()
			result = multierror.Append(result, fmt.Errorf("state %d: %w", st, err))
			mu.Unlock()
		}
	})

	if result != nil {
		return fmt.Errorf("hmmlib: density update at iteration %d: %w", hmm.iter, result)
	}

	return nil
}
