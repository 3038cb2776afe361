package hmmlib

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Status describes how a call to BaumWelch ended.
type Status uint8

// Running is only observed while a fit is in progress.
const (
	Running Status = iota
	Converged
	IterationLimit
	TimeLimit
	Diverged
	Cancelled
	Failed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case IterationLimit:
		return "iteration-limit"
	case TimeLimit:
		return "time-limit"
	case Diverged:
		return "diverged"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Limits are the stopping criteria of BaumWelch.
type Limits struct {

	// Maximum number of iterations; negative for no limit
	MaxIter int

	// Maximum wall time, checked once per iteration; negative for no limit
	MaxTime time.Duration

	// The fit has converged when the absolute change in log-likelihood
	// between two iterations is below Eps.
	Eps float64
}

// Result reports the outcome of BaumWelch.
type Result struct {
	Iterations int
	Elapsed    time.Duration

	// Change in log-likelihood in the last completed iteration
	DeltaLogP float64

	// Log-likelihood in the last completed iteration
	LogP float64

	Status Status

	// Identifies the signals emitted during the fit
	RunID string
}

// BaumWelch estimates the transition matrix, initial distribution and
// emission densities by EM.  InitTransition and InitProba must be called
// first.
//
// The context is checked between the phases of each iteration.  When it
// is cancelled, or a value diverges, the parameters from the last complete
// iteration are kept and the returned Result describes the progress made.
// If a density update fails, the transition matrix and initial
// distribution are left as they were before the failing iteration, while
// the densities that did update keep their new parameters.
//
// Config.Realign is called only when the fit ends without error.
func (hmm *ScaleHMM) BaumWelch(ctx context.Context, lim Limits) (Result, error) {

	res := Result{
		RunID:     uuid.New().String(),
		Status:    Running,
		LogP:      negInf,
		DeltaLogP: posInf,
	}

	if !hmm.transSet || !hmm.initSet {
		res.Status = Failed
		return res, ErrNotInitialized
	}

	hmm.runID = res.RunID
	hmm.iter = 0
	hmm.LLF = hmm.LLF[:0]
	hmm.resetDiagnostics()

	start := time.Now()
	logPold := negInf

	capitan.Emit(ctx, FitStarted,
		FieldRunID.Field(res.RunID),
		FieldNState.Field(hmm.NState),
		FieldNTime.Field(hmm.NTime),
	)
	hmm.msglogger.Printf("Estimating model parameters...")
	hmm.dumpParameters(ctx, "Initial parameters:")
	hmm.printIteration(0, 0)

	var err error
	var elapsed time.Duration
	iter := 0

	for (elapsed < lim.MaxTime || lim.MaxTime < 0) && (iter < lim.MaxIter || lim.MaxIter < 0) {

		iter++
		hmm.iter = iter

		if err = hmm.expectation(ctx); err != nil {
			break
		}

		hmm.dlogP = hmm.logP - logPold
		elapsed = time.Since(start)
		hmm.report(ctx, iter, elapsed)

		res.Iterations = iter
		res.LogP = hmm.logP
		res.DeltaLogP = hmm.dlogP

		if math.Abs(hmm.dlogP) < lim.Eps {
			hmm.msglogger.Printf("Convergence reached at iteration %d", iter)
			res.Status = Converged
			hmm.realign()
			break
		}

		if iter == lim.MaxIter {
			hmm.msglogger.Printf("Maximum number of iterations reached")
			res.Status = IterationLimit
		} else if lim.MaxTime >= 0 && elapsed >= lim.MaxTime {
			hmm.msglogger.Printf("Exceeded maximum time")
			res.Status = TimeLimit
		}
		logPold = hmm.logP

		if err = hmm.reestimate(ctx); err != nil {
			break
		}
		if err = checkpoint(ctx, "reestimate"); err != nil {
			break
		}

		// A limit was reached and the last reestimation succeeded.
		if res.Status != Running {
			hmm.realign()
		}

		if hmm.cfg.DumpEvery > 0 && iter%hmm.cfg.DumpEvery == 0 {
			hmm.dumpParameters(ctx, fmt.Sprintf("Parameters after iteration %d:", iter))
		}
	}

	res.Elapsed = time.Since(start)

	if err != nil {
		var de *DivergenceError
		switch {
		case errors.As(err, &de):
			res.Status = Diverged
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			res.Status = Cancelled
		default:
			res.Status = Failed
		}

		// Report the last log-likelihood that was computed without error.
		hmm.logP = res.LogP
		hmm.dlogP = res.DeltaLogP

		hmm.msglogger.Printf("Fit stopped at iteration %d: %v", iter, err)
		capitan.Error(ctx, FitFailed,
			FieldRunID.Field(res.RunID),
			FieldIteration.Field(iter),
			FieldStatus.Field(res.Status.String()),
			FieldElapsed.Field(res.Elapsed),
			FieldError.Field(err),
		)
		return res, err
	}

	if res.Status == Running {
		// The loop condition failed before a stopping rule was reached.
		if lim.MaxIter >= 0 && iter >= lim.MaxIter {
			res.Status = IterationLimit
		} else {
			res.Status = TimeLimit
		}
	}

	hmm.dumpParameters(ctx, "Final estimation results:")
	capitan.Emit(ctx, FitFinished,
		FieldRunID.Field(res.RunID),
		FieldIteration.Field(res.Iterations),
		FieldLogLike.Field(res.LogP),
		FieldDeltaLogLike.Field(res.DeltaLogP),
		FieldStatus.Field(res.Status.String()),
		FieldElapsed.Field(res.Elapsed),
	)

	return res, nil
}

// expectation runs the E-step: densities, forward and backward passes,
// log-likelihood, sufficient statistics and diagnostics.
func (hmm *ScaleHMM) expectation(ctx context.Context) error {

	hmm.calcDensities()
	if err := checkpoint(ctx, "densities"); err != nil {
		return err
	}

	if err := hmm.forward(); err != nil {
		return err
	}
	if err := checkpoint(ctx, "forward"); err != nil {
		return err
	}

	if err := hmm.backward(); err != nil {
		return err
	}
	if err := checkpoint(ctx, "backward"); err != nil {
		return err
	}

	hmm.calcLogLike()
	if !finite(hmm.logP) {
		hmm.msglogger.Printf("logP = %v", hmm.logP)
		return &DivergenceError{
			Iteration: hmm.iter,
			Phase:     "loglike",
			Time:      -1,
			State:     -1,
			Target:    -1,
			Value:     hmm.logP,
		}
	}

	hmm.calcSumXi()
	hmm.calcSumGamma()
	if err := checkpoint(ctx, "statistics"); err != nil {
		return err
	}

	hmm.calcDiagnostics()

	return nil
}

// report records the log-likelihood of an iteration and publishes the
// iteration diagnostics.
func (hmm *ScaleHMM) report(ctx context.Context, iter int, elapsed time.Duration) {

	hmm.LLF = append(hmm.LLF, hmm.logP)

	if iter > 1 && hmm.dlogP < -1e-10 {
		hmm.Warnings.LogLikeDecreased++
		hmm.msglogger.Printf("Log-likelihood decreased by %f", -hmm.dlogP)
		capitan.Emit(ctx, LogLikeDecreased,
			FieldRunID.Field(hmm.runID),
			FieldIteration.Field(iter),
			FieldDeltaLogLike.Field(hmm.dlogP),
		)
	}

	hmm.printIteration(iter, elapsed)
	capitan.Emit(ctx, IterationCompleted,
		FieldRunID.Field(hmm.runID),
		FieldIteration.Field(iter),
		FieldLogLike.Field(hmm.logP),
		FieldDeltaLogLike.Field(hmm.dlogP),
		FieldStateFlips.Field(hmm.stateFlips),
		FieldPosteriorDistance.Field(hmm.postDist),
		FieldElapsed.Field(elapsed),
	)
}

// realign is called when a fit ends without error.
func (hmm *ScaleHMM) realign() {
	if hmm.cfg.Realign != nil {
		hmm.cfg.Realign(hmm)
	}
}

func checkpoint(ctx context.Context, phase string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("hmmlib: cancelled after %s: %w", phase, err)
	}
	return nil
}
