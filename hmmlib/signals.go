package hmmlib

import "github.com/zoobzio/capitan"

// Signal definitions for fit events.
// Signals follow the pattern: scalehmm.<entity>.<event>.
var (
	FitStarted = capitan.NewSignal(
		"scalehmm.fit.started",
		"Baum-Welch fit began with initial parameters",
	)
	IterationCompleted = capitan.NewSignal(
		"scalehmm.iteration.completed",
		"E-step finished and per-iteration diagnostics computed",
	)
	StateDegenerate = capitan.NewSignal(
		"scalehmm.state.degenerate",
		"State has zero expected occupancy, transition row left unchanged",
	)
	LogLikeDecreased = capitan.NewSignal(
		"scalehmm.loglike.decreased",
		"Log-likelihood decreased between iterations",
	)
	ParametersDumped = capitan.NewSignal(
		"scalehmm.parameters.dumped",
		"Full parameter set written to the parameter log",
	)
	FitFinished = capitan.NewSignal(
		"scalehmm.fit.finished",
		"Baum-Welch fit terminated normally",
	)
	FitFailed = capitan.NewSignal(
		"scalehmm.fit.failed",
		"Baum-Welch fit aborted by divergence, cancellation or density failure",
	)
)

// Field keys for fit event data.
var (
	FieldRunID  = capitan.NewStringKey("run_id")
	FieldNState = capitan.NewIntKey("nstate")
	FieldNTime  = capitan.NewIntKey("ntime")

	FieldIteration         = capitan.NewIntKey("iteration")
	FieldLogLike           = capitan.NewFloat64Key("log_like")
	FieldDeltaLogLike      = capitan.NewFloat64Key("delta_log_like")
	FieldStateFlips        = capitan.NewIntKey("state_flips")
	FieldPosteriorDistance = capitan.NewFloat64Key("posterior_distance")
	FieldElapsed           = capitan.NewDurationKey("elapsed")

	FieldState  = capitan.NewIntKey("state")
	FieldStatus = capitan.NewStringKey("status")
	FieldTitle  = capitan.NewStringKey("title")

	FieldError = capitan.NewErrorKey("error")
)
