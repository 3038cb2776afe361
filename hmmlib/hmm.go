package hmmlib

import (
	"fmt"
	"io"
	"log"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// Default self-transition probability used when no transition
	// matrix is supplied.
	selfTrans = 0.9

	// Posterior probability above which a time point is assigned to
	// the reference state when counting state flips.
	flipThreshold = 0.5
)

// ScaleHMM is a hidden Markov model with one continuous emission density
// per state, fit to a single observed sequence using Baum-Welch with
// scaled forward and backward variables.
//
// A ScaleHMM is not safe for concurrent use.  BaumWelch must not be
// called from more than one goroutine at a time on the same value.
type ScaleHMM struct {

	// Length of the observed sequence
	NTime int

	// Number of states
	NState int

	// The log-likelihood after each completed iteration of the most
	// recent call to BaumWelch.
	LLF []float64

	Warnings warnings

	cfg Config

	// The transition probability matrix (NState x NState)
	trans *mat.Dense

	// The initial probability distribution
	init []float64

	transSet, initSet bool

	// One emission density per state
	densities []Density

	// Per-state, per-time density values
	dens densityCache

	// Scale factors of the forward recursion (length NTime)
	scale []float64

	// Scaled forward and backward variables (NTime x NState)
	alpha *mat.Dense
	beta  *mat.Dense

	// Posteriors (NState x NTime), and the posteriors from the
	// previous iteration.
	gamma    *mat.Dense
	gammaOld *mat.Dense

	// Sufficient statistics for the M-step
	sumGamma []float64
	sumXi    *mat.Dense

	// Scratch space for the M-step
	transWk *mat.Dense
	initWk  []float64

	// Per-time workspaces used by the recursions
	bwk, awk []float64

	logP       float64
	dlogP      float64
	stateFlips int
	postDist   float64

	// Current iteration and run, for error context and signals
	iter  int
	runID string

	// Write log messages here
	msglogger *log.Logger
	parlogger *log.Logger
}

type warnings struct {
	LogLikeDecreased int
	DegenerateState  int
}

// New returns a ScaleHMM for a sequence of length ntime with nstate
// states.  All workspaces are allocated here.  The model takes ownership
// of the densities, which must contain one value per state.
func New(ntime, nstate int, densities []Density, cfg Config) (*ScaleHMM, error) {

	if ntime < 1 || nstate < 1 {
		return nil, fmt.Errorf("hmmlib: ntime=%d, nstate=%d: %w", ntime, nstate, ErrDimension)
	}
	if len(densities) != nstate {
		return nil, fmt.Errorf("hmmlib: %d densities for %d states: %w", len(densities), nstate, ErrNoDensity)
	}
	for i, d := range densities {
		if d == nil {
			return nil, fmt.Errorf("hmmlib: density for state %d is nil: %w", i, ErrNoDensity)
		}
	}

	cfg, err := cfg.resolve(nstate)
	if err != nil {
		return nil, err
	}

	hmm := &ScaleHMM{
		NTime:     ntime,
		NState:    nstate,
		cfg:       cfg,
		trans:     mat.NewDense(nstate, nstate, nil),
		init:      make([]float64, nstate),
		densities: densities,
		dens:      newDensityCache(nstate, ntime, cfg.Layout),
		scale:     make([]float64, ntime),
		alpha:     mat.NewDense(ntime, nstate, nil),
		beta:      mat.NewDense(ntime, nstate, nil),
		gamma:     mat.NewDense(nstate, ntime, nil),
		gammaOld:  mat.NewDense(nstate, ntime, nil),
		sumGamma:  make([]float64, nstate),
		sumXi:     mat.NewDense(nstate, nstate, nil),
		transWk:   mat.NewDense(nstate, nstate, nil),
		initWk:    make([]float64, nstate),
		bwk:       make([]float64, nstate),
		awk:       make([]float64, nstate),
		msglogger: log.New(os.Stderr, "", log.Ltime),
		parlogger: log.New(io.Discard, "", 0),
	}
	hmm.resetDiagnostics()

	return hmm, nil
}

// SetLogger creates the files logname_msg.log and logname_par.log and
// directs the message and parameter logs to them.  The message logger is
// returned so that the calling program can also use it.
func (hmm *ScaleHMM) SetLogger(logname string) (*log.Logger, error) {

	fid, err := os.Create(logname + "_msg.log")
	if err != nil {
		return nil, err
	}
	hmm.msglogger = log.New(fid, "", log.Ltime)

	fid, err = os.Create(logname + "_par.log")
	if err != nil {
		return nil, err
	}
	hmm.parlogger = log.New(fid, "", 0)

	return hmm.msglogger, nil
}

// SetLoggers replaces the message and parameter loggers.  A nil logger
// discards its output.
func (hmm *ScaleHMM) SetLoggers(msg, par *log.Logger) {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	if par == nil {
		par = log.New(io.Discard, "", 0)
	}
	hmm.msglogger = msg
	hmm.parlogger = par
}

// Message writes a message to the message log.
func (hmm *ScaleHMM) Message(msg string) {
	hmm.msglogger.Print(msg)
}

// InitTransition sets the transition matrix.  If useGiven is true, buf
// holds the matrix in row-major order and is copied.  Otherwise a default
// matrix is generated, with 0.9 on the diagonal and the remaining mass
// spread evenly over each row, and written back into buf so the caller can
// record the exact starting values.
func (hmm *ScaleHMM) InitTransition(buf []float64, useGiven bool) error {

	n := hmm.NState
	if len(buf) != n*n {
		return fmt.Errorf("hmmlib: transition buffer has length %d, want %d: %w", len(buf), n*n, ErrDimension)
	}

	if !useGiven {
		other := 0.0
		self := 1.0
		if n > 1 {
			self = selfTrans
			other = (1 - selfTrans) / float64(n-1)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					buf[i*n+j] = self
				} else {
					buf[i*n+j] = other
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		copy(hmm.trans.RawRowView(i), buf[i*n:(i+1)*n])
	}
	hmm.transSet = true

	return nil
}

// InitProba sets the initial state distribution.  If useGiven is true the
// values in buf are copied, otherwise the uniform distribution is used and
// written back into buf.
func (hmm *ScaleHMM) InitProba(buf []float64, useGiven bool) error {

	if len(buf) != hmm.NState {
		return fmt.Errorf("hmmlib: initial buffer has length %d, want %d: %w", len(buf), hmm.NState, ErrDimension)
	}

	if !useGiven {
		for i := range buf {
			buf[i] = 1 / float64(hmm.NState)
		}
	}

	copy(hmm.init, buf)
	hmm.initSet = true

	return nil
}

// Transition returns the probability of moving from state i to state j.
func (hmm *ScaleHMM) Transition(i, j int) float64 {
	return hmm.trans.At(i, j)
}

// Initial returns the initial probability of state i.
func (hmm *ScaleHMM) Initial(i int) float64 {
	return hmm.init[i]
}

// LogLike returns the log-likelihood computed in the most recent iteration.
func (hmm *ScaleHMM) LogLike() float64 {
	return hmm.logP
}

// Densities returns the emission densities, indexed by state.
func (hmm *ScaleHMM) Densities() []Density {
	return hmm.densities
}

// Posteriors copies the posterior state probabilities into dst, which
// must have NState rows of length NTime.
func (hmm *ScaleHMM) Posteriors(dst [][]float64) error {

	if len(dst) != hmm.NState {
		return fmt.Errorf("hmmlib: %d posterior rows, want %d: %w", len(dst), hmm.NState, ErrDimension)
	}
	for i := range dst {
		if len(dst[i]) != hmm.NTime {
			return fmt.Errorf("hmmlib: posterior row %d has length %d, want %d: %w", i, len(dst[i]), hmm.NTime, ErrDimension)
		}
		copy(dst[i], hmm.gamma.RawRowView(i))
	}

	return nil
}

// PosteriorMatrix returns a copy of the NState x NTime posterior matrix.
func (hmm *ScaleHMM) PosteriorMatrix() *mat.Dense {
	return mat.DenseCopyOf(hmm.gamma)
}

// Weights writes into dst the mean posterior probability of each state
// over the whole sequence.  Unlike the M-step occupancy sums this includes
// the final time point.
func (hmm *ScaleHMM) Weights(dst []float64) error {

	if len(dst) != hmm.NState {
		return fmt.Errorf("hmmlib: weights buffer has length %d, want %d: %w", len(dst), hmm.NState, ErrDimension)
	}

	hmm.forEachState(func(i int) {
		dst[i] = floats.Sum(hmm.gamma.RawRowView(i)) / float64(hmm.NTime)
	})

	return nil
}

func (hmm *ScaleHMM) resetDiagnostics() {
	hmm.logP = negInf
	hmm.dlogP = posInf
	hmm.stateFlips = 0
	hmm.postDist = 0
	hmm.gammaOld.Zero()
}
