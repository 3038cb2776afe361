package hmmlib

import (
	"fmt"
	"runtime"
)

// Layout selects how the density cache is read by the recursions.
type Layout uint8

// StateMajor reads b_i(t) from the NState x NTime cache.  TimeMajor keeps
// an additional NTime x NState mirror and reads from it, which gives
// contiguous access to all states at one time point.
const (
	StateMajor Layout = iota
	TimeMajor
)

func (l Layout) String() string {
	switch l {
	case StateMajor:
		return "state-major"
	case TimeMajor:
		return "time-major"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// Config holds the tuning parameters of a ScaleHMM.
type Config struct {

	// Access pattern for the density cache
	Layout Layout

	// Maximum number of goroutines used when fanning out over states.
	// Values below 1 mean runtime.GOMAXPROCS(0).
	Workers int

	// State whose hard assignments are compared between iterations to
	// produce the state-flip diagnostic.  A negative value selects state
	// 2, or the last state if there are fewer than three.
	ReferenceState int

	// Write the full parameter set to the parameter log every DumpEvery
	// iterations.  Zero disables periodic dumps; the initial and final
	// parameters are always written.
	DumpEvery int

	// Realign is called when a fit terminates normally.  It is reserved
	// for correcting label switching between symmetric states and may
	// be nil.
	Realign func(*ScaleHMM)
}

// DefaultConfig returns the configuration used when nothing else is
// specified.
func DefaultConfig() Config {
	return Config{
		Layout:         StateMajor,
		Workers:        runtime.GOMAXPROCS(0),
		ReferenceState: -1,
	}
}

// resolve fills in defaults and checks the configuration against the
// number of states.
func (cfg Config) resolve(nstate int) (Config, error) {

	if cfg.Layout != StateMajor && cfg.Layout != TimeMajor {
		return cfg, fmt.Errorf("hmmlib: unknown layout %v", cfg.Layout)
	}

	if cfg.Workers < 1 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if cfg.ReferenceState < 0 {
		cfg.ReferenceState = 2
		if nstate < 3 {
			cfg.ReferenceState = nstate - 1
		}
	}
	if cfg.ReferenceState >= nstate {
		return cfg, fmt.Errorf("hmmlib: reference state %d with %d states: %w", cfg.ReferenceState, nstate, ErrDimension)
	}

	if cfg.DumpEvery < 0 {
		cfg.DumpEvery = 0
	}

	return cfg, nil
}
