package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/kshedden/scalehmm/density"
	"github.com/kshedden/scalehmm/hmmlib"
)

// fitConfig holds the settings of one estimation run.  Values are read
// from an optional YAML file and then overridden by any flags given on
// the command line.
type fitConfig struct {
	Data    string `yaml:"data"`
	LogName string `yaml:"logname"`
	Plot    string `yaml:"plot"`

	// Emission family: gaussian, poisson, tweedie or negbinom
	Family string `yaml:"family"`
	NState int    `yaml:"nstate"`

	MaxIter int           `yaml:"maxiter"`
	MaxTime time.Duration `yaml:"maxtime"`
	Eps     float64       `yaml:"eps"`

	Layout    string `yaml:"layout"`
	Workers   int    `yaml:"workers"`
	DumpEvery int    `yaml:"dumpevery"`

	// Starting values.  If Trans or Init is empty the defaults are used,
	// and if Params is empty the starting parameters are set from the
	// quantiles of the data.
	Trans  []float64   `yaml:"trans"`
	Init   []float64   `yaml:"init"`
	Params [][]float64 `yaml:"params"`

	// Variance power for the Tweedie family
	Power float64 `yaml:"power"`

	Viterbi bool `yaml:"viterbi"`
}

func defaultFitConfig() fitConfig {
	return fitConfig{
		LogName: "hmm",
		MaxIter: 100,
		MaxTime: -1,
		Eps:     1e-6,
		Layout:  "state",
		Power:   1.5,
		Viterbi: true,
	}
}

// readConfig decodes a YAML file over the defaults.
func readConfig(fname string) (fitConfig, error) {

	cfg := defaultFitConfig()
	if fname == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(fname)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", fname, err)
	}

	return cfg, nil
}

// flagValues are the command line settings that can override the file.
type flagValues struct {
	data, logname, plot, family, layout string
	nstate, maxiter, workers, dumpevery int
	maxtime                             time.Duration
	eps, power                          float64
	viterbi                             bool
}

// override copies the flags that were set explicitly into cfg.
func (fv *flagValues) override(fs *flag.FlagSet, cfg *fitConfig) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data = fv.data
		case "logname":
			cfg.LogName = fv.logname
		case "plot":
			cfg.Plot = fv.plot
		case "family":
			cfg.Family = fv.family
		case "layout":
			cfg.Layout = fv.layout
		case "nstate":
			cfg.NState = fv.nstate
		case "maxiter":
			cfg.MaxIter = fv.maxiter
		case "workers":
			cfg.Workers = fv.workers
		case "dumpevery":
			cfg.DumpEvery = fv.dumpevery
		case "maxtime":
			cfg.MaxTime = fv.maxtime
		case "eps":
			cfg.Eps = fv.eps
		case "power":
			cfg.Power = fv.power
		case "viterbi":
			cfg.Viterbi = fv.viterbi
		}
	})
}

func (cfg *fitConfig) limits() hmmlib.Limits {
	return hmmlib.Limits{
		MaxIter: cfg.MaxIter,
		MaxTime: cfg.MaxTime,
		Eps:     cfg.Eps,
	}
}

func (cfg *fitConfig) modelConfig() (hmmlib.Config, error) {

	mc := hmmlib.DefaultConfig()

	switch cfg.Layout {
	case "", "state":
		mc.Layout = hmmlib.StateMajor
	case "time":
		mc.Layout = hmmlib.TimeMajor
	default:
		return mc, fmt.Errorf("unknown layout %q", cfg.Layout)
	}

	if cfg.Workers > 0 {
		mc.Workers = cfg.Workers
	}
	mc.DumpEvery = cfg.DumpEvery

	return mc, nil
}

// startProbs returns the buffers passed to InitTransition and InitProba.
// They hold the values from the configuration, or zeros when none were
// given so that the model defaults can be written back.
func (cfg *fitConfig) startProbs() (trans, pi []float64, err error) {

	n := cfg.NState
	if len(cfg.Trans) != 0 && len(cfg.Trans) != n*n {
		return nil, nil, fmt.Errorf("trans has %d values, want %d for %d states", len(cfg.Trans), n*n, n)
	}
	if len(cfg.Init) != 0 && len(cfg.Init) != n {
		return nil, nil, fmt.Errorf("init has %d values, want %d", len(cfg.Init), n)
	}

	trans = make([]float64, n*n)
	copy(trans, cfg.Trans)
	pi = make([]float64, n)
	copy(pi, cfg.Init)

	return trans, pi, nil
}

// startParams returns starting parameters for each state, spreading the
// state means over the quantiles of the data.
func (cfg *fitConfig) startParams(obs []float64) [][]float64 {

	if len(cfg.Params) > 0 {
		return cfg.Params
	}

	x := append([]float64(nil), obs...)
	sort.Float64s(x)
	_, sd := stat.MeanStdDev(x, nil)
	if sd <= 0 {
		sd = 1
	}

	params := make([][]float64, cfg.NState)
	for i := range params {
		q := stat.Quantile((float64(i)+0.5)/float64(cfg.NState), stat.Empirical, x, nil)
		mean := q
		if mean < 0.5 {
			mean = 0.5
		}
		switch cfg.Family {
		case "gaussian":
			params[i] = []float64{q, sd}
		case "poisson":
			params[i] = []float64{mean}
		case "tweedie":
			params[i] = []float64{mean, cfg.Power, 1}
		case "negbinom":
			// Size 1, with the mean at the quantile
			params[i] = []float64{1, 1 / (1 + mean)}
		}
	}

	return params
}

// newDensities constructs one density per state over obs.
func newDensities(family string, obs []float64, params [][]float64) ([]hmmlib.Density, error) {

	dens := make([]hmmlib.Density, len(params))
	for i, p := range params {

		var d hmmlib.Density
		var err error

		switch {
		case family == "gaussian" && len(p) == 2:
			d, err = density.NewGaussian(obs, p[0], p[1])
		case family == "poisson" && len(p) == 1:
			d, err = density.NewPoisson(obs, p[0])
		case family == "tweedie" && len(p) == 3:
			d, err = density.NewTweedie(obs, p[0], p[1], p[2])
		case family == "negbinom" && len(p) == 2:
			d, err = density.NewNegativeBinomial(obs, p[0], p[1])
		default:
			return nil, fmt.Errorf("family %q with %d parameters for state %d", family, len(p), i)
		}
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		dens[i] = d
	}

	return dens, nil
}
