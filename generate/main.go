// Command generate simulates a hidden Markov model sequence and writes it,
// with the generating parameters, to a gzip-compressed gob file.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kshedden/scalehmm/hmmsim"
)

type genConfig struct {
	family     string
	nstate     int
	ntime      int
	snr        float64
	power      float64
	dispersion float64
	size       float64
}

// transition returns a sticky transition matrix whose self-transition
// probabilities increase from 0.8 to 0.9 over the states.
func transition(nstate int) []float64 {

	if nstate == 1 {
		return []float64{1}
	}

	trans := make([]float64, nstate*nstate)
	for i := 0; i < nstate; i++ {
		p := 0.8 + 0.1*float64(i)/float64(nstate-1)
		for j := 0; j < nstate; j++ {
			if i == j {
				trans[i*nstate+j] = p
			} else {
				trans[i*nstate+j] = (1 - p) / float64(nstate-1)
			}
		}
	}

	return trans
}

// emitters returns the distribution of each state together with the
// parameters that estimate uses to construct the matching density.
func emitters(cfg genConfig, src rand.Source) ([]distuv.Rander, [][]float64, error) {

	dists := make([]distuv.Rander, cfg.nstate)
	params := make([][]float64, cfg.nstate)

	for i := 0; i < cfg.nstate; i++ {
		mean := 1 + cfg.snr*float64(i)
		switch cfg.family {
		case "gaussian":
			dists[i] = distuv.Normal{Mu: cfg.snr * float64(i), Sigma: 1, Src: src}
			params[i] = []float64{cfg.snr * float64(i), 1}
		case "poisson":
			dists[i] = distuv.Poisson{Lambda: mean, Src: src}
			params[i] = []float64{mean}
		case "tweedie":
			dists[i] = hmmsim.Tweedie{Mean: mean, Power: cfg.power, Dispersion: cfg.dispersion, Src: src}
			params[i] = []float64{mean, cfg.power, cfg.dispersion}
		case "negbinom":
			prob := cfg.size / (cfg.size + mean)
			dists[i] = hmmsim.NegativeBinomial{Size: cfg.size, Prob: prob, Src: src}
			params[i] = []float64{cfg.size, prob}
		default:
			return nil, nil, fmt.Errorf("unknown family '%s'", cfg.family)
		}
	}

	return dists, params, nil
}

func main() {

	var cfg genConfig
	var outname string
	var seed uint64
	flag.StringVar(&cfg.family, "family", "gaussian", "Observation distribution")
	flag.StringVar(&outname, "outname", "", "Output file name")
	flag.IntVar(&cfg.nstate, "nstate", 3, "Number of states")
	flag.IntVar(&cfg.ntime, "ntime", 1000, "Number of time points")
	flag.Float64Var(&cfg.snr, "snr", 4, "Spacing between state means")
	flag.Float64Var(&cfg.power, "power", 1.5, "Variance power for Tweedie")
	flag.Float64Var(&cfg.dispersion, "dispersion", 1, "Dispersion for Tweedie")
	flag.Float64Var(&cfg.size, "size", 2, "Size parameter for the negative binomial")
	flag.Uint64Var(&seed, "seed", 0, "Random seed, 0 to seed from the clock")
	flag.Parse()
	defer glog.Flush()

	if outname == "" {
		glog.Exit("generate: 'outname' is required")
	}
	if cfg.nstate < 1 || cfg.ntime < 1 {
		glog.Exitf("generate: nstate=%d, ntime=%d", cfg.nstate, cfg.ntime)
	}

	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	ds := &hmmsim.Dataset{
		NState: cfg.nstate,
		Trans:  transition(cfg.nstate),
		Init:   make([]float64, cfg.nstate),
		Family: cfg.family,
	}
	for i := range ds.Init {
		ds.Init[i] = 1 / float64(cfg.nstate)
	}

	var err error
	ds.State, err = hmmsim.GenStates(ds.Trans, ds.Init, cfg.ntime, rng)
	if err != nil {
		glog.Exitf("generate: %v", err)
	}

	var dists []distuv.Rander
	dists, ds.Params, err = emitters(cfg, rand.NewPCG(rng.Uint64(), rng.Uint64()))
	if err != nil {
		glog.Exitf("generate: %v", err)
	}

	ds.Obs, err = hmmsim.GenObs(ds.State, dists)
	if err != nil {
		glog.Exitf("generate: %v", err)
	}

	if err := ds.WriteFile(outname); err != nil {
		glog.Exitf("generate: %v", err)
	}
	glog.Infof("Wrote %d observations from %d states to %s (seed %d)", cfg.ntime, cfg.nstate, outname, seed)
}
