// Command estimate fits a hidden Markov model to a dataset written by
// generate, and reports the estimated parameters and state calls.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"github.com/schollz/progressbar"
	"github.com/zoobzio/capitan"

	"github.com/kshedden/scalehmm/hmmlib"
	"github.com/kshedden/scalehmm/hmmsim"
)

func report(logger *log.Logger, label string, pstate, state []int) {
	e, n, err := hmmsim.CompareStates(pstate, state)
	if err != nil {
		logger.Printf("%s: %v", label, err)
		return
	}
	logger.Printf("%s: %d/%d errors", label, e, n)
}

func main() {

	var fv flagValues
	configFile := flag.String("config", "", "YAML configuration file")
	flag.StringVar(&fv.data, "data", "", "The data file")
	flag.StringVar(&fv.logname, "logname", "hmm", "Prefix of log file")
	flag.StringVar(&fv.plot, "plot", "", "Prefix of plot files, no plots if empty")
	flag.StringVar(&fv.family, "family", "", "Override the emission family in the data file")
	flag.StringVar(&fv.layout, "layout", "state", "Density cache layout, 'state' or 'time'")
	flag.IntVar(&fv.nstate, "nstate", 0, "Override the number of states in the data file")
	flag.IntVar(&fv.maxiter, "maxiter", 100, "Maximum number of iterations, negative for no limit")
	flag.IntVar(&fv.workers, "workers", 0, "Number of goroutines per phase")
	flag.IntVar(&fv.dumpevery, "dumpevery", 0, "Write parameters every this many iterations")
	flag.DurationVar(&fv.maxtime, "maxtime", -1, "Maximum run time, negative for no limit")
	flag.Float64Var(&fv.eps, "eps", 1e-6, "Convergence tolerance for the log-likelihood")
	flag.Float64Var(&fv.power, "power", 1.5, "Variance power for the Tweedie family")
	flag.BoolVar(&fv.viterbi, "viterbi", true, "If false, do not reconstruct states")
	flag.Parse()
	defer glog.Flush()

	cfg, err := readConfig(*configFile)
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}
	fv.override(flag.CommandLine, &cfg)

	if cfg.Data == "" {
		glog.Exit("estimate: 'data' is a required argument")
	}

	ds, err := hmmsim.ReadFile(cfg.Data)
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}
	if cfg.Family == "" {
		cfg.Family = ds.Family
	}
	if cfg.NState == 0 {
		cfg.NState = ds.NState
	}
	glog.Infof("Read %d observations from %s", len(ds.Obs), cfg.Data)

	mc, err := cfg.modelConfig()
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}

	dens, err := newDensities(cfg.Family, ds.Obs, cfg.startParams(ds.Obs))
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}

	hmm, err := hmmlib.New(len(ds.Obs), cfg.NState, dens, mc)
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}
	logger, err := hmm.SetLogger(cfg.LogName)
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}

	trans, pi, err := cfg.startProbs()
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}
	if err := hmm.InitTransition(trans, len(cfg.Trans) > 0); err != nil {
		glog.Exitf("estimate: transition matrix: %v", err)
	}
	if err := hmm.InitProba(pi, len(cfg.Init) > 0); err != nil {
		glog.Exitf("estimate: initial distribution: %v", err)
	}

	hmm.Message(fmt.Sprintf("Family: %s, states: %d, layout: %v, workers: %d", cfg.Family, cfg.NState, mc.Layout, mc.Workers))
	logger.Printf("Starting transition matrix: %v", trans)
	logger.Printf("Starting initial distribution: %v", pi)

	if cfg.MaxIter > 0 {
		bar := progressbar.New(cfg.MaxIter)
		listener := capitan.Hook(hmmlib.IterationCompleted, func(_ context.Context, _ *capitan.Event) {
			_ = bar.Add(1)
		})
		defer listener.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := hmm.BaumWelch(ctx, cfg.limits())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		glog.Errorf("estimate: fit stopped after %d iterations: %v", res.Iterations, err)
	}

	logger.Printf("Run %s: %v after %d iterations in %v", res.RunID, res.Status, res.Iterations, res.Elapsed.Round(time.Millisecond))
	logger.Printf("Final log-likelihood: %f", res.LogP)
	logger.Printf("Final change in log-likelihood: %g", res.DeltaLogP)
	logger.Printf("%+v", hmm.Warnings)

	w := make([]float64, cfg.NState)
	if err := hmm.Weights(w); err == nil {
		logger.Printf("State weights: %v", w)
	}

	if cfg.Plot != "" && len(hmm.LLF) > 0 {
		if err := savePlots(cfg.Plot, hmm.LLF, hmm.PosteriorMatrix()); err != nil {
			glog.Errorf("estimate: %v", err)
		}
	}

	if err != nil {
		glog.Flush()
		os.Exit(1)
	}

	if !cfg.Viterbi || len(ds.State) != len(ds.Obs) || cfg.NState != ds.NState {
		return
	}

	path, err := hmm.Viterbi()
	if err != nil {
		glog.Exitf("estimate: %v", err)
	}
	report(logger, "Viterbi reconstruction", path, ds.State)
	report(logger, "Posterior calls", hmm.CallStates(), ds.State)
}
