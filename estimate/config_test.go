package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kshedden/scalehmm/hmmlib"
)

const testYAML = `
data: sim.gob.gz
family: tweedie
nstate: 2
maxiter: 50
maxtime: 30s
eps: 1.0e-8
layout: time
trans: [0.9, 0.1, 0.2, 0.8]
params:
  - [1, 1.5, 1]
  - [5, 1.5, 1]
`

func TestReadConfig(t *testing.T) {

	fname := filepath.Join(t.TempDir(), "fit.yaml")
	require.NoError(t, os.WriteFile(fname, []byte(testYAML), 0o644))

	cfg, err := readConfig(fname)
	require.NoError(t, err)

	assert.Equal(t, "tweedie", cfg.Family)
	assert.Equal(t, 50, cfg.MaxIter)
	assert.Equal(t, 30*time.Second, cfg.MaxTime)
	assert.Equal(t, 1e-8, cfg.Eps)
	assert.Equal(t, []float64{0.9, 0.1, 0.2, 0.8}, cfg.Trans)
	assert.Len(t, cfg.Params, 2)

	// Defaults that the file does not mention
	assert.Equal(t, "hmm", cfg.LogName)
	assert.True(t, cfg.Viterbi)

	mc, err := cfg.modelConfig()
	require.NoError(t, err)
	assert.Equal(t, hmmlib.TimeMajor, mc.Layout)

	lim := cfg.limits()
	assert.Equal(t, hmmlib.Limits{MaxIter: 50, MaxTime: 30 * time.Second, Eps: 1e-8}, lim)

	_, err = readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFlagOverride(t *testing.T) {

	cfg := defaultFitConfig()
	cfg.Family = "gaussian"
	cfg.MaxIter = 10

	var fv flagValues
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.StringVar(&fv.family, "family", "", "")
	fs.IntVar(&fv.maxiter, "maxiter", 100, "")
	fs.Float64Var(&fv.eps, "eps", 1e-6, "")
	require.NoError(t, fs.Parse([]string{"-maxiter", "7"}))

	fv.override(fs, &cfg)
	assert.Equal(t, 7, cfg.MaxIter)
	assert.Equal(t, "gaussian", cfg.Family)
	assert.Equal(t, 1e-6, cfg.Eps)
}

func TestBadLayout(t *testing.T) {
	cfg := defaultFitConfig()
	cfg.Layout = "diagonal"
	_, err := cfg.modelConfig()
	assert.Error(t, err)
}

func TestStartProbs(t *testing.T) {

	fname := filepath.Join(t.TempDir(), "fit.yaml")
	require.NoError(t, os.WriteFile(fname, []byte(testYAML), 0o644))
	cfg, err := readConfig(fname)
	require.NoError(t, err)

	trans, pi, err := cfg.startProbs()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1, 0.2, 0.8}, trans)
	assert.Equal(t, []float64{0, 0}, pi)

	// A command line -nstate no longer matches the file
	cfg.NState = 3
	_, _, err = cfg.startProbs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trans has 4 values, want 9")

	cfg.Trans = nil
	cfg.Init = []float64{0.5, 0.5}
	_, _, err = cfg.startProbs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init has 2 values, want 3")

	cfg.Init = []float64{0.2, 0.3, 0.5}
	trans, pi, err = cfg.startProbs()
	require.NoError(t, err)
	assert.Len(t, trans, 9)
	assert.Equal(t, []float64{0.2, 0.3, 0.5}, pi)
}

func TestStartParams(t *testing.T) {

	obs := make([]float64, 100)
	for i := range obs {
		obs[i] = float64(i)
	}

	for _, family := range []string{"gaussian", "poisson", "tweedie", "negbinom"} {
		cfg := defaultFitConfig()
		cfg.Family = family
		cfg.NState = 3

		params := cfg.startParams(obs)
		require.Len(t, params, 3)

		dens, err := newDensities(family, obs, params)
		require.NoError(t, err, family)
		require.Len(t, dens, 3)

		// State means increase with the state index
		for i := 1; i < 3; i++ {
			assert.Greater(t, dens[i].Mean(), dens[i-1].Mean(), family)
		}
	}

	_, err := newDensities("gaussian", obs, [][]float64{{1}})
	assert.Error(t, err)

	_, err = newDensities("poisson", obs, [][]float64{{-1}})
	assert.Error(t, err)
}

func TestSavePlots(t *testing.T) {

	post := mat.NewDense(2, 5, []float64{
		0.9, 0.8, 0.2, 0.1, 0.5,
		0.1, 0.2, 0.8, 0.9, 0.5,
	})
	llf := []float64{-20, -15, -14, -13.9}

	prefix := filepath.Join(t.TempDir(), "fit")
	require.NoError(t, savePlots(prefix, llf, post))

	for _, suffix := range []string{"_llf.png", "_posterior.png"} {
		fi, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Greater(t, fi.Size(), int64(0))
	}

	err := savePlots(filepath.Join(t.TempDir(), "missing", "fit"), llf, post)
	assert.Error(t, err)
}
