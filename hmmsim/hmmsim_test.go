package hmmsim

import (
	"bytes"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestGenStatesDeterministic(t *testing.T) {

	rng := rand.New(rand.NewPCG(1, 2))
	trans := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

	state, err := GenStates(trans, []float64{0, 1, 0}, 50, rng)
	require.NoError(t, err)
	for _, st := range state {
		assert.Equal(t, 1, st)
	}

	// Alternate between two states
	state, err = GenStates([]float64{0, 1, 1, 0}, []float64{1, 0}, 6, rng)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, state)
}

func TestGenStatesFrequencies(t *testing.T) {

	rng := rand.New(rand.NewPCG(3, 4))
	trans := []float64{0.7, 0.3, 0.2, 0.8}
	n := 200000

	state, err := GenStates(trans, []float64{0.5, 0.5}, n, rng)
	require.NoError(t, err)

	var counts [2][2]float64
	for i := 1; i < n; i++ {
		counts[state[i-1]][state[i]]++
	}
	for i := 0; i < 2; i++ {
		tot := counts[i][0] + counts[i][1]
		for j := 0; j < 2; j++ {
			assert.InDelta(t, trans[2*i+j], counts[i][j]/tot, 0.01)
		}
	}
}

func TestGenStatesErrors(t *testing.T) {

	rng := rand.New(rand.NewPCG(1, 1))

	_, err := GenStates([]float64{1}, []float64{0.5, 0.5}, 10, rng)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = GenStates([]float64{0.5, 0.6, 0.5, 0.5}, []float64{0.5, 0.5}, 10, rng)
	assert.ErrorIs(t, err, ErrProbability)

	_, err = GenStates([]float64{1, 0, 0, 1}, []float64{1.5, -0.5}, 10, rng)
	assert.ErrorIs(t, err, ErrProbability)
}

func TestGenObs(t *testing.T) {

	src := rand.NewPCG(5, 6)
	dists := []distuv.Rander{
		distuv.Normal{Mu: -5, Sigma: 1, Src: src},
		distuv.Normal{Mu: 5, Sigma: 1, Src: src},
	}

	state := make([]int, 10000)
	for i := range state {
		state[i] = i % 2
	}

	obs, err := GenObs(state, dists)
	require.NoError(t, err)

	var lo, hi []float64
	for i, y := range obs {
		if state[i] == 0 {
			lo = append(lo, y)
		} else {
			hi = append(hi, y)
		}
	}
	assert.InDelta(t, -5, stat.Mean(lo, nil), 0.05)
	assert.InDelta(t, 5, stat.Mean(hi, nil), 0.05)

	_, err = GenObs([]int{0, 2}, dists)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestTweedieMoments(t *testing.T) {

	tw := Tweedie{Mean: 3, Power: 1.5, Dispersion: 2, Src: rand.NewPCG(7, 8)}

	n := 200000
	x := make([]float64, n)
	var zeros int
	for i := range x {
		x[i] = tw.Rand()
		if x[i] == 0 {
			zeros++
		}
	}

	mean, variance := stat.MeanVariance(x, nil)
	assert.InDelta(t, 3, mean, 0.05)
	assert.InDelta(t, 2*math.Pow(3, 1.5), variance, 0.5)

	// P(0) = exp(-lambda)
	lam := math.Pow(3, 0.5) / (0.5 * 2)
	assert.InDelta(t, math.Exp(-lam), float64(zeros)/float64(n), 0.005)
}

func TestNegativeBinomialMoments(t *testing.T) {

	nb := NegativeBinomial{Size: 2, Prob: 0.4, Src: rand.NewPCG(9, 10)}

	x := make([]float64, 200000)
	for i := range x {
		x[i] = nb.Rand()
		require.Equal(t, math.Floor(x[i]), x[i])
	}

	mean, variance := stat.MeanVariance(x, nil)
	assert.InDelta(t, 3, mean, 0.05)
	assert.InDelta(t, 7.5, variance, 0.3)
}

func TestCompareStates(t *testing.T) {

	e, n, err := CompareStates([]int{0, 1, 2, 2}, []int{0, 2, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, e)
	assert.Equal(t, 4, n)

	_, _, err = CompareStates([]int{0}, []int{0, 1})
	assert.ErrorIs(t, err, ErrDimension)
}

func testDataset() *Dataset {
	return &Dataset{
		Obs:    []float64{0.5, 1.5, -2, 3},
		State:  []int{0, 0, 1, 1},
		NState: 2,
		Trans:  []float64{0.9, 0.1, 0.2, 0.8},
		Init:   []float64{0.5, 0.5},
		Family: "gaussian",
		Params: [][]float64{{0, 1}, {2, 1}},
	}
}

func TestDatasetRoundTrip(t *testing.T) {

	ds := testDataset()

	var buf bytes.Buffer
	require.NoError(t, ds.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds, got)

	fname := filepath.Join(t.TempDir(), "data.gob.gz")
	require.NoError(t, ds.WriteFile(fname))

	got, err = ReadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestDatasetInvalid(t *testing.T) {

	ds := testDataset()
	ds.State = ds.State[:3]

	var buf bytes.Buffer
	require.NoError(t, ds.Write(&buf))

	_, err := Read(&buf)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Read(bytes.NewReader([]byte("not gzip")))
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
