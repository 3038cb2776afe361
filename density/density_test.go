package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestGaussianEvaluate(t *testing.T) {

	obs := []float64{-1, 0, 0.5, 3}
	g, err := NewGaussian(obs, 0.5, 2)
	require.NoError(t, err)

	dst := make([]float64, len(obs))
	g.Evaluate(dst)

	for i, y := range obs {
		z := (y - 0.5) / 2
		want := math.Exp(-z*z/2) / (2 * math.Sqrt(2*math.Pi))
		assert.InDelta(t, want, dst[i], 1e-12, "t=%d", i)
	}
}

func TestGaussianUpdate(t *testing.T) {

	obs := []float64{1, 2, 3, 100, 200, 300}
	w := []float64{1, 1, 1, 0, 0, 0}

	g, err := NewGaussian(obs, 0, 1)
	require.NoError(t, err)
	require.NoError(t, g.Update(w))

	assert.InDelta(t, 2, g.Mean(), 1e-12)
	assert.InDelta(t, 2.0/3, g.Variance(), 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3), g.SD(), 1e-12)

	// Scaling the weights does not change the estimates
	floats.Scale(0.25, w)
	require.NoError(t, g.Update(w))
	assert.InDelta(t, 2, g.Mean(), 1e-12)
}

func TestGaussianConstantData(t *testing.T) {

	obs := []float64{4, 4, 4}
	g, err := NewGaussian(obs, 0, 1)
	require.NoError(t, err)
	require.NoError(t, g.Update([]float64{0.2, 0.3, 0.5}))

	assert.Equal(t, 4.0, g.Mean())
	assert.Equal(t, sdmin, g.SD())
}

func TestZeroWeight(t *testing.T) {

	obs := []float64{1, 2, 3}
	w := make([]float64, len(obs))

	g, _ := NewGaussian(obs, 1, 1)
	p, _ := NewPoisson(obs, 1)
	tw, _ := NewTweedie(obs, 1, 1.5, 1)
	nb, _ := NewNegativeBinomial(obs, 1, 0.5)

	for _, d := range []interface {
		Update([]float64) error
		Mean() float64
	}{g, p, tw, nb} {
		before := d.Mean()
		err := d.Update(w)
		assert.ErrorIs(t, err, ErrZeroWeight)
		assert.Equal(t, before, d.Mean())
	}
}

func TestWeightLength(t *testing.T) {
	g, _ := NewGaussian([]float64{1, 2, 3}, 1, 1)
	assert.ErrorIs(t, g.Update([]float64{1, 1}), ErrLength)
}

func TestBadParameters(t *testing.T) {

	obs := []float64{1}

	_, err := NewGaussian(obs, 0, 0)
	assert.ErrorIs(t, err, ErrParameter)

	_, err = NewPoisson(obs, -1)
	assert.ErrorIs(t, err, ErrParameter)

	_, err = NewTweedie(obs, 1, 2.5, 1)
	assert.ErrorIs(t, err, ErrParameter)

	_, err = NewTweedie(obs, 1, 1.5, 0)
	assert.ErrorIs(t, err, ErrParameter)

	_, err = NewNegativeBinomial(obs, 1, 1)
	assert.ErrorIs(t, err, ErrParameter)

	_, err = NewGaussian(obs, math.NaN(), 1)
	assert.ErrorIs(t, err, ErrParameter)
}

func TestPoisson(t *testing.T) {

	obs := []float64{0, 1, 2, 5, -1}
	p, err := NewPoisson(obs, 2)
	require.NoError(t, err)

	dst := make([]float64, len(obs))
	p.Evaluate(dst)

	for i, y := range obs[:4] {
		lg, _ := math.Lgamma(y + 1)
		want := math.Exp(y*math.Log(2) - 2 - lg)
		assert.InDelta(t, want, dst[i], 1e-12)
	}
	assert.Equal(t, 0.0, dst[4])

	require.NoError(t, p.Update([]float64{1, 1, 1, 1, 0}))
	assert.InDelta(t, 2, p.Mean(), 1e-12)
	assert.Equal(t, p.Mean(), p.Variance())

	// All-zero counts
	p, _ = NewPoisson([]float64{0, 0}, 1)
	require.NoError(t, p.Update([]float64{1, 1}))
	assert.Equal(t, minMean, p.Mean())
}

// The Tweedie density, including its point mass at zero, integrates to 1
// and has the stated mean.
func TestTweedieIntegrates(t *testing.T) {

	for _, pr := range []struct {
		mean, power, disp float64
	}{
		{2, 1.5, 1},
		{3, 1.3, 2},
	} {
		tw, err := NewTweedie(nil, pr.mean, pr.power, pr.disp)
		require.NoError(t, err)

		h := 0.001
		total := math.Exp(tw.logProb(0))
		var mean float64
		for i := 0; i < int(80/h); i++ {
			y := h * (float64(i) + 0.5)
			f := math.Exp(tw.logProb(y))
			total += f * h
			mean += y * f * h
		}

		assert.InDelta(t, 1, total, 1e-4, "%+v", pr)
		assert.InDelta(t, pr.mean, mean, 1e-4, "%+v", pr)
		assert.Equal(t, 0, tw.Truncated())
	}
}

func TestTweedieUpdate(t *testing.T) {

	obs := []float64{0, 1, 3, 0, 2}
	tw, err := NewTweedie(obs, 1, 1.5, 1)
	require.NoError(t, err)

	w := []float64{1, 1, 1, 1, 1}
	require.NoError(t, tw.Update(w))
	assert.InDelta(t, 1.2, tw.Mean(), 1e-12)
	assert.Equal(t, 1.5, tw.Power())

	var want float64
	for _, y := range obs {
		want += (y - 1.2) * (y - 1.2)
	}
	want /= 5 * math.Pow(1.2, 1.5)
	assert.InDelta(t, want, tw.Dispersion(), 1e-12)
	assert.InDelta(t, want*math.Pow(1.2, 1.5), tw.Variance(), 1e-12)

	dst := make([]float64, len(obs))
	tw.Evaluate(dst)
	assert.Equal(t, dst[0], dst[3])
	assert.Equal(t, 0.0, math.Exp(tw.logProb(-1)))
}

func TestNegativeBinomial(t *testing.T) {

	nb, err := NewNegativeBinomial([]float64{0, 1, 2, 3}, 2, 0.4)
	require.NoError(t, err)

	assert.InDelta(t, 3, nb.Mean(), 1e-12)
	assert.InDelta(t, 7.5, nb.Variance(), 1e-12)

	dst := make([]float64, 4)
	nb.Evaluate(dst)

	// P(k) = C(k+r-1, k) p^r (1-p)^k with r = 2
	for k := 0; k < 4; k++ {
		want := float64(k+1) * 0.16 * math.Pow(0.6, float64(k))
		assert.InDelta(t, want, dst[k], 1e-12, "k=%d", k)
	}

	// Probabilities over the support sum to 1
	nb, _ = NewNegativeBinomial(make([]float64, 400), 2, 0.4)
	for k := range nb.obs {
		nb.obs[k] = float64(k)
	}
	dst = make([]float64, 400)
	nb.Evaluate(dst)
	assert.InDelta(t, 1, floats.Sum(dst), 1e-10)
}

func TestNegativeBinomialUpdate(t *testing.T) {

	obs := []float64{0, 0, 1, 5, 10, 2}
	w := []float64{1, 1, 1, 1, 1, 1}

	nb, err := NewNegativeBinomial(obs, 1, 0.5)
	require.NoError(t, err)
	require.NoError(t, nb.Update(w))

	m := floats.Sum(obs) / 6
	var v float64
	for _, y := range obs {
		v += (y - m) * (y - m)
	}
	v /= 6

	assert.InDelta(t, m, nb.Mean(), 1e-10)
	assert.InDelta(t, v, nb.Variance(), 1e-10)

	// Underdispersed data leaves the parameters unchanged
	nb, _ = NewNegativeBinomial([]float64{2, 2, 3}, 1, 0.5)
	require.NoError(t, nb.Update([]float64{1, 1, 1}))
	assert.Equal(t, 1.0, nb.Size())
	assert.Equal(t, 0.5, nb.Prob())
}
