package density

import (
	"fmt"
	"math"
)

// Maximum number of terms summed in each tail of the Tweedie series
const maxTerms = 200

// Tweedie is a compound Poisson-gamma emission density with variance
// Dispersion * Mean^Power, for 1 < Power < 2.  It places positive mass at
// zero and is continuous for positive observations.
type Tweedie struct {
	obs []float64

	mean       float64
	power      float64
	dispersion float64

	// Number of evaluations in which the series was truncated
	truncated int
}

// NewTweedie returns a Tweedie density over obs.
func NewTweedie(obs []float64, mean, power, dispersion float64) (*Tweedie, error) {
	if !finite(mean) || mean <= 0 {
		return nil, fmt.Errorf("tweedie mean=%v: %w", mean, ErrParameter)
	}
	if !(power > 1 && power < 2) {
		return nil, fmt.Errorf("tweedie power=%v: %w", power, ErrParameter)
	}
	if !finite(dispersion) || dispersion <= 0 {
		return nil, fmt.Errorf("tweedie dispersion=%v: %w", dispersion, ErrParameter)
	}
	return &Tweedie{
		obs:        obs,
		mean:       mean,
		power:      power,
		dispersion: dispersion,
	}, nil
}

func (tw *Tweedie) Evaluate(dst []float64) {
	for t, y := range tw.obs {
		dst[t] = math.Exp(tw.logProb(y))
	}
}

// logProb evaluates the log density using the series expansion of
// Dunn and Smyth, summing outward from the largest term.
//
// http://www.statsci.org/smyth/pubs/tweediepdf-series-preprint.pdf
func (tw *Tweedie) logProb(y float64) float64 {

	if y < 0 {
		return math.Inf(-1)
	}

	pw := tw.power
	phi := tw.dispersion

	mn := tw.mean
	if mn < minMean {
		mn = minMean
	}
	lmn := math.Log(mn)
	lpr := (y*math.Exp((1-pw)*lmn)/(1-pw) - math.Exp((2-pw)*lmn)/(2-pw)) / phi

	// The series factor is 1 in this case
	if y == 0 {
		return lpr
	}

	alp := (2 - pw) / (1 - pw)
	lscale := math.Log(phi)

	lz := -alp*math.Log(y) + alp*math.Log(pw-1) - math.Log(2-pw) - (1-alp)*lscale
	kf := math.Pow(y, 2-pw) / (phi * (2 - pw))
	k := int(math.Round(kf))
	if k < 1 {
		k = 1
	}

	// Sum the upper tail.
	w0 := float64(k)*lz - lgamma(float64(k+1)) - lgamma(-alp*float64(k))
	ws := 1.0
	for j := k + 1; j < k+maxTerms; j++ {
		w1 := float64(j)*lz - lgamma(float64(j+1)) - lgamma(-alp*float64(j))
		if w1 < w0-37 {
			break
		}
		ws += math.Exp(w1 - w0)
		if j == k+maxTerms-1 {
			tw.truncated++
		}
	}

	// Sum the lower tail.
	for j := k - 1; j > 0; j-- {
		w1 := float64(j)*lz - lgamma(float64(j+1)) - lgamma(-alp*float64(j))
		if w1 < w0-37 {
			break
		}
		ws += math.Exp(w1 - w0)
	}

	lpr -= math.Log(y)
	lpr += w0 + math.Log(ws)

	return lpr
}

// Update sets the mean to the weighted sample mean and the dispersion to
// the weighted Pearson estimate.  The power is held fixed.
func (tw *Tweedie) Update(weights []float64) error {

	mean, _, err := weightedMoments(tw.obs, weights)
	if err != nil {
		return err
	}
	if mean < minMean {
		mean = minMean
	}

	var num, den float64
	vf := math.Pow(mean, tw.power)
	for t, y := range tw.obs {
		r := y - mean
		num += weights[t] * r * r / vf
		den += weights[t]
	}
	disp := num / den
	if disp < sdmin {
		disp = sdmin
	}

	if !finite(mean) || !finite(disp) {
		return fmt.Errorf("tweedie update mean=%v, dispersion=%v: %w", mean, disp, ErrParameter)
	}

	tw.mean = mean
	tw.dispersion = disp

	return nil
}

func (tw *Tweedie) Mean() float64 {
	return tw.mean
}

func (tw *Tweedie) Variance() float64 {
	return tw.dispersion * math.Pow(tw.mean, tw.power)
}

func (tw *Tweedie) Power() float64 {
	return tw.power
}

func (tw *Tweedie) Dispersion() float64 {
	return tw.dispersion
}

// Truncated returns the number of observations for which the series was
// cut off before its terms became negligible.
func (tw *Tweedie) Truncated() int {
	return tw.truncated
}
