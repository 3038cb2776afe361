package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func combineErrors(errors ...error) (err error) {
	for _, e := range errors {
		switch {
		case e == nil:
			// ignore
		case err == nil:
			err = e
		default:
			err = multierror.Append(err, e)
		}
	}
	return err
}

// llfPlot plots the log-likelihood against the iteration number.
func llfPlot(llf []float64) (*plot.Plot, error) {

	p := plot.New()
	p.Title.Text = "Log-likelihood"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "log(P)"

	pts := make(plotter.XYs, len(llf))
	for i, v := range llf {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	p.Add(line)

	return p, nil
}

// posteriorPlot draws one line per state showing its posterior
// probability over time.
func posteriorPlot(post *mat.Dense, labels []string) (*plot.Plot, error) {

	p := plot.New()
	p.Title.Text = "Posterior state probabilities"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Probability"
	p.Y.Min = 0
	p.Y.Max = 1

	nstate, ntime := post.Dims()
	for i := 0; i < nstate; i++ {

		pts := make(plotter.XYs, ntime)
		for t := 0; t < ntime; t++ {
			pts[t].X = float64(t)
			pts[t].Y = post.At(i, t)
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(labels[i], line)
	}

	return p, nil
}

func writePlot(p *plot.Plot, width, height vg.Length, output io.Writer, format string) error {
	w, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = w.WriteTo(output)
	return err
}

func savePlot(p *plot.Plot, width, height vg.Length, path string) (err error) {

	output, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = combineErrors(err, output.Close())
	}()

	return writePlot(p, width, height, output, "png")
}

// savePlots writes prefix_llf.png and prefix_posterior.png.
func savePlots(prefix string, llf []float64, post *mat.Dense) error {

	nstate, _ := post.Dims()
	labels := make([]string, nstate)
	for i := range labels {
		labels[i] = fmt.Sprintf("State %d", i)
	}

	lp, err := llfPlot(llf)
	if err != nil {
		return err
	}
	pp, err := posteriorPlot(post, labels)
	if err != nil {
		return err
	}

	return combineErrors(
		savePlot(lp, 6*vg.Inch, 4*vg.Inch, prefix+"_llf.png"),
		savePlot(pp, 10*vg.Inch, 4*vg.Inch, prefix+"_posterior.png"),
	)
}
