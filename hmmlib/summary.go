package hmmlib

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/zoobzio/capitan"
)

// Number of rows of the iteration table between repeated headers
const headerEvery = 20

// WriteSummary writes the model parameters to the parameter logger.
// The optional state labels are used if provided.
func (hmm *ScaleHMM) WriteSummary(labels []string, title string) {

	if labels == nil {
		labels = make([]string, hmm.NState)
		for i := range labels {
			labels[i] = fmt.Sprintf("State %d", i)
		}
	}

	hmm.parlogger.Print(title)

	hmm.parlogger.Printf("Initial states distribution:")
	hmm.writeMatrix(hmm.init, hmm.NState, 1, labels, nil)
	hmm.parlogger.Printf("\n")

	hmm.parlogger.Printf("Transition matrix:")
	hmm.writeMatrix(hmm.trans.RawMatrix().Data, hmm.NState, hmm.NState, labels, labels)
	hmm.parlogger.Printf("\n")

	mean := make([]float64, hmm.NState)
	sd := make([]float64, hmm.NState)
	for i, d := range hmm.densities {
		mean[i] = d.Mean()
		sd[i] = math.Sqrt(d.Variance())
	}

	hmm.parlogger.Printf("Means:")
	hmm.writeMatrix(mean, hmm.NState, 1, labels, nil)
	hmm.parlogger.Printf("\n")

	hmm.parlogger.Printf("Standard deviations:")
	hmm.writeMatrix(sd, hmm.NState, 1, labels, nil)
	hmm.parlogger.Printf("\n")
}

// writeMatrix writes a row-major matrix in text format to the parameter
// logger.
func (hmm *ScaleHMM) writeMatrix(x []float64, nrow, ncol int, rowlabels, collabels []string) {

	var buf bytes.Buffer

	if rowlabels != nil && nrow != len(rowlabels) {
		hmm.msglogger.Printf("len(rowlabels) != nrow")
		rowlabels = nil
	}

	if collabels != nil {
		if ncol != len(collabels) {
			hmm.msglogger.Printf("len(collabels) != ncol")
		}
		if rowlabels != nil {
			_, _ = io.WriteString(&buf, fmt.Sprintf("%20s", ""))
		}
		for _, c := range collabels {
			_, _ = io.WriteString(&buf, fmt.Sprintf("%20s", c))
		}
		hmm.parlogger.Print(buf.String())
	}

	for i := 0; i < nrow; i++ {

		buf.Reset()

		if rowlabels != nil {
			_, _ = io.WriteString(&buf, fmt.Sprintf("%-20s", rowlabels[i]))
		}
		for j := 0; j < ncol; j++ {
			_, _ = io.WriteString(&buf, fmt.Sprintf("%20.4f", x[i*ncol+j]))
		}
		hmm.parlogger.Print(buf.String())
	}
}

// dumpParameters writes the full parameter set to the parameter log and
// announces it.
func (hmm *ScaleHMM) dumpParameters(ctx context.Context, title string) {
	hmm.WriteSummary(nil, title)
	capitan.Emit(ctx, ParametersDumped,
		FieldRunID.Field(hmm.runID),
		FieldIteration.Field(hmm.iter),
		FieldTitle.Field(title),
	)
}

// printIteration writes one row of the iteration table to the message
// log, preceded by the column headers every headerEvery rows.
func (hmm *ScaleHMM) printIteration(iter int, elapsed time.Duration) {

	if iter%headerEvery == 0 {
		hmm.msglogger.Printf("%10s%20s%20s%15s%20s%10s",
			"Iteration", "log(P)", "dlog(P)", "Diff in state", "Diff in posterior", "Time")
	}

	if iter == 0 {
		hmm.msglogger.Printf("%10d%20s%20s%15s%20s%10s", 0, "", "", "", "", "0s")
		return
	}

	hmm.msglogger.Printf("%10d%20.6f%20.6f%15d%20.6f%10s",
		iter, hmm.logP, hmm.dlogP, hmm.stateFlips, hmm.postDist, elapsed.Round(time.Millisecond))
}
