package hmmsim

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
)

// Dataset is a simulated sequence together with the parameters that
// generated it.
type Dataset struct {

	// The observed sequence
	Obs []float64

	// The true state sequence
	State []int

	// Number of states
	NState int

	// Row-major transition matrix and initial distribution
	Trans []float64
	Init  []float64

	// Name of the emission family, and its parameters for each state
	Family string
	Params [][]float64
}

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

// Write encodes the dataset to w as a gzip-compressed gob.
func (ds *Dataset) Write(w io.Writer) (err error) {

	gid := gzip.NewWriter(w)
	defer func() {
		err = combineErrors(err, gid.Close())
	}()

	enc := gob.NewEncoder(gid)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("hmmsim: encode: %w", err)
	}

	return nil
}

// WriteFile writes the dataset to a gzip-compressed gob file.
func (ds *Dataset) WriteFile(fname string) (err error) {

	fid, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		err = combineErrors(err, fid.Close())
	}()

	return ds.Write(fid)
}

// Read decodes a dataset written by Write.
func Read(r io.Reader) (*Dataset, error) {

	gid, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("hmmsim: %w", err)
	}
	defer gid.Close()

	dec := gob.NewDecoder(gid)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("hmmsim: decode: %w", err)
	}

	if err := ds.validate(); err != nil {
		return nil, err
	}

	return &ds, nil
}

// ReadFile reads a dataset from a gzip-compressed gob file.
func ReadFile(fname string) (*Dataset, error) {

	fid, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	return Read(fid)
}

func (ds *Dataset) validate() error {
	n := ds.NState
	switch {
	case len(ds.Obs) == 0:
		return fmt.Errorf("hmmsim: empty sequence: %w", ErrDimension)
	case ds.State != nil && len(ds.State) != len(ds.Obs):
		return fmt.Errorf("hmmsim: %d states for %d observations: %w", len(ds.State), len(ds.Obs), ErrDimension)
	case ds.Trans != nil && len(ds.Trans) != n*n:
		return fmt.Errorf("hmmsim: transition length %d with %d states: %w", len(ds.Trans), n, ErrDimension)
	case ds.Init != nil && len(ds.Init) != n:
		return fmt.Errorf("hmmsim: initial length %d with %d states: %w", len(ds.Init), n, ErrDimension)
	}
	return nil
}
