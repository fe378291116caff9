package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
	"github.com/san-kum/dimersim/internal/sim"
)

// Separator is the field separator of trajectory files.
const Separator = ';'

// Header is the column layout of trajectory files.
var Header = []string{"t", "x", "dx", "x2", "dx2"}

// DatWriter streams a two-particle trajectory as rows of t;x;dx;x2;dx2.
// A row is written once its successor is known, so the increment can be
// filled in; Close writes the final row with NaN increments.
type DatWriter struct {
	w     *csv.Writer
	prev  dynamo.State
	prevT float64
	has   bool
	rows  int
}

func NewDatWriter(w io.Writer) (*DatWriter, error) {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	return &DatWriter{w: cw, prev: make(dynamo.State, 2)}, nil
}

// OnStep implements sim.Observer.
func (d *DatWriter) OnStep(step int, t float64, x dynamo.State) error {
	if len(x) != 2 {
		return fmt.Errorf("%w: trajectory file holds 2 particles, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	if d.has {
		if err := d.writeRow(x[0]-d.prev[0], x[1]-d.prev[1]); err != nil {
			return err
		}
	}
	copy(d.prev, x)
	d.prevT = t
	d.has = true
	return nil
}

func (d *DatWriter) writeRow(dx1, dx2 float64) error {
	row := []string{
		formatFloat(d.prevT),
		formatFloat(d.prev[0]),
		formatFloat(dx1),
		formatFloat(d.prev[1]),
		formatFloat(dx2),
	}
	d.rows++
	return d.w.Write(row)
}

// Rows is the number of data rows written so far.
func (d *DatWriter) Rows() int { return d.rows }

// Close writes the pending row and flushes. It does not close the
// underlying writer.
func (d *DatWriter) Close() error {
	if d.has {
		if err := d.writeRow(math.NaN(), math.NaN()); err != nil {
			return err
		}
		d.has = false
	}
	d.w.Flush()
	return d.w.Error()
}

// WriteDat writes a complete trajectory.
func WriteDat(w io.Writer, tr *sim.Trajectory) error {
	dw, err := NewDatWriter(w)
	if err != nil {
		return err
	}
	times := tr.Times()
	for i := range times {
		if err := dw.OnStep(i, times[i], tr.State(i)); err != nil {
			return err
		}
	}
	return dw.Close()
}

// ReadDat parses a trajectory file. The time step is taken from the first
// two rows.
func ReadDat(r io.Reader) (*sim.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.FieldsPerRecord = len(Header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty trajectory file")
	}
	for i, h := range Header {
		if records[0][i] != h {
			return nil, fmt.Errorf("unexpected header %v", records[0])
		}
	}

	rows := records[1:]
	if len(rows) == 0 {
		return nil, fmt.Errorf("trajectory file has no data rows")
	}

	times := make([]float64, len(rows))
	X := mat.NewDense(2, len(rows), nil)
	for i, rec := range rows {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, Header[j], err)
			}
			vals[j] = v
		}
		times[i] = vals[0]
		X.Set(0, i, vals[1])
		X.Set(1, i, vals[3])
	}

	dt := 0.0
	if len(times) > 1 {
		dt = times[1] - times[0]
	}
	return sim.NewTrajectory(X, dt), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
