package storage

import (
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/dimersim/internal/sim"
)

// jsonFloat encodes NaN as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type ExportData struct {
	*RunMetadata
	Times []jsonFloat `json:"t"`
	X     []jsonFloat `json:"x"`
	DX    []jsonFloat `json:"dx"`
	X2    []jsonFloat `json:"x2"`
	DX2   []jsonFloat `json:"dx2"`
}

func toJSON(v []float64) []jsonFloat {
	out := make([]jsonFloat, len(v))
	for i := range v {
		out[i] = jsonFloat(v[i])
	}
	return out
}

// ExportJSON writes the run metadata together with the trajectory columns.
func ExportJSON(w io.Writer, meta *RunMetadata, tr *sim.Trajectory) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       toJSON(tr.Times()),
		X:           toJSON(tr.Positions(0)),
		DX:          toJSON(tr.Increments(0)),
		X2:          toJSON(tr.Positions(1)),
		DX2:         toJSON(tr.Increments(1)),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
