package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dimersim/internal/sim"
)

// maxPoints bounds the series handed to asciigraph; longer trajectories
// are decimated first.
const maxPoints = 2000

func decimate(v []float64, n int) []float64 {
	if len(v) <= n {
		return v
	}
	stride := (len(v) + n - 1) / n
	out := make([]float64, 0, n)
	for i := 0; i < len(v); i += stride {
		out = append(out, v[i])
	}
	return out
}

// PositionsChart plots every particle's position against the step index.
func PositionsChart(tr *sim.Trajectory, width, height int) string {
	series := make([][]float64, tr.Particles())
	legends := make([]string, tr.Particles())
	for p := range series {
		series[p] = decimate(tr.Positions(p), maxPoints)
		legends[p] = fmt.Sprintf("x%d", p+1)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(fmt.Sprintf("positions over %.4g s", tr.Duration())),
	)
}

// SeriesChart plots a single series, e.g. an MSD curve.
func SeriesChart(values []float64, caption string, width, height int) string {
	return asciigraph.Plot(decimate(values, maxPoints),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
