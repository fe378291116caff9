package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dimersim/internal/sim"
)

// Diffusivity returns the sample variance (ddof=1) of the finite entries
// of dx divided by 2 dt. The trailing NaN of an increment series is
// skipped.
func Diffusivity(dx []float64, dt float64) float64 {
	defined := make([]float64, 0, len(dx))
	for _, v := range dx {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) < 2 {
		return math.NaN()
	}
	return stat.Variance(defined, nil) / (2 * dt)
}

// MSD returns the mean squared displacement for lags 0..maxLag, each
// averaged over every available time origin.
func MSD(x []float64, maxLag int) []float64 {
	if maxLag > len(x)-1 {
		maxLag = len(x) - 1
	}
	if maxLag < 0 {
		return nil
	}
	res := make([]float64, maxLag+1)
	for lag := 1; lag <= maxLag; lag++ {
		sum := 0.0
		for i := 0; i+lag < len(x); i++ {
			d := x[i+lag] - x[i]
			sum += d * d
		}
		res[lag] = sum / float64(len(x)-lag)
	}
	return res
}

// DiffusivityFromMSD fits msd(t) = 2 D t through the origin by least squares.
func DiffusivityFromMSD(msd []float64, dt float64) float64 {
	if len(msd) < 2 {
		return math.NaN()
	}
	t := make([]float64, len(msd))
	for i := range t {
		t[i] = float64(i) * dt
	}
	return floats.Dot(t, msd) / floats.Dot(t, t) / 2
}

// ParticleSummary compares one particle's statistics with its configuration.
type ParticleSummary struct {
	Mean        float64
	Variance    float64
	D           float64
	DConfigured float64
	Ratio       float64
}

// Summarize computes a ParticleSummary per trajectory row. configured
// holds the diffusivity of each particle.
func Summarize(tr *sim.Trajectory, configured []float64) []ParticleSummary {
	out := make([]ParticleSummary, tr.Particles())
	for p := range out {
		x := tr.Positions(p)
		mean, variance := stat.MeanVariance(x, nil)
		d := Diffusivity(tr.Increments(p), tr.Dt)
		s := ParticleSummary{Mean: mean, Variance: variance, D: d, Ratio: math.NaN()}
		if p < len(configured) {
			s.DConfigured = configured[p]
			if configured[p] != 0 {
				s.Ratio = d / configured[p]
			}
		}
		out[p] = s
	}
	return out
}
