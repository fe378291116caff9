package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns |X_k|^2 / n for k = 0..n/2 of the real series data.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	spectrum := fft.FFTReal(data)
	ps := make([]float64, n/2+1)

	for i := range ps {
		a := cmplx.Abs(spectrum[i])
		ps[i] = a * a / float64(n)
	}

	return ps
}

// DominantFrequency returns the frequency of the largest non-zero bin of
// a power spectrum computed from n samples spaced dt apart.
func DominantFrequency(ps []float64, n int, dt float64) float64 {
	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	return float64(maxIdx) / (float64(n) * dt)
}
