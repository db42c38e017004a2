package engine

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const spectralFFTSize = 4096

// DominantBPM returns the strongest periodicity of x inside [minBPM, maxBPM]
// using a Hann-windowed, zero-padded FFT with parabolic peak interpolation.
// It returns 0 when x is too short or carries no energy in the band.
func DominantBPM(x []float64, sampleRate float64, minBPM, maxBPM int) float64 {
	if len(x) < 16 || sampleRate <= 0 {
		return 0
	}
	n := len(x)
	if n > spectralFFTSize {
		x = x[n-spectralFFTSize:]
		n = spectralFFTSize
	}

	hann := window.Hann(n)
	padded := make([]float64, spectralFFTSize)
	for i, v := range x {
		padded[i] = v * hann[i]
	}
	spectrum := fft.FFTReal(padded)

	binHz := sampleRate / spectralFFTSize
	lo := int(float64(minBPM) / 60 / binHz)
	hi := int(math.Ceil(float64(maxBPM) / 60 / binHz))
	if lo < 1 {
		lo = 1
	}
	if hi > spectralFFTSize/2-1 {
		hi = spectralFFTSize/2 - 1
	}

	best, bestMag := -1, 0.0
	for i := lo; i <= hi; i++ {
		if m := cmplx.Abs(spectrum[i]); m > bestMag {
			best, bestMag = i, m
		}
	}
	if best < 0 {
		return 0
	}

	delta := 0.0
	y1 := cmplx.Abs(spectrum[best-1])
	y3 := cmplx.Abs(spectrum[best+1])
	if den := 2 * (2*bestMag - y1 - y3); den != 0 {
		delta = (y3 - y1) / den
	}
	return (float64(best) + delta) * binHz * 60
}
