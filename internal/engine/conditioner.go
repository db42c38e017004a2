package engine

import (
	"math"
)

// Conditioner turns a raw sample window into a peak-emphasised envelope with
// one value per input sample. Implementations hold no state between calls.
type Conditioner interface {
	Process(samples []int) []float64
}

// NewConditioner returns the conditioner selected by cfg.Conditioning.
func NewConditioner(cfg Config) Conditioner {
	if cfg.Conditioning == ConditionBandpass {
		return newBandpassConditioner(cfg)
	}
	return &MovingAverageConditioner{
		SmoothHalfWidth:   cfg.SmoothHalfWidth,
		EnvelopeHalfWidth: cfg.EnvelopeHalfWidth,
	}
}

// MovingAverageConditioner runs DC removal, centred smoothing, first
// difference, squaring and a second centred smoothing.
type MovingAverageConditioner struct {
	SmoothHalfWidth   int
	EnvelopeHalfWidth int
}

// Process implements Conditioner.
func (c *MovingAverageConditioner) Process(samples []int) []float64 {
	x := removeDC(samples)
	x = centeredMovingAverage(x, c.SmoothHalfWidth)
	x = firstDifference(x)
	square(x)
	return centeredMovingAverage(x, c.EnvelopeHalfWidth)
}

// BandpassConditioner replaces the smoothing stage with a second-order IIR
// band-pass and integrates the squared slope over a fixed time window.
type BandpassConditioner struct {
	b0, b2, a1, a2 float64
	halfWidth      int
}

func newBandpassConditioner(cfg Config) *BandpassConditioner {
	fs := float64(cfg.SampleRateHz)
	f0 := math.Sqrt(cfg.BandLowHz * cfg.BandHighHz)
	q := f0 / (cfg.BandHighHz - cfg.BandLowHz)
	w0 := 2 * math.Pi * f0 / fs
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	samples := int(cfg.IntegrationWindow.Seconds() * fs)
	return &BandpassConditioner{
		b0:        alpha / a0,
		b2:        -alpha / a0,
		a1:        -2 * math.Cos(w0) / a0,
		a2:        (1 - alpha) / a0,
		halfWidth: samples / 2,
	}
}

// Process implements Conditioner.
func (c *BandpassConditioner) Process(samples []int) []float64 {
	x := c.filter(removeDC(samples))
	x = firstDifference(x)
	square(x)
	return centeredMovingAverage(x, c.halfWidth)
}

// filter applies the biquad in direct form I (b1 is zero for a band-pass).
func (c *BandpassConditioner) filter(x []float64) []float64 {
	y := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		out := c.b0*v + c.b2*x2 - c.a1*y1 - c.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, out
		y[i] = out
	}
	return y
}

func removeDC(samples []int) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v)
	}
	mean := sum / float64(len(samples))
	for i, v := range samples {
		out[i] = float64(v) - mean
	}
	return out
}

// centeredMovingAverage averages x[i-k..i+k], shrinking the window at the
// sequence edges instead of padding.
func centeredMovingAverage(x []float64, k int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if k <= 0 {
		copy(out, x)
		return out
	}
	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	for i := range x {
		lo := i - k
		if lo < 0 {
			lo = 0
		}
		hi := i + k
		if hi > n-1 {
			hi = n - 1
		}
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}
	return out
}

// firstDifference returns x[i]-x[i-1] with a leading zero.
func firstDifference(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

func square(x []float64) {
	for i, v := range x {
		x[i] = v * v
	}
}
