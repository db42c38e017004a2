package engine

import (
	"sort"
)

const (
	runningMaxPrimary   = 0.35
	runningMaxSecondary = 0.15
	percentilePrimary   = 0.5
	percentileSecondary = 0.2
)

// PeakResult is the output of one peak search.
type PeakResult struct {
	Indices       []int
	Threshold     float64
	LowThreshold  float64
	Retried       bool
	NoiseFraction float64
	Quality       float64
}

// PeakDetector extracts local maxima from a conditioned signal using an
// adaptive threshold and a refractory distance.
type PeakDetector struct {
	policy      PeakPolicy
	minDistance int
	minCount    int
}

// NewPeakDetector builds a detector from the peak fields of cfg.
func NewPeakDetector(cfg Config) *PeakDetector {
	return &PeakDetector{
		policy:      cfg.Peaks,
		minDistance: cfg.MinPeakDistance,
		minCount:    cfg.MinPeakCount,
	}
}

// Find returns ascending peak indices. A second, lower threshold pass runs
// when the first pass yields fewer than the minimum peak count.
func (d *PeakDetector) Find(signal []float64) PeakResult {
	var res PeakResult
	if len(signal) < 5 {
		return res
	}

	res.Threshold, res.LowThreshold = d.thresholds(signal)
	if res.Threshold <= 0 {
		return res
	}
	res.NoiseFraction = noiseBandFraction(signal, res.LowThreshold, res.Threshold)
	res.Quality = qualityFromNoise(res.NoiseFraction)

	res.Indices = d.scan(signal, res.Threshold, nil)
	if len(res.Indices) < d.minCount {
		res.Retried = true
		res.Indices = d.scan(signal, res.LowThreshold, res.Indices)
	}
	return res
}

func (d *PeakDetector) thresholds(signal []float64) (float64, float64) {
	if d.policy == PeakPercentile {
		sorted := make([]float64, len(signal))
		copy(sorted, signal)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		base := sorted[len(sorted)/4]
		return percentilePrimary * base, percentileSecondary * base
	}

	peak := signal[0]
	for _, v := range signal[1:] {
		if v > peak {
			peak = v
		}
	}
	return runningMaxPrimary * peak, runningMaxSecondary * peak
}

// scan walks [2, len-2) and accepts strict two-sided local maxima above
// threshold that keep minDistance from every accepted peak.
func (d *PeakDetector) scan(signal []float64, threshold float64, accepted []int) []int {
	peaks := make([]int, len(accepted), len(accepted)+8)
	copy(peaks, accepted)

	for i := 2; i < len(signal)-2; i++ {
		v := signal[i]
		if v <= threshold {
			continue
		}
		if v <= signal[i-1] || v <= signal[i-2] || v <= signal[i+1] || v <= signal[i+2] {
			continue
		}
		if !d.farFromAll(i, peaks) {
			continue
		}
		peaks = append(peaks, i)
	}
	sort.Ints(peaks)
	return peaks
}

func (d *PeakDetector) farFromAll(i int, peaks []int) bool {
	for _, p := range peaks {
		gap := i - p
		if gap < 0 {
			gap = -gap
		}
		if gap < d.minDistance {
			return false
		}
	}
	return true
}

// noiseBandFraction is the share of samples between the two thresholds.
func noiseBandFraction(signal []float64, low, high float64) float64 {
	n := 0
	for _, v := range signal {
		if v > low && v <= high {
			n++
		}
	}
	return float64(n) / float64(len(signal))
}

func qualityFromNoise(fraction float64) float64 {
	switch {
	case fraction > 0.4:
		return 0.1
	case fraction > 0.3:
		return 0.3
	case fraction > 0.2:
		return 0.6
	case fraction > 0.1:
		return 0.8
	default:
		return 1.0
	}
}
