package engine

import (
	"math"
	"sort"
)

// RateMethod names the strategy that produced a reading.
type RateMethod string

const (
	MethodNone     RateMethod = ""
	MethodInterval RateMethod = "interval"
	MethodSpan     RateMethod = "span"
	MethodDuration RateMethod = "duration"
)

// RateReading is one batch's rate estimate. BPM 0 means no computable rate.
type RateReading struct {
	BPM        int        `json:"bpm"`
	Confidence float64    `json:"confidence"`
	Method     RateMethod `json:"method,omitempty"`
}

// rateStrategy returns a fractional BPM and a dispersion score in [0,1].
type rateStrategy struct {
	method   RateMethod
	minPeaks int
	weight   float64
	estimate func(e *RateEstimator, peaks []int, windowLen int) (float64, float64, bool)
}

var rateStrategies = []rateStrategy{
	{method: MethodInterval, minPeaks: 3, weight: 1.0, estimate: (*RateEstimator).byInterval},
	{method: MethodSpan, minPeaks: 4, weight: 0.7, estimate: (*RateEstimator).bySpan},
	{method: MethodDuration, minPeaks: 3, weight: 0.5, estimate: (*RateEstimator).byDuration},
}

// RateEstimator converts peak positions into beats per minute, trying each
// strategy in order until one lands inside the physiological bounds.
type RateEstimator struct {
	sampleRate    float64
	minHR, maxHR  int
	minPeaks      int
	madMultiplier float64
	harmonicTol   float64
}

// NewRateEstimator builds an estimator from cfg.
func NewRateEstimator(cfg Config) *RateEstimator {
	return &RateEstimator{
		sampleRate:    float64(cfg.SampleRateHz),
		minHR:         cfg.MinHR,
		maxHR:         cfg.MaxHR,
		minPeaks:      cfg.MinPeakCount,
		madMultiplier: cfg.MADMultiplier,
		harmonicTol:   cfg.HarmonicTolerance,
	}
}

// Fundamental halves r when it sits within the harmonic tolerance of twice
// spectralBPM. A symmetric pulse puts one envelope hump on each slope, so
// the peak spacing lands on the second harmonic. r is returned unchanged
// when no spectral estimate exists or the halved rate is implausible.
func (e *RateEstimator) Fundamental(r RateReading, spectralBPM float64) (RateReading, bool) {
	if r.BPM == 0 || spectralBPM <= 0 || e.harmonicTol <= 0 {
		return r, false
	}
	doubled := 2 * spectralBPM
	if math.Abs(float64(r.BPM)-doubled) > e.harmonicTol*doubled {
		return r, false
	}
	half := int(math.Round(float64(r.BPM) / 2))
	if half < e.minHR || half > e.maxHR {
		return r, false
	}
	r.BPM = half
	return r, true
}

// Compute estimates the rate for peaks found in a window of windowLen
// samples. quality is the peak detector's noise score.
func (e *RateEstimator) Compute(peaks []int, windowLen int, quality float64) RateReading {
	if len(peaks) < e.minPeaks || windowLen <= 0 {
		return RateReading{}
	}
	for _, s := range rateStrategies {
		if len(peaks) < s.minPeaks {
			continue
		}
		raw, dispersion, ok := s.estimate(e, peaks, windowLen)
		if !ok {
			continue
		}
		bpm := int(math.Round(raw))
		if bpm < e.minHR || bpm > e.maxHR {
			continue
		}
		conf := s.weight * (0.6*dispersion + 0.4*quality)
		return RateReading{BPM: bpm, Confidence: clamp01(conf), Method: s.method}
	}
	return RateReading{}
}

// byInterval takes the median peak-to-peak gap after dropping gaps outside
// the rate bounds and gaps beyond madMultiplier MADs of the median.
func (e *RateEstimator) byInterval(peaks []int, _ int) (float64, float64, bool) {
	minGap := 60 * e.sampleRate / float64(e.maxHR)
	maxGap := 60 * e.sampleRate / float64(e.minHR)

	valid := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		gap := float64(peaks[i] - peaks[i-1])
		if gap >= minGap && gap <= maxGap {
			valid = append(valid, gap)
		}
	}
	if len(valid) < 2 {
		return 0, 0, false
	}

	m := median(valid)
	mad := median(absDeviations(valid, m))
	limit := e.madMultiplier * math.Max(mad, 1)
	survivors := make([]float64, 0, len(valid))
	for _, g := range valid {
		if math.Abs(g-m) <= limit {
			survivors = append(survivors, g)
		}
	}

	var chosen float64
	if len(survivors) >= 2 {
		chosen = median(survivors)
	} else {
		survivors = valid
		chosen = mean(valid)
	}
	if chosen <= 0 {
		return 0, 0, false
	}
	return 60 * e.sampleRate / chosen, dispersionScore(survivors), true
}

func (e *RateEstimator) bySpan(peaks []int, _ int) (float64, float64, bool) {
	span := peaks[len(peaks)-1] - peaks[0]
	if span <= 0 {
		return 0, 0, false
	}
	bpm := float64(len(peaks)-1) * 60 * e.sampleRate / float64(span)
	return bpm, dispersionScore(gaps(peaks)), true
}

func (e *RateEstimator) byDuration(peaks []int, windowLen int) (float64, float64, bool) {
	bpm := float64(len(peaks)-1) * 60 * e.sampleRate / float64(windowLen)
	return bpm, dispersionScore(gaps(peaks)), true
}

// dispersionScore maps the coefficient of variation of xs to [0,1];
// tighter spacing scores higher.
func dispersionScore(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	if m == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	cv := math.Sqrt(ss/float64(len(xs)-1)) / m
	return clamp01(1 - 4*cv)
}

func gaps(peaks []int) []float64 {
	out := make([]float64, 0, len(peaks))
	for i := 1; i < len(peaks); i++ {
		out = append(out, float64(peaks[i]-peaks[i-1]))
	}
	return out
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func absDeviations(xs []float64, center float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Abs(x - center)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
