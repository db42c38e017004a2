// Package engine estimates heart rate from batches of raw PPG infrared
// samples. An Engine is single-session state: feed it batches for one device
// in order and never call ProcessBatch concurrently on the same instance.
package engine

import (
	"math"
	"time"
)

// Debug carries intermediate values of one batch for diagnostics.
type Debug struct {
	Reason                string  `json:"reason,omitempty"`
	BatchSamples          int     `json:"batchSamples"`
	WindowSamples         int     `json:"windowSamples"`
	MaxIntensity          int     `json:"maxIntensity"`
	LowFraction           float64 `json:"lowFraction"`
	ConsecutiveLowBatches int     `json:"consecutiveLowBatches"`
	PeakCount             int     `json:"peakCount"`
	PeakThreshold         float64 `json:"peakThreshold"`
	PeakRetry             bool    `json:"peakRetry"`
	Method                string  `json:"method,omitempty"`
	RawBPM                int     `json:"rawBpm"`
	LimitedBPM            int     `json:"limitedBpm"`
	SmoothedBPM           int     `json:"smoothedBpm"`
	SpectralBPM           float64 `json:"spectralBpm,omitempty"`
	HarmonicCorrected     bool    `json:"harmonicCorrected"`
	BatchesReceived       int     `json:"batchesReceived"`
	HighZoneStreak        int     `json:"highZoneStreak"`
	RequiredStreak        int     `json:"requiredStreak,omitempty"`
	Suppressed            bool    `json:"suppressed"`
	ElapsedMs             int64   `json:"elapsedMs"`
}

// Result is the record produced for every batch.
type Result struct {
	HeartRate      int     `json:"heartRate"`
	FingerDetected bool    `json:"fingerDetected"`
	Zone           string  `json:"zone"`
	ZoneColor      string  `json:"zoneColor"`
	Quality        float64 `json:"quality"`
	Confidence     float64 `json:"confidence"`
	Trend          Trend   `json:"trend"`
	IsStable       bool    `json:"isStable"`
	Phase          Phase   `json:"phase"`
	Debug          Debug   `json:"debug"`
}

// Debug reasons.
const (
	ReasonShortBatch  = "short_batch"
	ReasonNoContact   = "no_contact"
	ReasonContactLost = "contact_lost"
	ReasonDebounce    = "contact_debounce"
	ReasonBuffering   = "buffering"
)

// NoSignal returns the canonical record for a batch without usable contact.
func NoSignal(reason string) Result {
	z := ClassifyZone(0)
	return Result{
		Zone:      z.Name,
		ZoneColor: z.Color,
		Trend:     TrendStable,
		Phase:     PhaseNoSignal,
		Debug:     Debug{Reason: reason},
	}
}

// Engine runs the full pipeline: contact detection, conditioning, peak
// detection, rate estimation and stabilisation.
type Engine struct {
	cfg         Config
	window      *SampleWindow
	contact     *ContactDetector
	conditioner Conditioner
	peaks       *PeakDetector
	rate        *RateEstimator
	stabilizer  *Stabilizer
	quality     float64
}

// New builds an engine for one device session.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:         cfg,
		window:      NewSampleWindow(cfg.WindowCapacity),
		contact:     NewContactDetector(cfg),
		conditioner: NewConditioner(cfg),
		peaks:       NewPeakDetector(cfg),
		rate:        NewRateEstimator(cfg),
		stabilizer:  NewStabilizer(cfg),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reset returns the engine to its initial state, including contact.
func (e *Engine) Reset() {
	e.contact.Reset()
	e.resetAcquisition()
}

func (e *Engine) resetAcquisition() {
	e.window.Reset()
	e.stabilizer.Reset()
	e.quality = 0
}

// ProcessBatch consumes one batch of raw samples taken at the configured
// sample rate and returns the displayable state. It never fails: short or
// empty batches yield the no-signal record and leave state untouched.
func (e *Engine) ProcessBatch(samples []int, now time.Time) Result {
	if len(samples) < e.cfg.MinBatchSamples {
		res := NoSignal(ReasonShortBatch)
		res.Debug.BatchSamples = len(samples)
		return res
	}

	reading, transition := e.contact.Update(samples)
	switch transition {
	case ContactAbsent, ContactLost:
		e.resetAcquisition()
		reason := ReasonNoContact
		if transition == ContactLost {
			reason = ReasonContactLost
		}
		res := NoSignal(reason)
		e.fillContactDebug(&res.Debug, samples, reading)
		return res
	case ContactHeld:
		res := e.assemble(e.stabilizer.Last(), now)
		res.Debug.Reason = ReasonDebounce
		e.fillContactDebug(&res.Debug, samples, reading)
		return res
	case ContactAcquired:
		e.resetAcquisition()
		e.stabilizer.Start(now)
	}

	e.window.Append(samples)

	var (
		rate      RateReading
		peaks     PeakResult
		spectral  float64
		corrected bool
	)
	if e.window.Len() >= e.cfg.MinWindowSamples {
		raw := e.window.Samples()
		signal := e.conditioner.Process(raw)
		peaks = e.peaks.Find(signal)
		rate = e.rate.Compute(peaks.Indices, len(signal), peaks.Quality)
		e.quality = peaks.Quality
		if e.cfg.SpectralCheck {
			smoothed := centeredMovingAverage(removeDC(raw), e.cfg.SmoothHalfWidth)
			spectral = DominantBPM(smoothed, float64(e.cfg.SampleRateHz), e.cfg.MinHR, e.cfg.MaxHR)
			rate, corrected = e.rate.Fundamental(rate, spectral)
		}
	}

	out := e.stabilizer.Update(rate, now)
	res := e.assemble(out, now)
	d := &res.Debug
	e.fillContactDebug(d, samples, reading)
	if e.window.Len() < e.cfg.MinWindowSamples {
		d.Reason = ReasonBuffering
	}
	d.PeakCount = len(peaks.Indices)
	d.PeakThreshold = peaks.Threshold
	d.PeakRetry = peaks.Retried
	d.Method = string(rate.Method)
	d.RawBPM = rate.BPM
	d.SpectralBPM = math.Round(spectral*10) / 10
	d.HarmonicCorrected = corrected
	return res
}

func (e *Engine) assemble(out StabilizerOutput, now time.Time) Result {
	z := ClassifyZone(out.HeartRate)
	res := Result{
		HeartRate:      out.HeartRate,
		FingerDetected: true,
		Zone:           z.Name,
		ZoneColor:      z.Color,
		Quality:        e.quality,
		Confidence:     clamp01(out.Confidence),
		Trend:          out.Trend,
		IsStable:       out.IsStable,
		Phase:          out.Phase,
	}
	if res.Trend == "" {
		res.Trend = TrendStable
	}
	if res.Phase == PhaseNoSignal || res.Phase == "" {
		res.Phase = PhaseAcquiring
	}
	res.Debug = Debug{
		WindowSamples:   e.window.Len(),
		LimitedBPM:      out.LimitedBPM,
		SmoothedBPM:     out.SmoothedBPM,
		BatchesReceived: out.Batches,
		HighZoneStreak:  out.HighZoneStreak,
		RequiredStreak:  out.RequiredStreak,
		Suppressed:      out.Suppressed,
	}
	if started := e.stabilizer.StartedAt(); !started.IsZero() {
		res.Debug.ElapsedMs = now.Sub(started).Milliseconds()
	}
	return res
}

func (e *Engine) fillContactDebug(d *Debug, samples []int, r ContactReading) {
	d.BatchSamples = len(samples)
	d.MaxIntensity = r.Max
	d.LowFraction = r.LowFraction
	d.ConsecutiveLowBatches = e.contact.ConsecutiveLow()
}
