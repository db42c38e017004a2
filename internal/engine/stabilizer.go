package engine

import (
	"math"
	"time"
)

// Phase is the acquisition phase surfaced with every result.
type Phase string

const (
	PhaseNoSignal    Phase = "no_signal"
	PhaseAcquiring   Phase = "acquiring"
	PhaseStabilizing Phase = "stabilizing"
	PhaseTracking    Phase = "tracking"
)

// Trend compares the newest accepted reading with the oldest in history.
type Trend string

const (
	TrendStable  Trend = "stable"
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
)

const trendDeadband = 3

// Reading is an accepted, jump-limited rate kept in history.
type Reading struct {
	BPM        int
	Confidence float64
	At         time.Time
}

// StabilizerOutput is the displayed state after one batch.
type StabilizerOutput struct {
	HeartRate      int
	Confidence     float64
	IsStable       bool
	Phase          Phase
	Trend          Trend
	LimitedBPM     int
	SmoothedBPM    int
	Batches        int
	HighZoneStreak int
	RequiredStreak int
	Suppressed     bool
}

// Stabilizer carries cross-batch history and turns per-batch rates into a
// displayable heart rate.
type Stabilizer struct {
	cfg Config

	history        []Reading // newest first
	batches        int
	startedAt      time.Time
	firstDisplayAt time.Time
	highZoneStreak int
	lastDisplayed  int
	smoothed       int
	hasSmoothed    bool

	last StabilizerOutput
}

// NewStabilizer returns a stabilizer in its initial state.
func NewStabilizer(cfg Config) *Stabilizer {
	s := &Stabilizer{cfg: cfg}
	s.Reset()
	return s
}

// Reset clears every carried value.
func (s *Stabilizer) Reset() {
	s.history = make([]Reading, 0, s.cfg.HistorySize)
	s.batches = 0
	s.startedAt = time.Time{}
	s.firstDisplayAt = time.Time{}
	s.highZoneStreak = 0
	s.lastDisplayed = 0
	s.smoothed = 0
	s.hasSmoothed = false
	s.last = StabilizerOutput{Phase: PhaseNoSignal, Trend: TrendStable}
}

// Start marks the beginning of a new acquisition.
func (s *Stabilizer) Start(now time.Time) {
	s.Reset()
	s.startedAt = now
}

// StartedAt returns the acquisition start time.
func (s *Stabilizer) StartedAt() time.Time { return s.startedAt }

// Last returns the output of the most recent Update.
func (s *Stabilizer) Last() StabilizerOutput { return s.last }

// History returns a copy of the accepted readings, newest first.
func (s *Stabilizer) History() []Reading {
	out := make([]Reading, len(s.history))
	copy(out, s.history)
	return out
}

// Update folds one batch's rate into the carried state.
func (s *Stabilizer) Update(r RateReading, now time.Time) StabilizerOutput {
	s.batches++

	out := StabilizerOutput{Confidence: r.Confidence}
	if r.BPM > 0 {
		limited, conf := s.limitJump(r.BPM, r.Confidence)
		s.push(Reading{BPM: limited, Confidence: conf, At: now})
		s.smooth(limited)
		if limited >= s.cfg.VigorousBPM {
			s.highZoneStreak++
		} else {
			s.highZoneStreak = 0
		}
		out.LimitedBPM = limited
		out.Confidence = conf
	}

	out.IsStable = s.isStable()
	out.Trend = s.trend()
	out.SmoothedBPM = s.smoothed
	out.Batches = s.batches
	out.HighZoneStreak = s.highZoneStreak

	if s.batches < s.cfg.MinBatches {
		out.Phase = PhaseAcquiring
		s.last = out
		return out
	}

	candidate := 0
	switch {
	case r.BPM == 0 && s.lastDisplayed > 0:
		candidate = s.lastDisplayed
	case len(s.history) > 0:
		candidate = s.dampen(out.IsStable)
	}

	if candidate > 0 && s.firstDisplayAt.IsZero() {
		s.firstDisplayAt = now
	}
	if candidate > 0 && s.cfg.WarmupSuppression {
		candidate, out.Suppressed, out.RequiredStreak = s.suppress(candidate, now.Sub(s.firstDisplayAt))
	}
	if candidate > 0 {
		s.lastDisplayed = candidate
	}

	out.HeartRate = candidate
	if out.IsStable {
		out.Phase = PhaseTracking
	} else {
		out.Phase = PhaseStabilizing
	}
	s.last = out
	return out
}

// limitJump clamps bpm to within MaxJump of the previous accepted reading.
func (s *Stabilizer) limitJump(bpm int, conf float64) (int, float64) {
	if !s.cfg.JumpLimit || len(s.history) == 0 {
		return bpm, conf
	}
	prior := s.history[0].BPM
	switch {
	case bpm > prior+s.cfg.MaxJump:
		return prior + s.cfg.MaxJump, conf * s.cfg.JumpConfidencePenalty
	case bpm < prior-s.cfg.MaxJump:
		return prior - s.cfg.MaxJump, conf * s.cfg.JumpConfidencePenalty
	default:
		return bpm, conf
	}
}

func (s *Stabilizer) push(r Reading) {
	size := s.cfg.HistorySize
	if size < 1 {
		size = 1
	}
	s.history = append([]Reading{r}, s.history...)
	if len(s.history) > size {
		s.history = s.history[:size]
	}
}

func (s *Stabilizer) smooth(bpm int) {
	if !s.hasSmoothed {
		s.smoothed = bpm
		s.hasSmoothed = true
		return
	}
	a := s.cfg.SmoothingAlpha
	s.smoothed = int(math.Round((1-a)*float64(s.smoothed) + a*float64(bpm)))
}

// isStable reports whether enough readings agree within the tolerance.
// Every pairwise gap being within tolerance is the same as max-min.
func (s *Stabilizer) isStable() bool {
	if len(s.history) < s.cfg.MinStableReadings || len(s.history) == 0 {
		return false
	}
	lo, hi := s.history[0].BPM, s.history[0].BPM
	for _, r := range s.history[1:] {
		if r.BPM < lo {
			lo = r.BPM
		}
		if r.BPM > hi {
			hi = r.BPM
		}
	}
	return hi-lo <= s.cfg.StabilityTolerance
}

func (s *Stabilizer) trend() Trend {
	if len(s.history) < 2 {
		return TrendStable
	}
	diff := s.history[0].BPM - s.history[len(s.history)-1].BPM
	switch {
	case diff > trendDeadband:
		return TrendRising
	case diff < -trendDeadband:
		return TrendFalling
	default:
		return TrendStable
	}
}

func (s *Stabilizer) dampen(stable bool) int {
	if s.cfg.Damping == DampExponential || stable {
		return s.smoothed
	}
	var sum int
	for _, r := range s.history {
		sum += r.BPM
	}
	return int(math.Round(float64(sum) / float64(len(s.history))))
}

// suppress holds implausible high readings during the first minutes after
// the first displayed value. It returns the capped value, whether a cap
// applied and the streak currently required to show a high-zone value.
func (s *Stabilizer) suppress(candidate int, elapsed time.Duration) (int, bool, int) {
	suppressed := false
	switch {
	case elapsed < s.cfg.StrictWindow:
		required := s.requiredStreak(elapsed)
		if candidate >= s.cfg.VigorousBPM && s.highZoneStreak < required {
			candidate = s.cfg.HoldBPM
			suppressed = true
		}
		if s.lastDisplayed > 0 && candidate > s.lastDisplayed+s.cfg.StrictStepCap {
			candidate = s.lastDisplayed + s.cfg.StrictStepCap
			suppressed = true
		}
		return candidate, suppressed, required
	case elapsed < s.cfg.LooseWindow:
		if s.lastDisplayed > 0 && candidate > s.lastDisplayed+s.cfg.LooseStepCap {
			candidate = s.lastDisplayed + s.cfg.LooseStepCap
			suppressed = true
		}
	}
	return candidate, suppressed, 0
}

// requiredStreak shrinks from BaseStreak+4 towards BaseStreak as contact
// persists through the strict window.
func (s *Stabilizer) requiredStreak(elapsed time.Duration) int {
	remaining := float64((s.cfg.StrictWindow - elapsed).Milliseconds())
	decay := float64(s.cfg.StreakDecay.Milliseconds())
	if decay <= 0 {
		return s.cfg.BaseStreak
	}
	req := int(math.Round(float64(s.cfg.BaseStreak) + remaining/decay))
	if req < s.cfg.BaseStreak {
		return s.cfg.BaseStreak
	}
	return req
}
