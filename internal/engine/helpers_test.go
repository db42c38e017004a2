package engine

import (
	"math"
	"math/rand"
)

// pulseWave generates a PPG-like waveform built from raised-cosine halves:
// a fast systolic upstroke over riseFrac of the period and a slow decay.
type pulseWave struct {
	bpm      float64
	base     float64
	amp      float64
	riseFrac float64
	noise    float64
	rng      *rand.Rand
	pos      int
}

func newPulseWave(bpm, noise float64, seed int64) *pulseWave {
	return &pulseWave{
		bpm:      bpm,
		base:     50000,
		amp:      3000,
		riseFrac: 0.2,
		noise:    noise,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (p *pulseWave) next(n int) []int {
	period := 60 * 150 / p.bpm
	out := make([]int, n)
	for i := range out {
		phase := math.Mod(float64(p.pos)/period, 1)
		var x float64
		if phase < p.riseFrac {
			x = 0.5 * (1 - math.Cos(math.Pi*phase/p.riseFrac))
		} else {
			x = 0.5 * (1 + math.Cos(math.Pi*(phase-p.riseFrac)/(1-p.riseFrac)))
		}
		v := p.base + p.amp*x
		if p.noise > 0 {
			v += p.amp * p.noise * (2*p.rng.Float64() - 1)
		}
		out[i] = int(math.Round(v))
		p.pos++
	}
	return out
}

func constantBatch(n, value int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// sineWave is a symmetric pulse: base + amp*sin(2*pi*n/period) with
// uniform noise of noise*amp.
type sineWave struct {
	period float64
	noise  float64
	rng    *rand.Rand
	pos    int
}

func newSineWave(bpm, noise float64, seed int64) *sineWave {
	return &sineWave{period: 60 * 150 / bpm, noise: noise, rng: rand.New(rand.NewSource(seed))}
}

func (w *sineWave) next(n int) []int {
	const base, amp = 50000.0, 3000.0
	out := make([]int, n)
	for i := range out {
		v := base + amp*math.Sin(2*math.Pi*float64(w.pos)/w.period)
		v += amp * w.noise * (2*w.rng.Float64() - 1)
		out[i] = int(math.Round(v))
		w.pos++
	}
	return out
}
