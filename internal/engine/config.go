package engine

import "time"

// ContactPolicy selects how finger presence is derived from a raw batch.
type ContactPolicy string

const (
	// ContactThreshold counts samples at or below an absolute intensity floor.
	ContactThreshold ContactPolicy = "threshold"
	// ContactRange uses the peak-to-peak amplitude of the batch.
	ContactRange ContactPolicy = "range"
)

// ConditioningPolicy selects the filter chain applied to the sample window.
type ConditioningPolicy string

const (
	ConditionMovingAverage ConditioningPolicy = "moving_average"
	ConditionBandpass      ConditioningPolicy = "bandpass"
)

// PeakPolicy selects how the peak threshold is derived from the conditioned signal.
type PeakPolicy string

const (
	// PeakRunningMax thresholds against a fraction of the signal maximum.
	PeakRunningMax PeakPolicy = "running_max"
	// PeakPercentile thresholds against the upper-quartile value of the signal.
	PeakPercentile PeakPolicy = "percentile"
)

// DampingPolicy selects what is displayed while readings disagree.
type DampingPolicy string

const (
	// DampConsensus shows the history mean while unstable and the smoothed value otherwise.
	DampConsensus DampingPolicy = "consensus"
	// DampExponential always shows the exponentially smoothed value.
	DampExponential DampingPolicy = "exponential"
)

// Config holds every tunable of the heart-rate pipeline. The zero value is
// not usable; start from DefaultConfig and override fields.
type Config struct {
	SampleRateHz     int `mapstructure:"sample_rate_hz"`
	WindowCapacity   int `mapstructure:"window_capacity"`
	MinWindowSamples int `mapstructure:"min_window_samples"`
	MinBatchSamples  int `mapstructure:"min_batch_samples"`

	ContactPolicy          ContactPolicy `mapstructure:"contact_policy"`
	ContactThreshold       int           `mapstructure:"contact_threshold"`
	ContactLowFraction     float64       `mapstructure:"contact_low_fraction"`
	ContactMinRange        int           `mapstructure:"contact_min_range"`
	ContactDebounceBatches int           `mapstructure:"contact_debounce_batches"`

	Conditioning      ConditioningPolicy `mapstructure:"conditioning"`
	SmoothHalfWidth   int                `mapstructure:"smooth_half_width"`
	EnvelopeHalfWidth int                `mapstructure:"envelope_half_width"`
	BandLowHz         float64            `mapstructure:"band_low_hz"`
	BandHighHz        float64            `mapstructure:"band_high_hz"`
	IntegrationWindow time.Duration      `mapstructure:"integration_window"`

	Peaks           PeakPolicy `mapstructure:"peaks"`
	MinPeakDistance int        `mapstructure:"min_peak_distance"`
	MinPeakCount    int        `mapstructure:"min_peak_count"`

	MinHR         int     `mapstructure:"min_hr"`
	MaxHR         int     `mapstructure:"max_hr"`
	MADMultiplier float64 `mapstructure:"mad_multiplier"`

	// HarmonicTolerance is the relative band around twice the spectral rate
	// inside which an interval rate is treated as doubled and halved.
	HarmonicTolerance float64 `mapstructure:"harmonic_tolerance"`

	HistorySize           int           `mapstructure:"history_size"`
	MinBatches            int           `mapstructure:"min_batches"`
	JumpLimit             bool          `mapstructure:"jump_limit"`
	MaxJump               int           `mapstructure:"max_jump"`
	JumpConfidencePenalty float64       `mapstructure:"jump_confidence_penalty"`
	SmoothingAlpha        float64       `mapstructure:"smoothing_alpha"`
	StabilityTolerance    int           `mapstructure:"stability_tolerance"`
	MinStableReadings     int           `mapstructure:"min_stable_readings"`
	Damping               DampingPolicy `mapstructure:"damping"`

	// Warm-up suppression. These constants are hand-calibrated against
	// sensor settling behaviour; change them only with recorded data.
	WarmupSuppression bool          `mapstructure:"warmup_suppression"`
	VigorousBPM       int           `mapstructure:"vigorous_bpm"`
	HoldBPM           int           `mapstructure:"hold_bpm"`
	StrictWindow      time.Duration `mapstructure:"strict_window"`
	LooseWindow       time.Duration `mapstructure:"loose_window"`
	StrictStepCap     int           `mapstructure:"strict_step_cap"`
	LooseStepCap      int           `mapstructure:"loose_step_cap"`
	BaseStreak        int           `mapstructure:"base_streak"`
	StreakDecay       time.Duration `mapstructure:"streak_decay"`

	SpectralCheck bool `mapstructure:"spectral_check"`
}

// DefaultConfig returns the canonical pipeline for a 150 Hz finger sensor
// delivering 500-sample batches.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:     150,
		WindowCapacity:   1000,
		MinWindowSamples: 750,
		MinBatchSamples:  100,

		ContactPolicy:          ContactThreshold,
		ContactThreshold:       18000,
		ContactLowFraction:     0.70,
		ContactMinRange:        2000,
		ContactDebounceBatches: 2,

		Conditioning:      ConditionMovingAverage,
		SmoothHalfWidth:   5,
		EnvelopeHalfWidth: 8,
		BandLowHz:         0.7,
		BandHighHz:        3.5,
		IntegrationWindow: 150 * time.Millisecond,

		Peaks:           PeakRunningMax,
		MinPeakDistance: 38,
		MinPeakCount:    3,

		MinHR:         40,
		MaxHR:         200,
		MADMultiplier: 2.5,

		HarmonicTolerance: 0.10,

		HistorySize:           4,
		MinBatches:            5,
		JumpLimit:             true,
		MaxJump:               15,
		JumpConfidencePenalty: 0.7,
		SmoothingAlpha:        0.15,
		StabilityTolerance:    15,
		MinStableReadings:     1,
		Damping:               DampConsensus,

		WarmupSuppression: true,
		VigorousBPM:       130,
		HoldBPM:           125,
		StrictWindow:      60 * time.Second,
		LooseWindow:       180 * time.Second,
		StrictStepCap:     5,
		LooseStepCap:      8,
		BaseStreak:        5,
		StreakDecay:       15 * time.Second,

		SpectralCheck: true,
	}
}
