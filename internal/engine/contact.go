package engine

// ContactTransition reports how a batch moved the contact state.
type ContactTransition int

const (
	// ContactAbsent means no contact before or after the batch.
	ContactAbsent ContactTransition = iota
	// ContactAcquired means the batch started a new acquisition.
	ContactAcquired
	// ContactPresent means contact continues.
	ContactPresent
	// ContactHeld means the batch looked empty but the debounce kept contact.
	ContactHeld
	// ContactLost means the debounce expired and contact is gone.
	ContactLost
)

// ContactReading summarises the presence evidence of one batch.
type ContactReading struct {
	Max             int
	Min             int
	LowFraction     float64
	BatchHasContact bool
}

// ContactDetector is a hysteretic finger-presence classifier. Contact is
// gained on the first good batch and lost only after DebounceBatches bad
// batches in a row.
type ContactDetector struct {
	policy      ContactPolicy
	threshold   int
	lowFraction float64
	minRange    int
	debounce    int

	inContact      bool
	consecutiveLow int
}

// NewContactDetector builds a detector from the contact fields of cfg.
func NewContactDetector(cfg Config) *ContactDetector {
	debounce := cfg.ContactDebounceBatches
	if debounce < 1 {
		debounce = 1
	}
	return &ContactDetector{
		policy:      cfg.ContactPolicy,
		threshold:   cfg.ContactThreshold,
		lowFraction: cfg.ContactLowFraction,
		minRange:    cfg.ContactMinRange,
		debounce:    debounce,
	}
}

// Update classifies batch and advances the hysteresis state.
func (d *ContactDetector) Update(batch []int) (ContactReading, ContactTransition) {
	r := d.evaluate(batch)

	if r.BatchHasContact {
		d.consecutiveLow = 0
		if !d.inContact {
			d.inContact = true
			return r, ContactAcquired
		}
		return r, ContactPresent
	}

	d.consecutiveLow++
	if !d.inContact {
		return r, ContactAbsent
	}
	if d.consecutiveLow >= d.debounce {
		d.inContact = false
		return r, ContactLost
	}
	return r, ContactHeld
}

func (d *ContactDetector) evaluate(batch []int) ContactReading {
	var r ContactReading
	if len(batch) == 0 {
		return r
	}
	r.Max, r.Min = batch[0], batch[0]
	low := 0
	for _, v := range batch {
		if v > r.Max {
			r.Max = v
		}
		if v < r.Min {
			r.Min = v
		}
		if v <= d.threshold {
			low++
		}
	}
	r.LowFraction = float64(low) / float64(len(batch))

	switch d.policy {
	case ContactRange:
		r.BatchHasContact = r.Max-r.Min >= d.minRange
	default:
		r.BatchHasContact = r.LowFraction < d.lowFraction
	}
	return r
}

// InContact reports the debounced contact state.
func (d *ContactDetector) InContact() bool { return d.inContact }

// ConsecutiveLow returns the number of consecutive batches without contact.
func (d *ContactDetector) ConsecutiveLow() int { return d.consecutiveLow }

// Reset forgets contact and the low-batch counter.
func (d *ContactDetector) Reset() {
	d.inContact = false
	d.consecutiveLow = 0
}
