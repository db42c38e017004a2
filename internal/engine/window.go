package engine

// SampleWindow is a fixed-capacity buffer holding the most recent raw samples.
type SampleWindow struct {
	buf      []int
	capacity int
}

// NewSampleWindow returns an empty window that keeps at most capacity samples.
func NewSampleWindow(capacity int) *SampleWindow {
	return &SampleWindow{
		buf:      make([]int, 0, capacity),
		capacity: capacity,
	}
}

// Append concatenates batch and drops the oldest samples beyond capacity.
func (w *SampleWindow) Append(batch []int) {
	w.buf = append(w.buf, batch...)
	if over := len(w.buf) - w.capacity; over > 0 {
		n := copy(w.buf, w.buf[over:])
		w.buf = w.buf[:n]
	}
}

// Len returns the number of buffered samples.
func (w *SampleWindow) Len() int { return len(w.buf) }

// Samples returns a copy of the buffered samples, oldest first.
func (w *SampleWindow) Samples() []int {
	out := make([]int, len(w.buf))
	copy(out, w.buf)
	return out
}

// Reset empties the window.
func (w *SampleWindow) Reset() { w.buf = w.buf[:0] }
