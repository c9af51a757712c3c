package trader

// VolumeWindowCapacity is the number of per-step samples kept by the
// institutional trader.
const VolumeWindowCapacity = 600

// VolumeWindow is a fixed-capacity trailing sum of per-step traded volume.
// Zero-alloc after construction.
type VolumeWindow struct {
	samples []int64
	head    int   // next write position; the oldest sample when full
	count   int   // number of retained samples
	sum     int64 // running sum of retained samples
}

// NewVolumeWindow creates a window holding at most capacity samples.
func NewVolumeWindow(capacity int) *VolumeWindow {
	if capacity <= 0 {
		panic("VolumeWindow: capacity must be positive")
	}
	return &VolumeWindow{samples: make([]int64, capacity)}
}

// Add records one step of volume, evicting the oldest sample when full.
func (w *VolumeWindow) Add(v int64) {
	if w.count == len(w.samples) {
		w.sum -= w.samples[w.head]
	} else {
		w.count++
	}
	w.samples[w.head] = v
	w.sum += v
	w.head = (w.head + 1) % len(w.samples)
}

// Sum returns the sum of retained samples.
func (w *VolumeWindow) Sum() int64 { return w.sum }

// Len returns the number of retained samples.
func (w *VolumeWindow) Len() int { return w.count }

// Cap returns the window capacity.
func (w *VolumeWindow) Cap() int { return len(w.samples) }
