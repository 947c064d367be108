package gesture

// Baseline learns the user's resting brow gap and mouth ratio during warm-up.
// Eye aspect ratio is stable across people and uses a fixed reference instead.
type Baseline struct {
	Brow   Value
	MAR    Value
	Frames int // Face frames observed so far, capped at the warm-up length

	warmup    int
	retention float64
}

// NewBaseline creates an empty baseline that learns for warmup frames
func NewBaseline(warmup int, retention float64) Baseline {
	return Baseline{warmup: warmup, retention: retention}
}

// Observe folds one frame of smoothed values into the baseline.
// After warm-up the baseline is frozen and Observe returns false.
func (b *Baseline) Observe(brow, mar float64) bool {
	if b.Frames >= b.warmup {
		return false
	}
	b.Brow = b.learn(b.Brow, brow)
	b.MAR = b.learn(b.MAR, mar)
	b.Frames++
	return true
}

func (b *Baseline) learn(cur Value, v float64) Value {
	prev, ok := cur.Get()
	if !ok {
		return ValueOf(v)
	}
	return ValueOf(prev*b.retention + v*(1-b.retention))
}

// Settled reports whether warm-up has completed
func (b Baseline) Settled() bool {
	return b.Frames >= b.warmup
}

// Remaining returns the number of warm-up frames still to observe
func (b Baseline) Remaining() int {
	if b.Frames >= b.warmup {
		return 0
	}
	return b.warmup - b.Frames
}
