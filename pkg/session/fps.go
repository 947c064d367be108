package session

import "time"

// TargetFPS is the rate at which the FPS bar is full
const TargetFPS = 60

// FPSMeter measures the inference callback rate from consecutive timestamps.
// Every reading is 1/Δt of the last two callbacks, without averaging.
type FPSMeter struct {
	last time.Time
	fps  float64
}

// Tick records a callback. It returns false on the first callback after a
// reset and when the clock did not advance.
func (m *FPSMeter) Tick(now time.Time) (float64, bool) {
	prev := m.last
	m.last = now
	if prev.IsZero() {
		return 0, false
	}

	dt := now.Sub(prev).Seconds()
	if dt <= 0 {
		return 0, false
	}
	m.fps = 1 / dt
	return m.fps, true
}

// FPS returns the last reading
func (m *FPSMeter) FPS() float64 {
	return m.fps
}

// Reset forgets the previous timestamp
func (m *FPSMeter) Reset() {
	*m = FPSMeter{}
}

// FPSBar returns the bar fill for a frame rate, 0-100
func FPSBar(fps float64) float64 {
	pct := fps / TargetFPS * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
