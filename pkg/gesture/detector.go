package gesture

// Kind identifies a counted gesture
type Kind string

const (
	KindBlink Kind = "blink"
	KindBrow  Kind = "brow"
	KindMouth Kind = "mouth"
)

// Event is one confirmed gesture. Count is the new running total for Kind.
type Event struct {
	Kind  Kind `json:"kind"`
	Count int  `json:"count"`
}

// Counts are the running gesture totals shown to the user
type Counts struct {
	Blink int `json:"blink"`
	Brow  int `json:"brow"`
	Mouth int `json:"mouth"`
}

// Blink is a two-state hysteresis detector over the eye aspect ratio.
type Blink struct {
	closed bool
}

// Closed reports whether the eyes are currently considered closed
func (b *Blink) Closed() bool {
	return b.closed
}

// Step applies one frame. It returns true when the eyes reopen after a closure.
// Values between on and off never change state.
func (b *Blink) Step(ear, on, off float64) bool {
	if !b.closed && ear < on {
		b.closed = true
	}
	if b.closed && ear > off {
		b.closed = false
		return true
	}
	return false
}

// Debounce counts consecutive frames above a threshold and confirms an
// excursion when it ends, provided it lasted at least Frames frames.
// The run saturates at Frames.
type Debounce struct {
	Frames int
	run    int
}

// Run returns the current run length
func (d *Debounce) Run() int {
	return d.run
}

// Step applies one frame and returns true when a sustained excursion ends.
func (d *Debounce) Step(value, on float64) bool {
	if value > on {
		if d.run < d.Frames {
			d.run++
		}
		return false
	}
	fired := d.run >= d.Frames
	d.run = 0
	return fired
}

// Detector runs the blink, brow and mouth detectors and keeps the counts.
type Detector struct {
	blink  Blink
	brow   Debounce
	mouth  Debounce
	counts Counts
}

// NewDetector creates a detector whose debounce runs need frameThreshold frames
func NewDetector(frameThreshold int) *Detector {
	return &Detector{
		brow:  Debounce{Frames: frameThreshold},
		mouth: Debounce{Frames: frameThreshold},
	}
}

// Step applies one frame of smoothed metrics and returns the events it confirmed,
// in blink, brow, mouth order.
func (d *Detector) Step(ear, mar, brow float64, t Thresholds) []Event {
	var events []Event

	if d.blink.Step(ear, t.EAROn, t.EAROff) {
		d.counts.Blink++
		events = append(events, Event{Kind: KindBlink, Count: d.counts.Blink})
	}
	if d.brow.Step(brow, t.BrowOn) {
		d.counts.Brow++
		events = append(events, Event{Kind: KindBrow, Count: d.counts.Brow})
	}
	if d.mouth.Step(mar, t.MAROn) {
		d.counts.Mouth++
		events = append(events, Event{Kind: KindMouth, Count: d.counts.Mouth})
	}

	return events
}

// Counts returns the running totals
func (d *Detector) Counts() Counts {
	return d.counts
}

// EyesClosed reports the blink detector state
func (d *Detector) EyesClosed() bool {
	return d.blink.Closed()
}

// Runs returns the current brow and mouth run lengths
func (d *Detector) Runs() (brow, mouth int) {
	return d.brow.Run(), d.mouth.Run()
}

// Reset returns the detectors to their initial state. Counts are kept.
func (d *Detector) Reset() {
	d.blink = Blink{}
	d.brow.run = 0
	d.mouth.run = 0
}

// ResetCounts zeroes the running totals
func (d *Detector) ResetCounts() {
	d.counts = Counts{}
}
