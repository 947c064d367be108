package gesture

import "github.com/teslashibe/go-facecount/pkg/facemesh"

// Value is a scalar that is either unset or holds a number.
// The zero Value is unset.
type Value struct {
	v   float64
	set bool
}

// Unset returns an uninitialized value
func Unset() Value {
	return Value{}
}

// ValueOf returns an initialized value holding x
func ValueOf(x float64) Value {
	return Value{v: x, set: true}
}

// Get returns the value and whether it is set
func (v Value) Get() (float64, bool) {
	return v.v, v.set
}

// IsSet reports whether the value holds a number
func (v Value) IsSet() bool {
	return v.set
}

// Or returns the value, or fallback when unset
func (v Value) Or(fallback float64) float64 {
	if !v.set {
		return fallback
	}
	return v.v
}

// EMA is an exponential moving average with a fixed weight for new samples.
type EMA struct {
	Alpha float64
}

// Update folds sample into state. The first sample seeds the average.
func (e EMA) Update(state Value, sample float64) Value {
	prev, ok := state.Get()
	if !ok {
		return ValueOf(sample)
	}
	return ValueOf(prev*(1-e.Alpha) + sample*e.Alpha)
}

// Smoothed holds one EMA state per metric
type Smoothed struct {
	EAR     Value
	MAR     Value
	BrowGap Value
}

// Sample returns the current smoothed values. Unset metrics read as 0.
func (s Smoothed) Sample() facemesh.Sample {
	return facemesh.Sample{
		EAR:     s.EAR.Or(0),
		MAR:     s.MAR.Or(0),
		BrowGap: s.BrowGap.Or(0),
	}
}
