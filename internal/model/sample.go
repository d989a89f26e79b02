package model

import "time"

// Float is an optional measurement. The zero value is absent, so a missing
// reading can never be confused with a measured zero.
type Float struct {
	V     float64
	Valid bool
}

// Some returns a present value.
func Some(v float64) Float { return Float{V: v, Valid: true} }

// None returns an absent value.
func None() Float { return Float{} }

// FromPtr converts a nullable pointer, as returned by database scans.
func FromPtr(p *float64) Float {
	if p == nil {
		return None()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (f Float) Get() (float64, bool) { return f.V, f.Valid }

// Ptr returns nil when absent. The pointer refers to a copy.
func (f Float) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.V
	return &v
}

// Or returns the value, or def when absent.
func (f Float) Or(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.V
}

// Sample is one tick's reconciled reading. It is passed by value and never
// modified after the collector builds it.
type Sample struct {
	CapturedAt     time.Time // second resolution
	CPUPercent     float64   // 0-100
	RAMPercent     float64   // 0-100
	GPULoadPercent Float
	GPUTempC       Float
	CPUTempC       Float
}

// Timestamp truncates t to the second resolution used as the store ordering key.
func Timestamp(t time.Time) time.Time { return t.Truncate(time.Second) }

// ClampPercent bounds v to [0,100].
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
