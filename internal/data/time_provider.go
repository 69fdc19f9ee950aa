package data

import "time"

// TimeProvider supplies the current time so repositories can be tested with a fixed clock.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns the current UTC time.
func (RealTimeProvider) Now() time.Time { return time.Now().UTC() }

// FixedTimeProvider returns a settable time.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider frozen at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

// Now returns the frozen time.
func (f *FixedTimeProvider) Now() time.Time { return f.fixedTime }

// Set moves the clock to t.
func (f *FixedTimeProvider) Set(t time.Time) { f.fixedTime = t }

// Advance moves the clock forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) { f.fixedTime = f.fixedTime.Add(d) }
