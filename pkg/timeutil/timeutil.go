// Package timeutil provides wall-clock timing helpers for pipeline stages.
// Every stage of a run reports its duration in the structured logs.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// Stopwatch measures elapsed wall-clock time from its creation.
type Stopwatch struct {
	start time.Time
}

// NewStopwatch creates a started stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch was created.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Measure runs fn and returns how long it took alongside its error.
func Measure(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}

// MeasureValue runs fn and returns its result and how long it took.
func MeasureValue[T any](fn func() (T, error)) (T, time.Duration, error) {
	start := time.Now()
	result, err := fn()
	return result, time.Since(start), err
}
