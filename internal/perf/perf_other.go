//go:build !linux

package perf

import "errors"

// Monitor has no counters on this platform
type Monitor struct{}

// NewMonitor returns a monitor whose Start always fails
func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) Start() error {
	return errors.New("hardware counters need linux")
}

func (m *Monitor) Stop() Counters {
	return Counters{}
}
