package application

import (
	"sync"
)

// RunObserverFunc adapts a function to RunObserver.
type RunObserverFunc func(RunReport)

// ObserveRun calls f(report).
func (f RunObserverFunc) ObserveRun(report RunReport) {
	f(report)
}

type multiObserver []RunObserver

func (m multiObserver) ObserveRun(report RunReport) {
	for _, observer := range m {
		observer.ObserveRun(report)
	}
}

// Observers fans a report out to every non-nil observer in order.
func Observers(observers ...RunObserver) RunObserver {
	out := make(multiObserver, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			out = append(out, observer)
		}
	}
	return out
}

// LatestRunRecorder keeps the most recent report in memory.
type LatestRunRecorder struct {
	mu     sync.RWMutex
	latest *RunReport
}

// NewLatestRunRecorder constructs an empty recorder.
func NewLatestRunRecorder() *LatestRunRecorder {
	return &LatestRunRecorder{}
}

// ObserveRun implements RunObserver.
func (r *LatestRunRecorder) ObserveRun(report RunReport) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.latest = &report
	r.mu.Unlock()
}

// Latest returns the last observed report, or false when no run has completed.
func (r *LatestRunRecorder) Latest() (RunReport, bool) {
	if r == nil {
		return RunReport{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return RunReport{}, false
	}
	return *r.latest, true
}
