package application

import (
	"testing"
)

func TestObservers_FanOutSkipsNil(t *testing.T) {
	t.Parallel()

	var calls []string
	first := RunObserverFunc(func(r RunReport) { calls = append(calls, "first:"+r.RunID) })
	second := RunObserverFunc(func(r RunReport) { calls = append(calls, "second:"+r.RunID) })

	Observers(first, nil, second).ObserveRun(RunReport{RunID: "r1"})

	if len(calls) != 2 || calls[0] != "first:r1" || calls[1] != "second:r1" {
		t.Fatalf("unexpected observer calls %v", calls)
	}
}

func TestLatestRunRecorder(t *testing.T) {
	t.Parallel()

	recorder := NewLatestRunRecorder()
	if _, ok := recorder.Latest(); ok {
		t.Fatal("expected no report before the first run")
	}

	recorder.ObserveRun(RunReport{RunID: "r1"})
	recorder.ObserveRun(RunReport{RunID: "r2"})

	latest, ok := recorder.Latest()
	if !ok || latest.RunID != "r2" {
		t.Fatalf("expected r2, got %+v (ok=%v)", latest, ok)
	}

	var nilRecorder *LatestRunRecorder
	nilRecorder.ObserveRun(RunReport{RunID: "ignored"})
	if _, ok := nilRecorder.Latest(); ok {
		t.Fatal("nil recorder must report nothing")
	}
}
