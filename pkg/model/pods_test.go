package model

import (
	"testing"

	"github.com/pinterest/teletraan/pkg/apiclient"
)

func TestSortPods(t *testing.T) {
	pods := []apiclient.Pod{
		{PodName: "a", Phase: PhaseSucceeded},
		{PodName: "b", Phase: PhaseRunning},
		{PodName: "c", Phase: PhaseFailed},
		{PodName: "d", Phase: PhasePending},
		{PodName: "e", Phase: PhaseUnknown},
	}
	got := SortPods(pods)
	want := []string{"c", "e", "d", "b", "a"}
	for i, p := range got {
		if p.PodName != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if pods[0].PodName != "a" {
		t.Error("SortPods modified its input")
	}
}

func TestPhaseClass(t *testing.T) {
	tests := map[string]string{
		PhaseFailed:    "danger",
		PhaseUnknown:   "warning",
		PhasePending:   "warning",
		PhaseRunning:   "",
		PhaseSucceeded: "",
	}
	for phase, want := range tests {
		if got := PhaseClass(phase); got != want {
			t.Errorf("PhaseClass(%s) = %q, want %q", phase, got, want)
		}
	}
}

func TestTallyPods(t *testing.T) {
	pods := []apiclient.Pod{
		{Phase: PhaseRunning}, {Phase: PhaseRunning},
		{Phase: PhasePending}, {Phase: PhaseUnknown},
		{Phase: PhaseSucceeded},
		{Phase: PhaseFailed},
	}
	want := "2 Running / 2 Waiting / 1 Succeeded / 1 Failed"
	if got := TallyPods(pods).String(); got != want {
		t.Errorf("TallyPods = %q, want %q", got, want)
	}
}

func TestReplicaSetStatus(t *testing.T) {
	sets := []apiclient.ReplicaSet{{Name: "rs-1", CurrentReplicas: 3, DesiredReplicas: 5}}
	if got := ReplicaSetStatus("rs-1", sets); got != "3 current / 5 desired" {
		t.Errorf("ReplicaSetStatus = %q", got)
	}
	if got := ReplicaSetStatus("rs-2", sets); got != "" {
		t.Errorf("ReplicaSetStatus(missing) = %q", got)
	}
}
