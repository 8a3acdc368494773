package model

import (
	"fmt"
	"sort"

	"github.com/pinterest/teletraan/pkg/apiclient"
)

// Pod phases as reported by the cluster.
const (
	PhaseFailed    = "FAILED"
	PhaseUnknown   = "UNKNOWN"
	PhasePending   = "PENDING"
	PhaseRunning   = "RUNNING"
	PhaseSucceeded = "SUCCEEDED"
)

var phaseOrder = map[string]int{
	PhaseFailed:    5,
	PhaseUnknown:   4,
	PhasePending:   3,
	PhaseRunning:   2,
	PhaseSucceeded: 1,
}

// PhaseOrder ranks a phase by how much attention it needs. Unknown phase
// strings rank 0.
func PhaseOrder(phase string) int {
	return phaseOrder[phase]
}

// PhaseClass returns the css class for a phase: "danger" for failures,
// "warning" for anything not yet settled, "" otherwise.
func PhaseClass(phase string) string {
	switch phase {
	case PhaseFailed:
		return "danger"
	case PhaseUnknown, PhasePending:
		return "warning"
	}
	return ""
}

// SortPods returns a copy of pods ordered worst phase first, then by name.
func SortPods(pods []apiclient.Pod) []apiclient.Pod {
	out := append([]apiclient.Pod(nil), pods...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := PhaseOrder(out[i].Phase), PhaseOrder(out[j].Phase)
		if oi != oj {
			return oi > oj
		}
		return out[i].PodName < out[j].PodName
	})
	return out
}

// PodTally counts pods per phase group.
type PodTally struct {
	Running   int
	Waiting   int
	Succeeded int
	Failed    int
}

// TallyPods counts pods. Pending and unknown pods count as waiting.
func TallyPods(pods []apiclient.Pod) PodTally {
	var t PodTally
	for _, p := range pods {
		switch p.Phase {
		case PhaseRunning:
			t.Running++
		case PhaseSucceeded:
			t.Succeeded++
		case PhaseFailed:
			t.Failed++
		default:
			t.Waiting++
		}
	}
	return t
}

func (t PodTally) String() string {
	return fmt.Sprintf("%d Running / %d Waiting / %d Succeeded / %d Failed",
		t.Running, t.Waiting, t.Succeeded, t.Failed)
}

// ReplicaSetNames returns the replica set names of a pods map, sorted.
func ReplicaSetNames(pods map[string][]apiclient.Pod) []string {
	names := make([]string, 0, len(pods))
	for name := range pods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReplicaSetStatus formats the replica counts of the named set as
// "X current / Y desired". It returns "" when the set is not listed.
func ReplicaSetStatus(name string, sets []apiclient.ReplicaSet) string {
	for _, rs := range sets {
		if rs.Name == name {
			return fmt.Sprintf("%d current / %d desired", rs.CurrentReplicas, rs.DesiredReplicas)
		}
	}
	return ""
}
