package apiclient

import (
	"github.com/goccy/go-json"
)

// Environment is one environment stage.
type Environment struct {
	ID             string `json:"id"`
	EnvName        string `json:"envName"`
	StageName      string `json:"stageName"`
	Description    string `json:"description,omitempty"`
	LastOperator   string `json:"lastOperator,omitempty"`
	LastUpdate     int64  `json:"lastUpdate,omitempty"`
	Chatroom       string `json:"chatroom,omitempty"`
	K8sClusterName string `json:"k8sClusterName,omitempty"`
}

// Deploy is the active deploy of an environment stage. A zero ID means
// there is no active deploy.
type Deploy struct {
	ID           string `json:"id"`
	BuildID      string `json:"buildId"`
	Type         string `json:"type"`
	State        string `json:"state"`
	SuccessTotal int    `json:"successTotal"`
	Total        int    `json:"total"`
	StartDate    int64  `json:"startDate"`
	Operator     string `json:"operator"`
}

// Empty reports whether d describes no deploy.
func (d *Deploy) Empty() bool {
	return d == nil || d.ID == ""
}

// Build is a published build.
type Build struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Branch      string `json:"branch"`
	Commit      string `json:"commit,omitempty"`
	CommitShort string `json:"commitShort"`
	Repo        string `json:"repo"`
	PublishDate int64  `json:"publishDate"`
	Telefig     string `json:"telefig,omitempty"`
}

// BuildTag is a tag attached to a build.
type BuildTag struct {
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

// BuildWithTag is an entry of the recent builds list.
type BuildWithTag struct {
	Build Build     `json:"build"`
	Tag   *BuildTag `json:"tag,omitempty"`
}

// Pod is a running pod.
type Pod struct {
	PodName     string            `json:"podName"`
	Namespace   string            `json:"namespace,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	CreateTime  string            `json:"createTime,omitempty"`
	Phase       string            `json:"phase"`
	Node        string            `json:"node,omitempty"`
	IP          string            `json:"ip,omitempty"`

	// Conditions is a JSON-encoded []PodCondition.
	Conditions string `json:"conditions,omitempty"`
}

// PodCondition is one decoded pod condition.
type PodCondition struct {
	Type               string `json:"type"`
	Status             string `json:"status"`
	Reason             string `json:"reason,omitempty"`
	Message            string `json:"message,omitempty"`
	LastTransitionTime struct {
		Time string `json:"Time"`
	} `json:"lastTransitionTime"`
}

// DecodeConditions parses the pod's JSON-encoded conditions. An empty
// string yields no conditions.
func (p *Pod) DecodeConditions() ([]PodCondition, error) {
	if p.Conditions == "" {
		return nil, nil
	}
	var out []PodCondition
	if err := json.Unmarshal([]byte(p.Conditions), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplicaSet summarizes a replica set of the active deploy.
type ReplicaSet struct {
	Name            string `json:"name"`
	CurrentReplicas int    `json:"currentReplicas"`
	DesiredReplicas int    `json:"desiredReplicas"`
	Conditions      string `json:"conditions,omitempty"`
}

// Progress is the live state of a deploy: pods grouped by replica set.
type Progress struct {
	Pods        map[string][]Pod `json:"pods"`
	ReplicaSets []ReplicaSet     `json:"replicaSets"`
}

// DeployRequest starts a deploy of a build.
type DeployRequest struct {
	EnvName           string `json:"envName"`
	StageName         string `json:"stageName"`
	Telefig           string `json:"telefig,omitempty"`
	BuildID           string `json:"buildId"`
	DeployClusterName string `json:"deployClusterName"`
}
