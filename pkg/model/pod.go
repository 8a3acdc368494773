package model

import (
	"context"
	"log/slog"

	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/asynctrack"
)

// PodModel caches pod details keyed by pod name.
type PodModel struct {
	Pod *Cache[*apiclient.Pod]

	api     apiclient.API
	tracker *asynctrack.Tracker
	logger  *slog.Logger
}

// NewPodModel creates a PodModel with an empty cache.
func NewPodModel(api apiclient.API, tracker *asynctrack.Tracker, opts ...Option) *PodModel {
	o := buildOptions(opts)
	return &PodModel{
		Pod:     NewCache[*apiclient.Pod](),
		api:     api,
		tracker: tracker,
		logger:  o.logger,
	}
}

// LoadPod refreshes one pod.
func (m *PodModel) LoadPod(ctx context.Context, name string) (*apiclient.Pod, error) {
	p, err := fetch(ctx, m.tracker, m.logger, "FetchPod", name, func(ctx context.Context) (*apiclient.Pod, error) {
		return m.api.FetchPod(ctx, name)
	})
	if err != nil || p == nil {
		return nil, err
	}
	m.Pod.Set(name, p)
	return p, nil
}
