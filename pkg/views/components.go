package views

import (
	"sort"

	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/model"
	"github.com/pinterest/teletraan/pkg/routepath"
	"github.com/pinterest/teletraan/pkg/router"
)

// builder computes a component's template data. A non-empty loading
// message selects the placeholder instead.
type builder func(b *Binder, st router.State) (data any, loading string)

var components = map[router.Component]builder{
	AllEnvs:     (*Binder).allEnvs,
	EnvLanding:  (*Binder).envLanding,
	EnvSidebar:  (*Binder).envSidebar,
	EnvBuilds:   (*Binder).envBuilds,
	NewDeploy:   (*Binder).newDeploy,
	EnvPods:     (*Binder).envPods,
	PodDetail:   (*Binder).podDetail,
	Breadcrumbs: (*Binder).breadcrumbs,
}

type crumb struct {
	Label string
	Href  string
}

type envRow struct {
	Name        string
	Stage       string
	Description string
	Href        string
}

type buildRow struct {
	ID     string
	Label  string
	Repo   string
	Date   int64
	Tag    string
	Href   string
	Active bool
}

type podRow struct {
	Name  string
	Phase string
	Class string
	Href  string
}

type replicaSetView struct {
	Name   string
	Status string
	Tally  string
	Pods   []podRow
}

type envLandingData struct {
	Env         *apiclient.Environment
	Deploy      *apiclient.Deploy
	Build       *apiclient.Build
	ReplicaSets []replicaSetView
	PodsHref    string
}

type sidebarData struct {
	Builds     []buildRow
	BuildsHref string
	PodsHref   string
}

type newDeployData struct {
	Env      string
	Stage    string
	Build    *apiclient.Build
	Action   string
	Builds   []buildRow
	NotFound string
}

type podDetailData struct {
	Pod         *apiclient.Pod
	Class       string
	Labels      []keyValue
	Annotations []keyValue
	Conditions  []apiclient.PodCondition
	RawCond     string
}

type keyValue struct {
	Key   string
	Value string
}

// envParams returns the env and stage route parameters, falling back to
// the cached environment's stage when the URL omits it.
func (b *Binder) envParams(st router.State) (env, stage, key string) {
	env, stage = st.Params["env"], st.Params["stage"]
	key = model.Key(env, stage)
	if stage == "" {
		if e, ok := b.envs.Env.Peek(key); ok && e != nil {
			stage = e.StageName
		}
	}
	return env, stage, key
}

func (b *Binder) allEnvs(_ router.State) (any, string) {
	envs, ok := b.envs.AllEnvs.Get(model.AllEnvsKey)
	if !ok {
		return nil, "Fetching environments"
	}
	rows := make([]envRow, 0, len(envs))
	for _, e := range envs {
		rows = append(rows, envRow{
			Name:        e.EnvName,
			Stage:       e.StageName,
			Description: e.Description,
			Href:        b.link(RouteEnvStage, map[string]string{"env": e.EnvName, "stage": e.StageName}, nil),
		})
	}
	return rows, ""
}

func (b *Binder) envLanding(st router.State) (any, string) {
	env, stage, key := b.envParams(st)
	e, ok := b.envs.Env.Get(key)
	if !ok || e == nil {
		return nil, "Fetching environment"
	}
	data := envLandingData{
		Env:         e,
		ReplicaSets: b.replicaSets(env, stage, key),
		PodsHref:    b.link(RouteEnvPods, map[string]string{"env": env, "stage": stage}, nil),
	}
	if d, _ := b.envs.Deploy.Get(key); !d.Empty() {
		data.Deploy = d
	}
	data.Build, _ = b.envs.Build.Get(key)
	return data, ""
}

func (b *Binder) replicaSets(env, stage, key string) []replicaSetView {
	pods, _ := b.envs.Pods.Get(key)
	sets, _ := b.envs.ReplicaSets.Get(key)

	out := make([]replicaSetView, 0, len(pods))
	for _, name := range model.ReplicaSetNames(pods) {
		v := replicaSetView{
			Name:   name,
			Status: model.ReplicaSetStatus(name, sets),
			Tally:  model.TallyPods(pods[name]).String(),
		}
		for _, p := range model.SortPods(pods[name]) {
			v.Pods = append(v.Pods, podRow{
				Name:  p.PodName,
				Phase: p.Phase,
				Class: model.PhaseClass(p.Phase),
				Href: b.link(RoutePod, map[string]string{
					"env": env, "stage": stage, "podName": p.PodName,
				}, nil),
			})
		}
		out = append(out, v)
	}
	return out
}

func (b *Binder) buildRows(env, stage, key, selected string) ([]buildRow, bool) {
	builds, ok := b.envs.Builds.Get(key)
	if !ok {
		return nil, false
	}
	params := map[string]string{"env": env, "stage": stage}
	rows := make([]buildRow, 0, len(builds))
	for _, bt := range builds {
		label := bt.Build.Branch
		if bt.Build.CommitShort != "" {
			label += "/" + bt.Build.CommitShort
		}
		row := buildRow{
			ID:     bt.Build.ID,
			Label:  label,
			Repo:   bt.Build.Repo,
			Date:   bt.Build.PublishDate,
			Href:   b.link(RouteNewDeploy, params, map[string]string{BuildQuery: bt.Build.ID}),
			Active: bt.Build.ID == selected,
		}
		if bt.Tag != nil {
			row.Tag = bt.Tag.Value
		}
		rows = append(rows, row)
	}
	return rows, true
}

func (b *Binder) envSidebar(st router.State) (any, string) {
	env, stage, key := b.envParams(st)
	rows, ok := b.buildRows(env, stage, key, st.Query[BuildQuery])
	if !ok {
		return nil, "Fetching builds"
	}
	params := map[string]string{"env": env, "stage": stage}
	return sidebarData{
		Builds:     rows,
		BuildsHref: b.link(RouteEnvBuilds, params, nil),
		PodsHref:   b.link(RouteEnvPods, params, nil),
	}, ""
}

func (b *Binder) envBuilds(st router.State) (any, string) {
	env, stage, key := b.envParams(st)
	rows, ok := b.buildRows(env, stage, key, "")
	if !ok {
		return nil, "Fetching builds"
	}
	return rows, ""
}

func (b *Binder) newDeploy(st router.State) (any, string) {
	env, stage, key := b.envParams(st)
	id := st.Query[BuildQuery]
	rows, ok := b.buildRows(env, stage, key, id)
	if !ok {
		return nil, "Fetching builds"
	}
	data := newDeployData{Env: env, Stage: stage, Builds: rows}
	if id == "" {
		return data, ""
	}

	builds, _ := b.envs.Builds.Get(key)
	for _, bt := range builds {
		if bt.Build.ID == id {
			build := bt.Build
			data.Build = &build
			break
		}
	}
	if data.Build == nil {
		if cur, _ := b.envs.Build.Get(key); cur != nil && cur.ID == id {
			data.Build = cur
		}
	}
	if data.Build == nil {
		data.NotFound = id
		return data, ""
	}
	data.Action = b.deployAction(env, stage)
	return data, ""
}

// deployAction is the form target that submits a deploy.
func (b *Binder) deployAction(env, stage string) string {
	p := routepath.SerializeParams("/envs/:env/:stage/deploy", map[string]string{"env": env, "stage": stage})
	return b.actionBase + p
}

func (b *Binder) envPods(st router.State) (any, string) {
	env, stage, key := b.envParams(st)
	if _, ok := b.envs.Pods.Get(key); !ok {
		return nil, "Fetching pods"
	}
	return b.replicaSets(env, stage, key), ""
}

func (b *Binder) podDetail(st router.State) (any, string) {
	name := st.Params["podName"]
	p, ok := b.pods.Pod.Get(name)
	if !ok || p == nil {
		return nil, "Fetching pod"
	}
	data := podDetailData{
		Pod:         p,
		Class:       model.PhaseClass(p.Phase),
		Labels:      sortedPairs(p.Labels),
		Annotations: sortedPairs(p.Annotations),
	}
	conds, err := p.DecodeConditions()
	if err != nil {
		data.RawCond = p.Conditions
	} else {
		data.Conditions = conds
	}
	return data, ""
}

func sortedPairs(m map[string]string) []keyValue {
	out := make([]keyValue, 0, len(m))
	for k, v := range m {
		out = append(out, keyValue{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (b *Binder) breadcrumbs(st router.State) (any, string) {
	trail := []crumb{
		{Label: "Home", Href: b.link(RouteHome, nil, nil)},
		{Label: "Environments", Href: b.link(RouteAllEnvs, nil, nil)},
	}
	env, stage, _ := b.envParams(st)
	params := map[string]string{"env": env, "stage": stage}
	if env != "" {
		label := env
		if stage != "" {
			label += " (" + stage + ")"
		}
		trail = append(trail, crumb{Label: label, Href: b.link(RouteEnvStage, params, nil)})
	}

	switch st.Route.ID {
	case RouteEnvBuilds:
		trail = append(trail, crumb{Label: "Builds"})
	case RouteNewDeploy:
		trail = append(trail,
			crumb{Label: "Builds", Href: b.link(RouteEnvBuilds, params, nil)},
			crumb{Label: "New deploy"})
	case RouteEnvPods:
		trail = append(trail, crumb{Label: "Pods"})
	case RoutePod:
		trail = append(trail,
			crumb{Label: "Pods", Href: b.link(RouteEnvPods, params, nil)},
			crumb{Label: st.Params["podName"]})
	}
	// The current page is not a link.
	trail[len(trail)-1].Href = ""
	return trail, ""
}
