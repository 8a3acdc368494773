package views

import "github.com/pinterest/teletraan/pkg/router"

// Route IDs the components link to.
const (
	RouteHome      = "routeHome"
	RouteAllEnvs   = "routeAllEnvs"
	RouteEnvStage  = "routeEnvStage"
	RouteEnvBuilds = "routeEnvBuilds"
	RouteNewDeploy = "routeNewDeploy"
	RouteEnvPods   = "routeEnvPods"
	RoutePod       = "routePod"
)

// Components.
const (
	AllEnvs     router.Component = "allEnvs"
	EnvLanding  router.Component = "envLanding"
	EnvSidebar  router.Component = "envSidebar"
	EnvBuilds   router.Component = "envBuilds"
	NewDeploy   router.Component = "newDeploy"
	EnvPods     router.Component = "envPods"
	PodDetail   router.Component = "podDetail"
	Breadcrumbs router.Component = "breadcrumbs"
)

// BuildQuery is the query parameter that selects a build on the new
// deploy page.
const BuildQuery = "build"
