// Package router keeps application state in sync with the browser URL.
//
// A Table holds the registered routes. A Store owns the current route, its
// parameters and query, and drives every navigation through the guard
// lifecycle:
//
//	deactivate (old route) → activate (new route) → commit → history write
//
// Guards receive a Transition and a next continuation. A guard that never
// calls next stalls its navigation; a guard that calls Go instead of next
// redirects.
//
//	table, err := router.NewTable([]*router.Route{
//	    {Path: "/envs", ID: "routeAllEnvs", BeforeActivate: loadEnvs},
//	    {Path: "/envs/:env/:stage?", ID: "routeEnvStage"},
//	    {Path: "/", DefaultPath: true},
//	})
//	store := router.NewStore(table, router.NewMemoryHistory("/"))
//	store.Start()
//	err = store.Go("/envs")
//
// Committed state is published as a single immutable State value, so an
// observer never sees a route paired with another route's parameters.
package router
