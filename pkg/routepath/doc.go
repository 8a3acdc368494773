// Package routepath converts between route templates, parameters and URLs.
//
// A route template is a slash-separated path whose segments are either
// static ("envs"), required parameters (":env") or optional parameters
// (":stage?"). The single template "*" is the catch-all route.
//
//	routepath.SerializeParams("/envs/:env/:stage", map[string]string{"env": "prod", "stage": "api"})
//	// "/envs/prod/api"
//
//	routepath.SerializeParams("/envs/:env/:stage?", map[string]string{"env": "prod"})
//	// "/envs/prod"
//
// Query strings are encoded and decoded as application/x-www-form-urlencoded
// maps with a single value per key.
//
// The package also canonicalizes browser-supplied paths before they are
// matched against the route table.
package routepath
