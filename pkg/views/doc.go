// Package views renders the board. A Binder maps the committed route to
// its view group and renders the group's components from the model
// caches with html/template.
//
// Components read caches through tracked reads, so a render running
// inside a reactive.Effect re-runs when any entry it displayed changes.
// A component whose primary entity is not cached yet renders a
// "Fetching ..." placeholder instead.
package views
