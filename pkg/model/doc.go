// Package model holds the board's client-side data: keyed reactive caches
// filled by fetch operations against an apiclient.API.
//
// Fetches never clear a cache. A failed fetch logs a warning and leaves the
// last good value in place, so views keep showing stale data instead of an
// error. Every fetch runs inside the shared asynctrack.Tracker so the
// loading indicator covers it.
package model
