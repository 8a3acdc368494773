// Package apiclient is the data-fetch boundary of the deploy board.
//
// The API interface is implemented by HTTPClient, which talks to the
// Argonath deploy service and the Teletraan build service, and by
// FixtureClient, which serves every call from a local data.json document.
// Traced and Instrumented decorate any API with OpenTelemetry spans and
// call metrics.
package apiclient
