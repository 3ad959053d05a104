// Package api implements the JSON HTTP API.
//
// Routes are registered on a net/http ServeMux using Go 1.22 method
// patterns. Handlers depend on narrow consumer-defined interfaces so tests
// run against fakes without a database or model runtime.
//
// Caller identity arrives in the X-User-ID header, set by the fronting
// gateway after authentication. Requests without the header act as the
// anonymous caller, which can only touch ownerless records.
package api
