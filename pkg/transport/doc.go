// Package transport binds the adapter's transport port to net/http.
//
// Handler converts an *http.Request into an adapter.IncomingRequest, exposes
// the http.ResponseWriter as a once-only adapter.ResponseOutlet, and runs the
// adapter component. The routers mount that handler on the data plane and the
// health and Prometheus endpoints on the admin plane.
package transport
