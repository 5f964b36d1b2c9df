// Package domain defines the request-scoped types and error taxonomy of the
// pdforge edge adapter.
//
// This package contains pure domain logic with ZERO external dependencies outside the
// Go standard library. Every value defined here is created fresh for one inbound
// request and discarded once the response has been sent:
//
// - HeaderMap: lower-cased header names mapped to values in arrival order
// - TenantSettings: API key and template id decoded from the settings header
// - RequestEnvelope: method, headers and the fully materialized body
// - OutboundPayload: the JSON document posted to pdforge
// - OutboundResponse: the single response committed to the transport
//
// Other packages (adapter, upstream, transport) depend on these types. The dependency
// direction is always:
//
//	Infrastructure → Domain (CORRECT)
//	Domain → Infrastructure (FORBIDDEN)
package domain
