// Package adapter implements the request/response normalization layer of the
// pdforge edge adapter.
//
// A request flows through a fixed sequence of stages:
//
//	Received → SettingsParsed → BodyRead → PayloadSent → ResponseBuilt → Sent
//
// Headers are parsed into a domain.HeaderMap, tenant settings are extracted from
// the x-edgee-component-settings header, the body is drained from a lazy chunk
// stream and wrapped into the pdforge payload, and the upstream reply is relayed
// back as JSON. Any failing stage jumps straight to Sent with an error-shaped
// response, so every request receives exactly one response.
//
// The transport is abstracted behind IncomingRequest and ResponseOutlet; package
// transport binds them to net/http.
package adapter
