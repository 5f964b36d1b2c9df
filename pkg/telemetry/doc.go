// Package telemetry wires OpenTelemetry exporters, meters, and spans for the
// pdforge edge adapter.
//
// It centralises trace provider setup, opens one span per request stage, and
// records request and upstream metrics so operators can see where requests end
// and how long pdforge takes to answer.
package telemetry
