// Package app wires the profit dashboard together: configuration, logging,
// OpenTelemetry, the websocket hub, the profit and health services, and the
// chi router with its middleware chain. The cmd/web binary is a thin shell
// around Application.Run.
package app
