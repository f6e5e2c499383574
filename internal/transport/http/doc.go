// Package http contains the HTTP transport layer for the profit dashboard.
//
// Handlers follow a thin-controller pattern: they parse and validate request
// input, call the service layer, and render JSON responses with go-chi/render.
// All error responses are RFC 7807 problem documents produced by the shared
// error handler.
package http
