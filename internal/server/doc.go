// Package server exposes generation, batch, and status operations over
// a small JSON HTTP API.
package server
