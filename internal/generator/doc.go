// Package generator renders single product images on demand, with
// cache-aware short-circuiting and per-session progress reporting.
package generator
