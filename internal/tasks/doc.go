// Package tasks persists the render work queue, batch runs, and
// interactive generation progress in SQLite.
package tasks
