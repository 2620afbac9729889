// Package orchestrator discovers renderable models, populates the task
// queue with the color cross product, and drives parallel batch runs.
package orchestrator
