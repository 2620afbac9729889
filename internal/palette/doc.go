// Package palette holds the closed color registry and the model
// classification rules used across rendering and task population.
package palette
