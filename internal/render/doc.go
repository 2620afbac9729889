// Package render implements the deterministic colorization and layer
// compositing pipeline. The colorize transform reproduces the legacy
// additive color-injection algorithm exactly; treat any change to its
// arithmetic as a breaking change to every previously generated image.
package render
