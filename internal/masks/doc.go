// Package masks mirrors the remote layer-mask library into a local
// cache and resolves per-model mask images from it.
package masks
