// Package objectstore abstracts the blob storage that holds source mask
// layers and generated renders. The production backend is S3-compatible
// (AWS S3 or Cloudflare R2); an in-memory backend serves tests.
package objectstore
