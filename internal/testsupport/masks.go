package testsupport

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"colorforge/internal/objectstore"
)

// PNG encodes a uniform image of the given size and color.
func PNG(t testing.TB, width, height int, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SeedMasks uploads a white Face mask for each model under the prefix.
func SeedMasks(t testing.TB, store *objectstore.MemStore, prefix string, models ...string) {
	t.Helper()

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for _, model := range models {
		key := prefix + model + "/Face.png"
		if err := store.Put(context.Background(), key, PNG(t, 8, 8, white), "image/png", ""); err != nil {
			t.Fatalf("seed mask %s: %v", key, err)
		}
	}
}
