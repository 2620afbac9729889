package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"colorforge/internal/palette"
)

// ErrNoLayers is returned when no mask layer resolves for a model.
var ErrNoLayers = errors.New("no layers for model")

// Layer names as stored under the mask prefix.
const (
	LayerFrame    = "Frame"
	LayerFace     = "Face"
	LayerAccent   = "Accent-Striping"
	LayerMasks    = "Masks"
	LayerLEDGlow  = "LED-Glow"
	LayerCaptions = "Captions"
)

// Stage identifies a compositing phase for progress reporting.
type Stage string

const (
	StageFrame     Stage = "frame"
	StageFace      Stage = "face"
	StageAccent    Stage = "accent"
	StageMasks     Stage = "masks"
	StageLEDs      Stage = "leds"
	StageCaptions  Stage = "captions"
	StageComposite Stage = "composite"
)

// Spec identifies one renderable combination.
type Spec struct {
	Model   string
	Primary string
	Accent  string
	LED     string
	Width   int
}

// MaskSource resolves a decoded mask image for (model, layer). Absence
// is reported as ok=false with a nil error.
type MaskSource interface {
	Mask(ctx context.Context, model, layer string) (image.Image, bool, error)
}

// AccentColorName applies the accent fallback: "none" (or the legacy
// "n/a" spelling) reuses the primary color.
func AccentColorName(primary, accent string) string {
	if accent == palette.AccentNone || accent == "n/a" {
		return primary
	}
	return accent
}

// OutputKey returns the deterministic object key for a combination.
func OutputKey(prefix string, spec Spec) string {
	return fmt.Sprintf("%s%s/%s-%s-%s.png", prefix, spec.Model, spec.Primary, spec.Accent, spec.LED)
}

// Compose assembles the fixed layer stack for spec and encodes the
// result as PNG. notify, when non-nil, is invoked before each stage.
// Layer order and per-layer policy are fixed; do not reorder.
func Compose(ctx context.Context, src MaskSource, spec Spec, notify func(Stage)) ([]byte, error) {
	stage := func(s Stage) {
		if notify != nil {
			notify(s)
		}
	}
	accentColor := AccentColorName(spec.Primary, spec.Accent)

	var layers []*image.NRGBA
	add := func(img *image.NRGBA) { layers = append(layers, img) }

	stage(StageFrame)
	if frame, ok, err := src.Mask(ctx, spec.Model, LayerFrame); err != nil {
		return nil, err
	} else if ok {
		add(toNRGBA(frame))
	}

	stage(StageFace)
	if face, ok, err := src.Mask(ctx, spec.Model, LayerFace); err != nil {
		return nil, err
	} else if ok {
		add(Colorize(face, palette.Resolve(spec.Primary), true))
	}

	stage(StageAccent)
	if accent, ok, err := src.Mask(ctx, spec.Model, LayerAccent); err != nil {
		return nil, err
	} else if ok {
		add(Colorize(accent, palette.Resolve(accentColor), true))
	}

	stage(StageMasks)
	if masks, ok, err := src.Mask(ctx, spec.Model, LayerMasks); err != nil {
		return nil, err
	} else if ok {
		add(toNRGBA(masks))
	}

	stage(StageLEDs)
	if led, ok, err := src.Mask(ctx, spec.Model, LayerLEDGlow); err != nil {
		return nil, err
	} else if ok {
		if palette.IsMulticolorLED(spec.Model) {
			// Multicolor LED layers arrive pre-colored; composite untouched.
			add(toNRGBA(led))
		} else {
			add(Colorize(led, palette.Resolve(spec.LED), true))
		}
	}

	stage(StageCaptions)
	if captions, ok, err := src.Mask(ctx, spec.Model, LayerCaptions); err != nil {
		return nil, err
	} else if ok {
		add(Colorize(captions, palette.White, true))
	}

	if len(layers) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoLayers, spec.Model)
	}

	stage(StageComposite)
	canvas := image.NewNRGBA(image.Rect(0, 0, layers[0].Bounds().Dx(), layers[0].Bounds().Dy()))
	for _, layer := range layers {
		if layer.Bounds().Dx() != canvas.Bounds().Dx() || layer.Bounds().Dy() != canvas.Bounds().Dy() {
			layer = scaleTo(layer, canvas.Bounds().Dx(), canvas.Bounds().Dy())
		}
		draw.Draw(canvas, canvas.Bounds(), layer, layer.Bounds().Min, draw.Over)
	}

	if spec.Width > 0 && spec.Width != canvas.Bounds().Dx() {
		ratio := float64(spec.Width) / float64(canvas.Bounds().Dx())
		height := int(float64(canvas.Bounds().Dy()) * ratio)
		if height < 1 {
			height = 1
		}
		canvas = scaleTo(canvas, spec.Width, height)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleTo resamples with Catmull-Rom, the highest quality scaler in
// x/image, standing in for the legacy Lanczos filter.
func scaleTo(src *image.NRGBA, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
