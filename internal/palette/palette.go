package palette

// RGB is an opaque 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// The color registry is a closed set carried over from the legacy
// colorpicker configuration. Names and values must not drift: generated
// object keys embed the names, and the rendered pixels embed the values.
var colorOrder = []string{
	"navy_blue",
	"egyptian_blue",
	"royal_blue",
	"icy_blue",
	"shamrock_green",
	"jolly_green",
	"hunter_green",
	"silver_gray",
	"matte_black",
	"white",
	"indigo_purple",
	"power_purple",
	"merchant_maroon",
	"cardinal_red",
	"racing_red",
	"tiger_orange",
	"golden_yellow",
	"metallic_gold",
	"red",
	"amber",
	"none",
}

var colors = map[string]RGB{
	"navy_blue":       {16, 43, 78},
	"egyptian_blue":   {35, 60, 136},
	"royal_blue":      {36, 98, 167},
	"icy_blue":        {117, 190, 233},
	"shamrock_green":  {0, 159, 72},
	"jolly_green":     {0, 114, 59},
	"hunter_green":    {14, 69, 42},
	"silver_gray":     {201, 199, 199},
	"matte_black":     {45, 42, 43},
	"white":           {255, 255, 255},
	"indigo_purple":   {94, 46, 134},
	"power_purple":    {104, 28, 91},
	"merchant_maroon": {116, 17, 46},
	"cardinal_red":    {182, 31, 61},
	"racing_red":      {227, 50, 38},
	"tiger_orange":    {244, 121, 32},
	"golden_yellow":   {255, 212, 0},
	"metallic_gold":   {180, 151, 90},
	"red":             {236, 27, 36},
	"amber":           {249, 165, 25},
	"none":            {255, 255, 255},
}

// AccentNone is the sentinel accent meaning "no accent, reuse primary".
const AccentNone = "none"

// White is the fixed color applied to the captions layer.
var White = RGB{255, 255, 255}

// Resolve returns the RGB triple for a color name. Unknown names fall
// back to white rather than failing; a bad name renders a white layer,
// which is visible in review instead of aborting a batch.
func Resolve(name string) RGB {
	if rgb, ok := colors[name]; ok {
		return rgb
	}
	return White
}

// Known reports whether name is part of the registry.
func Known(name string) bool {
	_, ok := colors[name]
	return ok
}

// UIColors returns the colors selectable as primary or accent, in
// registry order.
func UIColors() []string {
	out := make([]string, 0, len(colorOrder)-3)
	for _, name := range colorOrder {
		switch name {
		case AccentNone, "red", "amber":
			continue
		}
		out = append(out, name)
	}
	return out
}

// LEDColors returns the colors selectable for the LED layer.
func LEDColors() []string {
	return []string{"red", "amber"}
}

// AccentColors returns the UI colors plus the "none" sentinel.
func AccentColors() []string {
	return append(UIColors(), AccentNone)
}
