package palette_test

import (
	"testing"

	"colorforge/internal/palette"
)

func TestResolveKnownColors(t *testing.T) {
	cases := []struct {
		name string
		want palette.RGB
	}{
		{"navy_blue", palette.RGB{16, 43, 78}},
		{"amber", palette.RGB{249, 165, 25}},
		{"none", palette.RGB{255, 255, 255}},
	}
	for _, tc := range cases {
		if got := palette.Resolve(tc.name); got != tc.want {
			t.Errorf("Resolve(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestResolveUnknownFallsBackToWhite(t *testing.T) {
	if got := palette.Resolve("chartreuse"); got != palette.White {
		t.Fatalf("Resolve(unknown) = %v, want white", got)
	}
}

func TestColorEnumerations(t *testing.T) {
	ui := palette.UIColors()
	if len(ui) != 18 {
		t.Fatalf("UIColors length = %d, want 18", len(ui))
	}
	for _, name := range ui {
		switch name {
		case "none", "red", "amber":
			t.Errorf("UIColors contains %q", name)
		}
	}

	leds := palette.LEDColors()
	if len(leds) != 2 || leds[0] != "red" || leds[1] != "amber" {
		t.Fatalf("LEDColors = %v", leds)
	}

	accents := palette.AccentColors()
	if len(accents) != len(ui)+1 {
		t.Fatalf("AccentColors length = %d, want %d", len(accents), len(ui)+1)
	}
	if accents[len(accents)-1] != palette.AccentNone {
		t.Fatalf("AccentColors missing trailing none sentinel: %v", accents)
	}
}

func TestIsMulticolorLED(t *testing.T) {
	cases := []struct {
		model string
		want  bool
	}{
		{"lx2120", false}, // override wins despite matching lx2*
		{"LX2120-scoreboard", false},
		{"lx2665", true}, // wildcard lx2*
		{"lx2", false},   // wildcard requires at least one more char
		{"mp-2180", true},
		{"lx8440", true},
		{"LX8440", true},
		{"lx1234", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := palette.IsMulticolorLED(tc.model); got != tc.want {
			t.Errorf("IsMulticolorLED(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func TestNormalizeModelName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"mp-1234-fourface", "mp-1234-4"},
		{"lx2665b", "lx2665v"},
		{"lx2655b", "lx2655v"},
		{"lx2545b", "lx2545v"},
		{"lx1234", "lx1234"},
	}
	for _, tc := range cases {
		if got := palette.NormalizeModelName(tc.in); got != tc.want {
			t.Errorf("NormalizeModelName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeModelNameIdempotent(t *testing.T) {
	inputs := []string{"mp-1234-fourface", "lx2665b", "lx2655b", "lx2545b", "lx2545b-fourface"}
	for _, in := range inputs {
		once := palette.NormalizeModelName(in)
		twice := palette.NormalizeModelName(once)
		if once != twice {
			t.Errorf("NormalizeModelName not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
