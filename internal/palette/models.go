package palette

import "strings"

// Multicolor LED models ship a pre-colored LED layer that must be
// composited untouched. Patterns are either literal substrings or a
// stem with a single trailing '*' meaning "one or more following
// characters" ("lx2*" matches "lx2120" and "lx2665" but not "lx2").
var multicolorPatterns = []string{
	"2180", "2330", "2350", "2370", "2550", "2555", "2556",
	"2570", "2575", "2576", "2655", "2665", "2770",
	"8350", "8650", "8750", "8850", "lx2*", "lx8440",
}

// Overrides that force single-color handling even when a multicolor
// pattern would match. Checked first; a hit short-circuits everything.
var forceSingleColorLED = []string{"lx2120"}

// IsMulticolorLED classifies a model id against the fixed pattern
// tables. Matching is case-insensitive throughout.
func IsMulticolorLED(modelID string) bool {
	lower := strings.ToLower(modelID)

	for _, single := range forceSingleColorLED {
		if strings.Contains(lower, strings.ToLower(single)) {
			return false
		}
	}

	for _, pattern := range multicolorPatterns {
		if stem, ok := strings.CutSuffix(pattern, "*"); ok {
			idx := strings.Index(lower, strings.ToLower(stem))
			if idx >= 0 && idx+len(stem) < len(lower) {
				return true
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// normalizeRules are applied in order; later rules may re-match text
// produced by earlier ones, so the order is part of the contract.
var normalizeRules = [][2]string{
	{"-fourface", "-4"},
	{"lx2665b", "lx2665v"},
	{"lx2655b", "lx2655v"},
	{"lx2545b", "lx2545v"},
}

// NormalizeModelName rewrites a catalog model id into the form used for
// mask paths. Idempotent after one application.
func NormalizeModelName(model string) string {
	for _, rule := range normalizeRules {
		model = strings.ReplaceAll(model, rule[0], rule[1])
	}
	return model
}
