package imagegen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxPromptRunes is the longest prompt the API accepts.
const MaxPromptRunes = 800

// DefaultScale weights the text prompt.
const DefaultScale = 0.5

// Request describes one image.
type Request struct {
	Prompt      string
	Width       int // sent only together with Height
	Height      int
	Scale       float64
	ForceSingle bool
}

// Validate checks a request before it is submitted.
func (r *Request) Validate() error {
	prompt := strings.TrimSpace(r.Prompt)
	if prompt == "" {
		return errors.New("prompt is required")
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptRunes {
		return fmt.Errorf("prompt is %d characters, limit is %d", n, MaxPromptRunes)
	}
	if r.Scale < 0 || r.Scale > 1 {
		return fmt.Errorf("scale must be within [0, 1], got %g", r.Scale)
	}
	if (r.Width == 0) != (r.Height == 0) {
		return errors.New("width and height must be given together")
	}
	if r.Width < 0 || r.Height < 0 {
		return errors.New("width and height must be positive")
	}
	return nil
}

// Size is a preset resolution.
type Size struct {
	Width  int
	Height int
	Label  string
}

// Presets maps an aspect ratio to its resolutions, smallest first.
var Presets = map[string][]Size{
	"1:1": {
		{1024, 1024, "1k"},
		{2048, 2048, "2k"},
		{4096, 4096, "4k"},
	},
	"4:3": {
		{2304, 1728, "2k"},
		{4694, 3520, "4k"},
	},
	"3:2": {
		{2496, 1664, "2k"},
		{4992, 3328, "4k"},
	},
	"16:9": {
		{2560, 1440, "2k"},
		{5404, 3040, "4k"},
	},
	"21:9": {
		{3024, 1296, "2k"},
		{6198, 2656, "4k"},
	},
}

// PresetNames returns the preset aspect ratios in a stable order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ResolvePreset finds the resolution for an aspect ratio and size label
// (1k, 2k, 4k). ok is false when the preset has no such size; an unknown
// aspect ratio is an error.
func ResolvePreset(ratio, size string) (s Size, ok bool, err error) {
	sizes, known := Presets[ratio]
	if !known {
		return Size{}, false, fmt.Errorf("unknown preset %q (want one of %s)", ratio, strings.Join(PresetNames(), ", "))
	}
	size = strings.ToLower(strings.TrimSpace(size))
	for _, s := range sizes {
		if s.Label == size {
			return s, true, nil
		}
	}
	return Size{}, false, nil
}
