package core

import (
	"math"
	"regexp"
)

type (
	// Position is a pixel offset within the canvas coordinate space.
	// Coordinates may be negative; items can hang partially off-canvas.
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Size is the rendered extent of an item in pixels.
	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// TextStyle holds the per-item styling of a text note.
	TextStyle struct {
		FontSize        float64 `json:"fontSize"`
		FontWeight      string  `json:"fontWeight"`
		Color           string  `json:"color"`
		BackgroundColor string  `json:"backgroundColor"`
		TextAlign       string  `json:"textAlign"`
		FontFamily      string  `json:"fontFamily,omitempty"`
	}
)

const (
	// MinItemSize is the smallest width/height an item can be resized to.
	MinItemSize = 20.0

	MinFontSize = 8.0
	MaxFontSize = 72.0

	// TransparentColor is the sentinel background for unfilled text notes.
	TransparentColor = "transparent"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidHexColor reports whether s is a hex color, optionally with alpha.
func ValidHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

// ClampSize enforces the minimum item dimensions.
func ClampSize(s Size) Size {
	if s.Width < MinItemSize {
		s.Width = MinItemSize
	}
	if s.Height < MinItemSize {
		s.Height = MinItemSize
	}
	return s
}

// ClampFontSize keeps a font size within the editable range.
func ClampFontSize(size float64) float64 {
	return math.Min(MaxFontSize, math.Max(MinFontSize, size))
}

// NormalizeRotation maps an angle in degrees into [0, 360).
func NormalizeRotation(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
