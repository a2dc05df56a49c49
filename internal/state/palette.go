package state

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is one of the five palette entries, identified by name.
type Color string

const (
	Red    Color = "red"
	Orange Color = "orange"
	Yellow Color = "yellow"
	Pink   Color = "pink"
	Green  Color = "green"
)

// Swatch pairs a palette color with the hex value stored for it.
type Swatch struct {
	Color Color
	Hex   string
}

// Palette lists the selectable flower colors in display order.
var Palette = []Swatch{
	{Red, "#EF4444"},
	{Orange, "#F97316"},
	{Yellow, "#FBBF24"},
	{Pink, "#F472B6"},
	{Green, "#15803d"},
}

// DefaultColor is selected when a session starts.
const DefaultColor = Red

// ParseColor accepts either a palette name ("pink") or its hex value
// ("#F472B6"), case-insensitively.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	for _, sw := range Palette {
		if strings.EqualFold(s, string(sw.Color)) || strings.EqualFold(s, sw.Hex) {
			return sw.Color, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// Valid reports whether c is a palette member.
func (c Color) Valid() bool {
	_, ok := c.swatch()
	return ok
}

// Hex returns the stored hex value, or "" for a non-palette color.
func (c Color) Hex() string {
	sw, _ := c.swatch()
	return sw.Hex
}

// RGBA returns the opaque ink color used for strokes.
func (c Color) RGBA() color.NRGBA {
	sw, ok := c.swatch()
	if !ok {
		return color.NRGBA{A: 0xff}
	}
	var r, g, b uint8
	fmt.Sscanf(sw.Hex, "#%02x%02x%02x", &r, &g, &b)
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func (c Color) swatch() (Swatch, bool) {
	for _, sw := range Palette {
		if sw.Color == c {
			return sw, true
		}
	}
	return Swatch{}, false
}
