package schema

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color is a hex string ("#rgb", "#rrggbb") or a CSS color name.
type Color string

// RGBA resolves the color to an opaque RGBA value.
func (c Color) RGBA() (color.RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(string(c)))
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if named, ok := colornames.Map[s]; ok {
		return named, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", string(c))
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", string(c))
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", string(c))
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex returns the canonical "#rrggbb" form.
func (c Color) Hex() (string, error) {
	rgba, err := c.RGBA()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B), nil
}

// Hatch is a fill-texture hint for the rendering backend.
type Hatch string

const (
	HatchNone      Hatch = ""
	HatchDot       Hatch = "dot"
	HatchAsterisk  Hatch = "asterisk"
	HatchDoubleDot Hatch = "double_dot"
	HatchCross     Hatch = "cross"
	HatchBar       Hatch = "bar"
)

var hatchSymbols = map[string]Hatch{
	"":           HatchNone,
	".":          HatchDot,
	"*":          HatchAsterisk,
	"..":         HatchDoubleDot,
	"double-dot": HatchDoubleDot,
	"xx":         HatchCross,
	"x":          HatchCross,
	"|":          HatchBar,
}

// ParseHatch accepts either a hatch identifier or its symbol ("." , "*", "..", "xx", "|").
func ParseHatch(s string) (Hatch, error) {
	s = strings.TrimSpace(s)
	if h, ok := hatchSymbols[s]; ok {
		return h, nil
	}
	switch h := Hatch(strings.ToLower(s)); h {
	case HatchDot, HatchAsterisk, HatchDoubleDot, HatchCross, HatchBar:
		return h, nil
	case "none":
		return HatchNone, nil
	}
	return HatchNone, fmt.Errorf("unknown hatch %q", s)
}

// Valid reports whether h is one of the canonical hatch identifiers.
func (h Hatch) Valid() bool {
	switch h {
	case HatchNone, HatchDot, HatchAsterisk, HatchDoubleDot, HatchCross, HatchBar:
		return true
	}
	return false
}

// Symbol returns the short pattern notation for the hatch.
func (h Hatch) Symbol() string {
	for sym, v := range hatchSymbols {
		if v == h && sym != "x" && sym != "double-dot" {
			return sym
		}
	}
	return ""
}

func (h *Hatch) UnmarshalText(text []byte) error {
	parsed, err := ParseHatch(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
