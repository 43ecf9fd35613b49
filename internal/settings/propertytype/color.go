package propertytype

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a 32-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 0xff}
}

// ColorFromPacked unpacks a color from its signed ARGB encoding.
func ColorFromPacked(argb int32) Color {
	u := uint32(argb)
	return Color{
		A: uint8(u >> 24),
		R: uint8(u >> 16),
		G: uint8(u >> 8),
		B: uint8(u),
	}
}

// ParseHexColor parses an opaque "#rrggbb" color.
func ParseHexColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q: %v", ErrMalformedValue, s, err)
	}
	r, g, b := c.RGB255()
	return RGB(r, g, b), nil
}

// Packed returns the signed ARGB encoding of the color: alpha in the top
// byte, then red, green and blue.
func (c Color) Packed() int32 {
	return int32(uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B))
}

// Colorful converts the color, ignoring alpha.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Hex returns the "#rrggbb" form of the color, ignoring alpha.
func (c Color) Hex() string {
	return c.Colorful().Hex()
}

// String implements fmt.Stringer.
func (c Color) String() string {
	if c.A == 0xff {
		return c.Hex()
	}
	return fmt.Sprintf("%s@%d", c.Hex(), c.A)
}
