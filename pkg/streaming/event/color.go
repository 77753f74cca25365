package event

import "fmt"

// Color is an RGB triple with channels in [0, 1].
type Color struct {
	R, G, B float32
}

// White is the value items carry when the source creates them.
var White = Color{R: 1, G: 1, B: 1}

var palette = [...]Color{
	{R: 0.50, G: 0.27, B: 0.45},
	{R: 0.66, G: 0.39, B: 0.39},
	{R: 0.61, G: 0.27, B: 0.27},
	{R: 0.26, G: 0.46, B: 0.42},
}

// StageColor returns the pending colour used by the stage with the given id.
func StageColor(id StageID) Color {
	n := int(id) % len(palette)
	if n < 0 {
		n += len(palette)
	}
	return palette[n]
}

// Hex renders the colour as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func (c Color) String() string {
	return c.Hex()
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
