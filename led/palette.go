package led

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps LED states to display colors.
type Palette struct {
	colors map[Color]colorful.Color
}

// DefaultPalette approximates the light of each LED state.
func DefaultPalette() *Palette {
	return &Palette{colors: map[Color]colorful.Color{
		Red:    colorful.Color{R: 1, G: 0.1, B: 0.1},
		Green:  colorful.Color{R: 0.1, G: 0.9, B: 0.2},
		Blue:   colorful.Color{R: 0.15, G: 0.3, B: 1},
		Cyan:   colorful.Color{R: 0.1, G: 0.9, B: 0.9},
		Yellow: colorful.Color{R: 1, G: 0.85, B: 0.1},
		Violet: colorful.Color{R: 0.7, G: 0.2, B: 1},
		White:  colorful.Color{R: 1, G: 1, B: 1},
		Off:    colorful.Color{R: 0.12, G: 0.12, B: 0.12},
	}}
}

// Set overrides the display color of c with a hex value such as "#ff8800".
func (p *Palette) Set(c Color, hex string) error {
	col, err := colorful.Hex(hex)
	if err != nil {
		return err
	}
	p.colors[c] = col
	return nil
}

// Color returns the display color of c. Unknown states show as Off.
func (p *Palette) Color(c Color) colorful.Color {
	if col, ok := p.colors[c]; ok {
		return col
	}
	return p.colors[Off]
}

// Hex returns the display color of c as "#rrggbb".
func (p *Palette) Hex(c Color) string {
	return p.Color(c).Clamped().Hex()
}

// Glow blends the display color of c towards Off. level 1 is full
// brightness, 0 is off.
func (p *Palette) Glow(c Color, level float64) colorful.Color {
	if level <= 0 {
		return p.Color(Off)
	}
	if level >= 1 {
		return p.Color(c)
	}
	return p.Color(Off).BlendLab(p.Color(c), level).Clamped()
}

// RGB255 returns the display color of c scaled to 8-bit channels.
func (p *Palette) RGB255(c Color) (r, g, b uint8) {
	return p.Color(c).Clamped().RGB255()
}
