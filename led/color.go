// Package led drives the RGB status LED that the demo tasks blink.
//
// The LED has one active-low pin per channel. A Color names one of the eight
// pin combinations; the order of the constants is the order the demo assigns
// colors to tasks.
package led

import (
	"fmt"
	"strings"
)

// Color is a state of the RGB LED.
type Color int

const (
	Red Color = iota
	Blue
	Green
	Cyan
	Yellow
	Violet
	White
	Off
)

// Colors lists every lit color in task order.
var Colors = []Color{Red, Blue, Green, Cyan, Yellow, Violet, White}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Cyan:
		return "cyan"
	case Yellow:
		return "yellow"
	case Violet:
		return "violet"
	case White:
		return "white"
	case Off:
		return "off"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// Valid reports whether c is one of the named states.
func (c Color) Valid() bool {
	return c >= Red && c <= Off
}

// ParseColor maps a color name to its Color.
func ParseColor(name string) (Color, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c := Red; c <= Off; c++ {
		if c.String() == n {
			return c, nil
		}
	}
	return Off, fmt.Errorf("led: unknown color %q", name)
}

// Channel is a bit set of lit LED channels.
type Channel uint8

const (
	ChannelRed Channel = 1 << iota
	ChannelGreen
	ChannelBlue
)

// Channels returns the channels lit for c.
func (c Color) Channels() Channel {
	switch c {
	case Red:
		return ChannelRed
	case Green:
		return ChannelGreen
	case Blue:
		return ChannelBlue
	case Cyan:
		return ChannelGreen | ChannelBlue
	case Yellow:
		return ChannelRed | ChannelGreen
	case Violet:
		return ChannelRed | ChannelBlue
	case White:
		return ChannelRed | ChannelGreen | ChannelBlue
	default:
		return 0
	}
}

// PinLevels returns the output level of the red, green and blue pins for the
// channels in ch. The pins are active-low: a lit channel drives its pin low.
func (ch Channel) PinLevels() (red, green, blue bool) {
	return ch&ChannelRed == 0, ch&ChannelGreen == 0, ch&ChannelBlue == 0
}
