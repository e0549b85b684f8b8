package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit 0xRRGGBB color.
type Color uint32

// Colors used by the demo worlds and root highlighting.
const (
	Blue      Color = 0x0000ff
	Yellow    Color = 0xffff00
	Grass     Color = 0x009900
	Navy      Color = 0x000099
	White     Color = 0xffffff
	RootGreen Color = 0x00ff00
	LooseRed  Color = 0xff0000
)

// RGB returns the channels scaled to [0, 1].
func (c Color) RGB() (r, g, b float32) {
	return float32(c>>16&0xff) / 255, float32(c>>8&0xff) / 255, float32(c&0xff) / 255
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "#")
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	if len(t) != 6 {
		return 0, fmt.Errorf("world: invalid color %q", s)
	}
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("world: invalid color %q: %w", s, err)
	}
	return Color(v), nil
}
